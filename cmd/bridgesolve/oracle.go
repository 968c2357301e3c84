package main

import (
	"fmt"
	"strconv"

	"github.com/behrlich/bridge-solver/internal/ddproc"
)

// dialOracle starts the configured external solver subprocess, passing
// the configured thread budget through as a trailing argument.
func (s *rootState) dialOracle() (*ddproc.Oracle, error) {
	if s.oracleCmd == "" {
		return nil, fmt.Errorf("bridgesolve: --oracle-cmd is required")
	}
	args := append([]string{}, s.oracleArgs...)
	args = append(args, "--threads", strconv.Itoa(s.cfg.ThreadBudget))
	return ddproc.Dial(s.oracleCmd, args...)
}
