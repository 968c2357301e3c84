// Package ddproc adapts the excluded external double-dummy solver to a
// subprocess: one long-lived child process reads newline-delimited JSON
// ddoracle.BatchRequest values on stdin and writes one
// ddoracle.BatchResult per request back on stdout, in order. This is the
// one concrete ddoracle.Oracle a CLI binding can drive without embedding
// a solver library, matching spec.md's framing of the DD solver as a
// named-but-external collaborator.
package ddproc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/behrlich/bridge-solver/pkg/ddoracle"
)

// Oracle drives one external solver process over stdin/stdout.
type Oracle struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader

	mu sync.Mutex
}

// Dial starts path as a subprocess with args and returns an Oracle wired
// to its stdin/stdout. The caller must Close the Oracle when done.
func Dial(path string, args ...string) (*Oracle, error) {
	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ddproc: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ddproc: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ddproc: start %s: %w", path, err)
	}
	log.Debug().Str("cmd", path).Strs("args", args).Msg("ddproc: oracle process started")
	return &Oracle{cmd: cmd, stdin: stdin, reader: bufio.NewReader(stdout)}, nil
}

// SolveBatch sends req as one JSON line and reads back one JSON-decoded
// BatchResult line. Calls are serialized: the subprocess sees requests
// one at a time, in the order callers arrive.
func (o *Oracle) SolveBatch(req ddoracle.BatchRequest) (ddoracle.BatchResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	line, err := json.Marshal(req)
	if err != nil {
		return ddoracle.BatchResult{}, fmt.Errorf("ddproc: encode request: %w", err)
	}
	if _, err := o.stdin.Write(append(line, '\n')); err != nil {
		return ddoracle.BatchResult{}, fmt.Errorf("ddproc: write request: %w", err)
	}

	respLine, err := o.reader.ReadBytes('\n')
	if err != nil && len(respLine) == 0 {
		return ddoracle.BatchResult{}, fmt.Errorf("ddproc: read response: %w", err)
	}
	var result ddoracle.BatchResult
	if err := json.Unmarshal(respLine, &result); err != nil {
		return ddoracle.BatchResult{}, fmt.Errorf("ddproc: decode response: %w", err)
	}
	if len(result.Boards) != len(req.Deals) {
		return ddoracle.BatchResult{}, fmt.Errorf("ddproc: oracle returned %d boards for %d deals", len(result.Boards), len(req.Deals))
	}
	return result, nil
}

// Close closes the subprocess's stdin and waits for it to exit.
func (o *Oracle) Close() error {
	if err := o.stdin.Close(); err != nil {
		return fmt.Errorf("ddproc: close stdin: %w", err)
	}
	if err := o.cmd.Wait(); err != nil {
		return fmt.Errorf("ddproc: wait: %w", err)
	}
	return nil
}
