// Package ddoracle batches perfect-information subproblems (one per
// hypothesized layout) to an external double-dummy solver and iterates
// the results back against their originating deal ids. The solver
// itself is an excluded collaborator: this package only defines the
// request/response shapes and the Oracle interface a caller plugs in.
package ddoracle

import (
	"fmt"

	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/intset"
	"github.com/behrlich/bridge-solver/pkg/problem"
	"github.com/behrlich/bridge-solver/pkg/state"
)

// MaxBoards is the largest batch a single oracle call may be asked to
// solve at once, mirroring the external solver's own per-call limit.
const MaxBoards = 200

// Mode selects what the oracle computes for a deal.
type Mode int

const (
	// ModeCandidates asks for candidate cards only, without scoring the
	// position itself, the mode the existential Solver's N/S node uses
	// to enumerate plays worth searching.
	ModeCandidates Mode = 0
	// ModeScore asks for the actual number of tricks the side on play
	// can take from this position onward.
	ModeScore Mode = 1
	// ModeTarget asks only whether the side on play can reach target.
	ModeTarget Mode = 2
)

// Solutions selects how many winning cards the oracle reports.
type Solutions int

const (
	// SolutionsFirst reports only the first card achieving the best score.
	SolutionsFirst Solutions = 1
	// SolutionsAllMax reports every card achieving the best score.
	SolutionsAllMax Solutions = 2
	// SolutionsAllScored reports every card along with its own score.
	SolutionsAllScored Solutions = 3
)

// Deal is one perfect-information subproblem: full remaining hands for
// all four seats, trump, the leader of the current trick, and the
// partial trick already led.
type Deal struct {
	North, South, West, East cards.Hand
	Trump                    cards.Strain
	Leader                   cards.Direction
	CurrentTrick             [3]cards.Card
	Mode                     Mode
	Solutions                Solutions
	Target                   int
}

// CardResult is one equal-rank class the oracle reports for a deal: a
// representative card, the bitmask of other cards in its hand achieving
// the same score, and that score.
type CardResult struct {
	Card      cards.Card
	EqualRank cards.Hand
	Score     int
}

// BoardSolution is the oracle's answer for one deal in a batch.
type BoardSolution struct {
	Cards []CardResult
}

// BatchRequest is up to MaxBoards deals solved together.
type BatchRequest struct {
	Deals []Deal
}

// BatchResult holds one BoardSolution per deal in the matching request,
// in the same order.
type BatchResult struct {
	Boards []BoardSolution
}

// Oracle is the external double-dummy solver collaborator: given a
// batch of deals, return a per-deal solution or a descriptive error.
// Implementations are expected to enforce len(req.Deals) <= MaxBoards.
type Oracle interface {
	SolveBatch(req BatchRequest) (BatchResult, error)
}

// Loader iterates a Problem's hypothesized dids in MaxBoards-sized
// chunks, issuing one oracle batch per chunk and exposing the slot ->
// did mapping alongside each chunk's solutions.
type Loader struct {
	problem *problem.Problem
	state   *state.State
	oracle  Oracle
	mode    Mode
	sols    Solutions

	remaining *intset.Set
	didMap    []int
	chunk     BatchResult
}

// NewLoader constructs a Loader over dids, ready to produce its first
// chunk. Call More/Next/Chunk* to drain it.
func NewLoader(p *problem.Problem, st *state.State, dids *intset.Set, mode Mode, sols Solutions, oracle Oracle) (*Loader, error) {
	l := &Loader{
		problem:   p,
		state:     st,
		oracle:    oracle,
		mode:      mode,
		sols:      sols,
		remaining: dids.Clone(),
	}
	if err := l.loadSome(); err != nil {
		return nil, err
	}
	return l, nil
}

// target computes the trick count the side on play must still reach,
// per spec: for N/S it's target minus tricks already won; for E/W it's
// the number of tricks the defense still needs to take to defeat target.
func (l *Loader) target() int {
	if l.state.ToPlayNS() {
		return l.problem.Target - l.state.NSTricks()
	}
	return l.problem.North.Count() - l.problem.Target + 1 - l.state.EWTricks()
}

func (l *Loader) loadSome() error {
	var deals []Deal
	var didMap []int

	for l.remaining.Size() > 0 && len(deals) < MaxBoards {
		did := l.remaining.PopSmallest()
		didMap = append(didMap, did)

		var trick [3]cards.Card
		for j := 0; j < 3; j++ {
			trick[j] = l.state.TrickCard(j)
		}

		played := l.state.Played()
		deals = append(deals, Deal{
			North:        l.problem.North &^ played,
			South:        l.problem.South &^ played,
			West:         l.problem.Wests[did] &^ played,
			East:         l.problem.Easts[did] &^ played,
			Trump:        l.problem.Trump,
			Leader:       l.state.TrickLeader(),
			CurrentTrick: trick,
			Mode:         l.mode,
			Solutions:    l.sols,
			Target:       l.target(),
		})
	}

	l.didMap = didMap
	if len(deals) == 0 {
		l.chunk = BatchResult{}
		return nil
	}

	result, err := l.oracle.SolveBatch(BatchRequest{Deals: deals})
	if err != nil {
		return fmt.Errorf("ddoracle: solve batch: %w", err)
	}
	if len(result.Boards) != len(deals) {
		return fmt.Errorf("ddoracle: oracle returned %d boards for %d deals", len(result.Boards), len(deals))
	}
	l.chunk = result
	return nil
}

// More reports whether there is a current chunk to read.
func (l *Loader) More() bool {
	return len(l.didMap) > 0
}

// Next advances to the next chunk.
func (l *Loader) Next() error {
	return l.loadSome()
}

// ChunkSize returns the number of boards in the current chunk.
func (l *Loader) ChunkSize() int {
	return len(l.didMap)
}

// ChunkDid returns the deal id the i-th board in the current chunk
// answers for.
func (l *Loader) ChunkDid(i int) int {
	return l.didMap[i]
}

// ChunkSolution returns the i-th board's solution in the current chunk.
func (l *Loader) ChunkSolution(i int) BoardSolution {
	return l.chunk.Boards[i]
}
