// Package hostapi is the stable surface a host-language binding calls
// through: every operation here takes and returns plain strings/ints/
// bools rather than internal handles, so a binding (CLI, wasm, FFI)
// never needs to know about bdt.Handle, intset.Set, or any other
// library-internal type.
package hostapi

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/behrlich/bridge-solver/pkg/ansolver"
	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/ddoracle"
	"github.com/behrlich/bridge-solver/pkg/intset"
	"github.com/behrlich/bridge-solver/pkg/problem"
	"github.com/behrlich/bridge-solver/pkg/solver"
	"github.com/behrlich/bridge-solver/pkg/state"
)

// DealSpec names the four hands of one fully known deal in hand-string
// notation (suits high to low separated by '/', '-' for void).
type DealSpec struct {
	North, South, West, East string
}

func (d DealSpec) parse() (north, south, west, east cards.Hand, err error) {
	if north, err = cards.ParseHand(d.North); err != nil {
		return
	}
	if south, err = cards.ParseHand(d.South); err != nil {
		return
	}
	if west, err = cards.ParseHand(d.West); err != nil {
		return
	}
	if east, err = cards.ParseHand(d.East); err != nil {
		return
	}
	return
}

// SolveDeal returns the number of tricks declarer's side takes over the
// whole deal, double-dummy, given a single fully known layout. The
// opening leader is declarer's left-hand opponent, per bridge's fixed
// lead order.
func SolveDeal(d DealSpec, declarer string, strain string, oracle ddoracle.Oracle) (int, error) {
	north, south, west, east, err := d.parse()
	if err != nil {
		return 0, fmt.Errorf("hostapi: solve_deal: %w", err)
	}
	dec, err := cards.ParseDirection(declarer)
	if err != nil {
		return 0, fmt.Errorf("hostapi: solve_deal: %w", err)
	}
	trump, err := cards.ParseStrain(strain)
	if err != nil {
		return 0, fmt.Errorf("hostapi: solve_deal: %w", err)
	}

	leader := dec.Next()
	result, err := oracle.SolveBatch(ddoracle.BatchRequest{Deals: []ddoracle.Deal{{
		North: north, South: south, West: west, East: east,
		Trump:     trump,
		Leader:    leader,
		Mode:      ddoracle.ModeScore,
		Solutions: ddoracle.SolutionsFirst,
	}}})
	if err != nil {
		return 0, fmt.Errorf("hostapi: solve_deal: %w", err)
	}
	if len(result.Boards) != 1 {
		return 0, fmt.Errorf("hostapi: solve_deal: oracle returned %d boards, want 1", len(result.Boards))
	}

	score := 0
	if cs := result.Boards[0].Cards; len(cs) > 0 {
		score = cs[0].Score
	}
	// leader is always a defender (declarer's left-hand opponent), so
	// the oracle's score is always tricks for the defense; convert to
	// declarer's side.
	return 13 - score, nil
}

// SolveManyDeals is SolveDeal over a list of deals, each independent of
// the others; solve_deal's own batching is internal to the oracle call,
// so this just loops rather than re-deriving that.
func SolveManyDeals(deals []DealSpec, declarers []string, strains []string, oracle ddoracle.Oracle) ([]int, error) {
	if len(deals) != len(declarers) || len(deals) != len(strains) {
		return nil, fmt.Errorf("hostapi: solve_many_deals: mismatched input lengths")
	}
	out := make([]int, len(deals))
	for i := range deals {
		tricks, err := SolveDeal(deals[i], declarers[i], strains[i], oracle)
		if err != nil {
			return nil, fmt.Errorf("hostapi: solve_many_deals: deal %d: %w", i, err)
		}
		out[i] = tricks
	}
	return out, nil
}

func trickArray(trickSoFar []cards.Card) [3]cards.Card {
	var out [3]cards.Card
	copy(out[:], trickSoFar)
	return out
}

// trickLeader recovers who led the current trick from whoever is on
// play now and how many cards the trick already holds: the seat
// rotation from leader to onPlay advances once per card already played.
func trickLeader(onPlay cards.Direction, trickLen int) cards.Direction {
	d := onPlay
	for i := 0; i < (4-trickLen)%4; i++ {
		d = d.Next()
	}
	return d
}

// PlayQuery is one partial-hand 4-tuple solved for on-play's best cards.
type PlayQuery struct {
	North, South, West, East string
	OnPlay                   string
	Strain                   string
	TrickSoFar               string
	WantWinRanks             bool
}

// PlayResult is one equal-rank class of card reported for a PlayQuery:
// a representative card, the resulting trick count for on-play's side,
// and (if requested) the compressed list of other cards sharing its
// rank class.
type PlayResult struct {
	Card     string
	Tricks   int
	WinRanks string
}

// SolveManyPlays answers, for each query, which of on-play's legal cards
// are usable (achieve the best reachable score) and what that score is.
func SolveManyPlays(qs []PlayQuery, oracle ddoracle.Oracle) ([][]PlayResult, error) {
	deals := make([]ddoracle.Deal, len(qs))
	for i, q := range qs {
		north, err := cards.ParseHand(q.North)
		if err != nil {
			return nil, fmt.Errorf("hostapi: solve_many_plays: query %d: %w", i, err)
		}
		south, err := cards.ParseHand(q.South)
		if err != nil {
			return nil, fmt.Errorf("hostapi: solve_many_plays: query %d: %w", i, err)
		}
		west, err := cards.ParseHand(q.West)
		if err != nil {
			return nil, fmt.Errorf("hostapi: solve_many_plays: query %d: %w", i, err)
		}
		east, err := cards.ParseHand(q.East)
		if err != nil {
			return nil, fmt.Errorf("hostapi: solve_many_plays: query %d: %w", i, err)
		}
		onPlay, err := cards.ParseDirection(q.OnPlay)
		if err != nil {
			return nil, fmt.Errorf("hostapi: solve_many_plays: query %d: %w", i, err)
		}
		trump, err := cards.ParseStrain(q.Strain)
		if err != nil {
			return nil, fmt.Errorf("hostapi: solve_many_plays: query %d: %w", i, err)
		}
		trick, err := cards.ParseCompressed(q.TrickSoFar)
		if err != nil {
			return nil, fmt.Errorf("hostapi: solve_many_plays: query %d: %w", i, err)
		}
		if len(trick) > 3 {
			return nil, fmt.Errorf("hostapi: solve_many_plays: query %d: trick-so-far has more than 3 cards", i)
		}
		leader := trickLeader(onPlay, len(trick))

		sols := ddoracle.SolutionsAllMax
		if q.WantWinRanks {
			sols = ddoracle.SolutionsAllScored
		}
		deals[i] = ddoracle.Deal{
			North: north, South: south, West: west, East: east,
			Trump:        trump,
			Leader:       leader,
			CurrentTrick: trickArray(trick),
			Mode:         ddoracle.ModeScore,
			Solutions:    sols,
		}
	}

	result, err := oracle.SolveBatch(ddoracle.BatchRequest{Deals: deals})
	if err != nil {
		return nil, fmt.Errorf("hostapi: solve_many_plays: %w", err)
	}
	if len(result.Boards) != len(qs) {
		return nil, fmt.Errorf("hostapi: solve_many_plays: oracle returned %d boards for %d queries", len(result.Boards), len(qs))
	}

	out := make([][]PlayResult, len(qs))
	for i, board := range result.Boards {
		rs := make([]PlayResult, len(board.Cards))
		for j, cr := range board.Cards {
			r := PlayResult{Card: cr.Card.String(), Tricks: cr.Score}
			if qs[i].WantWinRanks {
				var equals []cards.Card
				for hi := cards.NewHandIter(cr.EqualRank); hi.More(); hi.Next() {
					equals = append(equals, hi.Current())
				}
				r.WinRanks = cards.FormatCompressed(equals)
			}
			rs[j] = r
		}
		out[i] = rs
	}
	return out, nil
}

// CardVerdict reports one played card's quality against the oracle's
// own best line at the moment it was played.
type CardVerdict struct {
	Card    string
	Good    bool
	Bad     bool
	WasGood bool
}

// AnalyzeDealPlay replays a compressed history against a single fully
// known deal, and for each played card reports whether it matched one
// of the cards the oracle judged usable at that point.
func AnalyzeDealPlay(d DealSpec, declarer string, strain string, history string, oracle ddoracle.Oracle) ([]CardVerdict, error) {
	north, south, west, east, err := d.parse()
	if err != nil {
		return nil, fmt.Errorf("hostapi: analyze_deal_play: %w", err)
	}
	dec, err := cards.ParseDirection(declarer)
	if err != nil {
		return nil, fmt.Errorf("hostapi: analyze_deal_play: %w", err)
	}
	trump, err := cards.ParseStrain(strain)
	if err != nil {
		return nil, fmt.Errorf("hostapi: analyze_deal_play: %w", err)
	}
	plays, err := cards.ParseCompressed(history)
	if err != nil {
		return nil, fmt.Errorf("hostapi: analyze_deal_play: bad history: %w", err)
	}

	fullHands := map[cards.Direction]cards.Hand{
		cards.North: north, cards.South: south,
		cards.West: west, cards.East: east,
	}
	st := state.New(trump, dec)

	out := make([]CardVerdict, 0, len(plays))
	for _, played := range plays {
		onPlay := st.ToPlay()
		remaining := fullHands[onPlay] &^ st.Played()
		if !remaining.Contains(played) {
			return nil, fmt.Errorf("hostapi: analyze_deal_play: %s does not hold %s", onPlay, played)
		}

		deal := ddoracle.Deal{
			North: fullHands[cards.North] &^ st.Played(),
			South: fullHands[cards.South] &^ st.Played(),
			West:  fullHands[cards.West] &^ st.Played(),
			East:  fullHands[cards.East] &^ st.Played(),
			Trump: trump, Leader: st.TrickLeader(),
			CurrentTrick: [3]cards.Card{st.TrickCard(0), st.TrickCard(1), st.TrickCard(2)},
			Mode:         ddoracle.ModeScore, Solutions: ddoracle.SolutionsAllMax,
		}
		result, err := oracle.SolveBatch(ddoracle.BatchRequest{Deals: []ddoracle.Deal{deal}})
		if err != nil {
			return nil, fmt.Errorf("hostapi: analyze_deal_play: %w", err)
		}
		wasGood := false
		if len(result.Boards) == 1 {
			for _, cr := range result.Boards[0].Cards {
				if cr.Card == played || cr.EqualRank.Contains(played) {
					wasGood = true
					break
				}
			}
		}
		out = append(out, CardVerdict{Card: played.String(), Good: wasGood, Bad: !wasGood, WasGood: wasGood})

		st.Play(played)
	}
	return out, nil
}

// MenuGroup is one equivalence class of legal cards reported by
// PlayMenu: every card in Cards plays identically from here.
type MenuGroup struct {
	Cards  string
	Tricks int
}

// PlayMenu lists on-play's legal cards, grouped by equivalence, without
// requiring a fully played-out deal: only the four current hands and
// the partial trick already led.
func PlayMenu(d DealSpec, onPlay string, strain string, trickSoFar string, oracle ddoracle.Oracle) ([]MenuGroup, error) {
	north, south, west, east, err := d.parse()
	if err != nil {
		return nil, fmt.Errorf("hostapi: play_menu: %w", err)
	}
	onPlayDir, err := cards.ParseDirection(onPlay)
	if err != nil {
		return nil, fmt.Errorf("hostapi: play_menu: %w", err)
	}
	trump, err := cards.ParseStrain(strain)
	if err != nil {
		return nil, fmt.Errorf("hostapi: play_menu: %w", err)
	}
	trick, err := cards.ParseCompressed(trickSoFar)
	if err != nil {
		return nil, fmt.Errorf("hostapi: play_menu: %w", err)
	}

	result, err := oracle.SolveBatch(ddoracle.BatchRequest{Deals: []ddoracle.Deal{{
		North: north, South: south, West: west, East: east,
		Trump: trump, Leader: trickLeader(onPlayDir, len(trick)), CurrentTrick: trickArray(trick),
		Mode: ddoracle.ModeScore, Solutions: ddoracle.SolutionsAllScored,
	}}})
	if err != nil {
		return nil, fmt.Errorf("hostapi: play_menu: %w", err)
	}
	if len(result.Boards) != 1 {
		return nil, fmt.Errorf("hostapi: play_menu: oracle returned %d boards, want 1", len(result.Boards))
	}

	groups := make([]MenuGroup, 0, len(result.Boards[0].Cards))
	for _, cr := range result.Boards[0].Cards {
		members := []cards.Card{cr.Card}
		for hi := cards.NewHandIter(cr.EqualRank); hi.More(); hi.Next() {
			members = append(members, hi.Current())
		}
		groups = append(groups, MenuGroup{Cards: cards.FormatCompressed(members), Tricks: cr.Score})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Tricks > groups[j].Tricks })
	return groups, nil
}

// NewProblem validates and builds a Problem from hand-string North/South
// and West hands, one per hypothesized deal id.
func NewProblem(north, south string, strain string, target int, wests []string) (*problem.Problem, error) {
	n, err := cards.ParseHand(north)
	if err != nil {
		return nil, fmt.Errorf("hostapi: new_problem: %w", err)
	}
	s, err := cards.ParseHand(south)
	if err != nil {
		return nil, fmt.Errorf("hostapi: new_problem: %w", err)
	}
	trump, err := cards.ParseStrain(strain)
	if err != nil {
		return nil, fmt.Errorf("hostapi: new_problem: %w", err)
	}
	ws := make([]cards.Hand, len(wests))
	for i, w := range wests {
		ws[i], err = cards.ParseHand(w)
		if err != nil {
			return nil, fmt.Errorf("hostapi: new_problem: west %d: %w", i, err)
		}
	}
	return problem.New(n, s, trump, target, ws)
}

func parsePlays(plays string) ([]cards.Card, error) {
	if plays == "" {
		return nil, nil
	}
	return cards.ParseCompressed(plays)
}

// NewSolver constructs the existential search for p.
func NewSolver(p *problem.Problem, oracle ddoracle.Oracle) *solver.Solver {
	return solver.NewSolver(p, oracle)
}

// SolverEval evaluates s from declarer's opening lead through plays (a
// compressed card list), returning the resulting BDT as a list of
// did-index cubes.
func SolverEval(s *solver.Solver, declarer string, plays string) ([][]int, error) {
	dec, err := cards.ParseDirection(declarer)
	if err != nil {
		return nil, fmt.Errorf("hostapi: solver_eval: %w", err)
	}
	history, err := parsePlays(plays)
	if err != nil {
		return nil, fmt.Errorf("hostapi: solver_eval: %w", err)
	}

	result := s.EvalHistory(dec, history)
	cubes := s.BdtMgr().GetCubes(result)

	out := make([][]int, len(cubes))
	for i, c := range cubes {
		out[i] = c.Slice()
	}
	return out, nil
}

// NewANSolver constructs the all-or-none search for p.
func NewANSolver(p *problem.Problem, oracle ddoracle.Oracle) *ansolver.Solver {
	return ansolver.NewSolver(p, oracle)
}

// ANSolverEval evaluates s from declarer's opening lead through plays,
// restricted to dids if non-empty, otherwise every hypothesized layout.
func ANSolverEval(s *ansolver.Solver, declarer string, plays string, dids []int) (bool, error) {
	dec, err := cards.ParseDirection(declarer)
	if err != nil {
		return false, fmt.Errorf("hostapi: ansolver_eval: %w", err)
	}
	history, err := parsePlays(plays)
	if err != nil {
		return false, fmt.Errorf("hostapi: ansolver_eval: %w", err)
	}
	if len(dids) == 0 {
		return s.EvalHistory(dec, history)
	}
	set := intset.New()
	for _, d := range dids {
		set.Insert(d)
	}
	return s.EvalHistoryDids(dec, history, set)
}

// ANSolverFillTT runs s.FillTT from plays forward, populating s's
// transposition table along the lines FillTT follows.
func ANSolverFillTT(s *ansolver.Solver, declarer string, plays string) error {
	dec, err := cards.ParseDirection(declarer)
	if err != nil {
		return fmt.Errorf("hostapi: ansolver_fill_tt: %w", err)
	}
	history, err := parsePlays(plays)
	if err != nil {
		return fmt.Errorf("hostapi: ansolver_fill_tt: %w", err)
	}
	return s.FillTT(dec, history)
}

// ANSolverWriteToFile writes s to path, creating or truncating it.
func ANSolverWriteToFile(s *ansolver.Solver, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hostapi: ansolver_write_to_file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := s.WriteTo(&buf); err != nil {
		return fmt.Errorf("hostapi: ansolver_write_to_file: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("hostapi: ansolver_write_to_file: %s: %w", path, err)
	}
	return nil
}

// ANSolverReadFromFile reads a solver written by ANSolverWriteToFile.
func ANSolverReadFromFile(path string, oracle ddoracle.Oracle) (*ansolver.Solver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hostapi: ansolver_read_from_file: %s: %w", path, err)
	}
	s, err := ansolver.ReadSolverFrom(bytes.NewReader(data), oracle)
	if err != nil {
		return nil, fmt.Errorf("hostapi: ansolver_read_from_file: %s: %w", path, err)
	}
	return s, nil
}
