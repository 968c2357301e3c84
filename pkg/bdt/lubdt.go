package bdt

// LUBDT is a (lower, upper) bound pair on a family of did-sets, used as
// a transposition-table value: Lower is a family already proven jointly
// winnable from some state; Upper is a family whose complement
// characterizes proven losses. Invariant: Lower is a subset family of
// Upper, and both narrow monotonically as search proves more cases.
type LUBDT struct {
	Lower Handle
	Upper Handle
}

// Unknown is the widest possible bound: nothing proven winnable, and
// nothing proven lost.
var Unknown = LUBDT{Lower: Null, Upper: Null}

// IsValid reports whether Lower is actually contained in Upper, per the
// manager's subset-of check. A false result here indicates a
// transposition-table entry has been corrupted, not a reachable state
// during normal narrowing.
func (m *Manager) IsValid(lu LUBDT) bool {
	return m.SubsetOf(lu.Lower, lu.Upper)
}

// NarrowLower returns lu with its Lower bound raised to include more,
// which must itself be a subset of lu.Upper.
func (m *Manager) NarrowLower(lu LUBDT, more Handle) LUBDT {
	return LUBDT{Lower: m.Unionize(lu.Lower, more), Upper: lu.Upper}
}

// NarrowUpper returns lu with its Upper bound lowered to less, which
// must itself be a superset of lu.Lower.
func (m *Manager) NarrowUpper(lu LUBDT, less Handle) LUBDT {
	return LUBDT{Lower: lu.Lower, Upper: m.Intersect(lu.Upper, less)}
}

// IsResolved reports whether lu's bounds have converged: every
// hypothesis is now known either winnable or lost.
func (lu LUBDT) IsResolved() bool {
	return lu.Lower == lu.Upper
}
