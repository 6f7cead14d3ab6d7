package coverage

import (
	"github.com/google/uuid"
)

// SyntheticID builds the ID of a session derived by an algebra operation,
// e.g. "union 1b4e28ba-2fa1-11d2-883f-0016d3cca427".
func SyntheticID(prefix string) string {
	return prefix + " " + uuid.NewString()
}

// SessionDiff is the three-way split of two sessions.
type SessionDiff struct {
	OnlyA  *Session
	Common *Session
	OnlyB  *Session
}

// ContainsDifference reports whether either side covers something the other does not.
func (d *SessionDiff) ContainsDifference() bool {
	return d.OnlyA.NumberOfCoveredMethods() > 0 || d.OnlyB.NumberOfCoveredMethods() > 0
}

// Diff splits a and b into what only a covers, what both cover and what
// only b covers. Neither input is modified.
func Diff(a, b *Session) *SessionDiff {
	onlyA := NewSession(SyntheticID("onlyA"))
	onlyA.Add(a)
	onlyA.Remove(b)

	common := NewSession(SyntheticID("common"))
	common.Add(a)
	common.Retain(b)

	onlyB := NewSession(SyntheticID("onlyB"))
	onlyB.Add(b)
	onlyB.Remove(a)

	return &SessionDiff{OnlyA: onlyA, Common: common, OnlyB: onlyB}
}
