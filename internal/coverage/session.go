package coverage

import (
	"sort"

	"github.com/zjy-dev/covalgebra/internal/structure"
)

// Session is the coverage record of one test-execution session, keyed by
// method full name. A method is present only while it has at least one
// covered line.
type Session struct {
	id       string
	coverage map[string]*MethodCoverage
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{
		id:       id,
		coverage: make(map[string]*MethodCoverage),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// AddCoverage stores a method record as is. Empty records are ignored and
// reported through the return value.
func (s *Session) AddCoverage(mc *MethodCoverage) bool {
	if mc == nil || mc.NumberOfLinesCovered() == 0 {
		return false
	}
	s.coverage[mc.FullName()] = mc
	return true
}

// Coverage returns the record of the method with the given full name.
func (s *Session) Coverage(fullName string) (*MethodCoverage, bool) {
	mc, ok := s.coverage[fullName]
	return mc, ok
}

// Methods returns the full names of the covered methods, sorted.
func (s *Session) Methods() []string {
	names := make([]string, 0, len(s.coverage))
	for name := range s.coverage {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CoversLine reports whether the session covers the given registry line.
func (s *Session) CoversLine(line structure.Line) bool {
	mc, ok := s.coverage[line.Method]
	if !ok {
		return false
	}
	return mc.IsLineCovered(line.Number)
}

// NumberOfCoveredMethods returns how many methods have covered lines.
func (s *Session) NumberOfCoveredMethods() int {
	return len(s.coverage)
}

// IsEmpty reports whether the session covers nothing.
func (s *Session) IsEmpty() bool {
	return len(s.coverage) == 0
}

// NumberOfLinesCovered sums covered lines over all methods.
func (s *Session) NumberOfLinesCovered() int {
	total := 0
	for _, mc := range s.coverage {
		total += mc.NumberOfLinesCovered()
	}
	return total
}

// InstructionsCovered sums covered instructions over all methods.
func (s *Session) InstructionsCovered() int {
	total := 0
	for _, mc := range s.coverage {
		total += mc.InstructionsCovered()
	}
	return total
}

// BranchesCovered sums covered branches over all methods.
func (s *Session) BranchesCovered() int {
	total := 0
	for _, mc := range s.coverage {
		total += mc.BranchesCovered()
	}
	return total
}

// Add unions other into s. Methods new to s get a fresh record, so s never
// aliases a record of other.
func (s *Session) Add(other *Session) {
	for name, mc := range other.coverage {
		own, ok := s.coverage[name]
		if !ok {
			own = NewMethodCoverage(mc.method)
			s.coverage[name] = own
		}
		own.AddLinesCovered(mc)
	}
}

// Remove subtracts the lines other covers from s. Methods left without
// covered lines are dropped.
func (s *Session) Remove(other *Session) {
	for name, mc := range other.coverage {
		own, ok := s.coverage[name]
		if !ok {
			continue
		}
		own.RemoveLinesCovered(mc)
		if own.NumberOfLinesCovered() == 0 {
			delete(s.coverage, name)
		}
	}
}

// Retain intersects s with other. Methods other does not cover, and
// methods left without covered lines, are dropped.
func (s *Session) Retain(other *Session) {
	for name, own := range s.coverage {
		mc, ok := other.coverage[name]
		if !ok {
			delete(s.coverage, name)
			continue
		}
		own.RetainLinesCovered(mc)
		if own.NumberOfLinesCovered() == 0 {
			delete(s.coverage, name)
		}
	}
}

// Clone returns a deep copy of s under a new ID.
func (s *Session) Clone(id string) *Session {
	clone := NewSession(id)
	clone.Add(s)
	return clone
}
