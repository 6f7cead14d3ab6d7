package coverage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/covalgebra/internal/structure"
)

// fixture is a small registry: P.C.m() with lines 10 (2 instr) and 11
// (3 instr, 1 branch), P.C.n() with lines 20-22 of 4 instructions each.
type fixture struct {
	t   *testing.T
	reg *structure.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := structure.NewRegistry()
	reg.EnsurePackage("P")
	_, err := reg.AddClass("P", "C")
	require.NoError(t, err)

	m, err := reg.AddMethod("P.C", "m()", 2)
	require.NoError(t, err)
	_, err = reg.AddLineTo(m, 10, 2, 0)
	require.NoError(t, err)
	_, err = reg.AddLineTo(m, 11, 3, 1)
	require.NoError(t, err)

	n, err := reg.AddMethod("P.C", "n()", 1)
	require.NoError(t, err)
	for _, line := range []int{20, 21, 22} {
		_, err = reg.AddLineTo(n, line, 4, 0)
		require.NoError(t, err)
	}
	return &fixture{t: t, reg: reg}
}

// hit maps a line number to covered instructions.
type hit map[int]int

// session builds a session from method full name -> covered instructions per line.
func (f *fixture) session(id string, cov map[string]hit) *Session {
	f.t.Helper()
	s := NewSession(id)
	for name, lines := range cov {
		m, ok := f.reg.MethodByFullName(name)
		require.True(f.t, ok, name)
		mc := NewMethodCoverage(m)
		for number, instr := range lines {
			line, ok := m.Line(number)
			require.True(f.t, ok)
			lc, err := NewLineCoverage(line, instr, 0)
			require.NoError(f.t, err)
			mc.Put(lc)
		}
		s.AddCoverage(mc)
	}
	return s
}

// covered flattens a session for structural comparison.
func covered(s *Session) map[string]hit {
	result := make(map[string]hit)
	for _, name := range s.Methods() {
		mc, _ := s.Coverage(name)
		lines := make(hit)
		for _, lc := range mc.Lines() {
			lines[lc.Line().Number] = lc.InstructionsCovered()
		}
		result[name] = lines
	}
	return result
}
