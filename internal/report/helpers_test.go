package report

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/covalgebra/internal/coverage"
	"github.com/zjy-dev/covalgebra/internal/structure"
)

// hit maps a line number to covered instructions.
type hit map[int]int

// newTestRegistry builds P.C.m() with lines {10:(2,0), 11:(3,1)} and
// P.D.n(int) with lines {5:(4,2), 6:(1,0)}.
func newTestRegistry(t *testing.T) *structure.Registry {
	t.Helper()
	reg := structure.NewRegistry()
	reg.EnsurePackage("P")
	_, err := reg.AddClass("P", "C")
	require.NoError(t, err)
	_, err = reg.AddClass("P", "D")
	require.NoError(t, err)

	m, err := reg.AddMethod("P.C", "m()", 2)
	require.NoError(t, err)
	_, err = reg.AddLineTo(m, 10, 2, 0)
	require.NoError(t, err)
	_, err = reg.AddLineTo(m, 11, 3, 1)
	require.NoError(t, err)

	n, err := reg.AddMethod("P.D", "n(int)", 3)
	require.NoError(t, err)
	_, err = reg.AddLineTo(n, 5, 4, 2)
	require.NoError(t, err)
	_, err = reg.AddLineTo(n, 6, 1, 0)
	require.NoError(t, err)
	return reg
}

func newSession(t *testing.T, reg *structure.Registry, id string, cov map[string]hit) *coverage.Session {
	t.Helper()
	s := coverage.NewSession(id)
	for name, lines := range cov {
		m, ok := reg.MethodByFullName(name)
		require.True(t, ok, name)
		mc := coverage.NewMethodCoverage(m)
		for number, instr := range lines {
			line, ok := m.Line(number)
			require.True(t, ok)
			branches := 0
			if instr == line.Instructions {
				branches = line.Branches
			}
			lc, err := coverage.NewLineCoverage(line, instr, branches)
			require.NoError(t, err)
			mc.Put(lc)
		}
		s.AddCoverage(mc)
	}
	return s
}

func covered(s *coverage.Session) map[string]hit {
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

// scenarioReport holds A = {m: 10:2, 11:1} and B = {m: 11:3, n: 5:4}.
func scenarioReport(t *testing.T, opts ...Option) *Report {
	t.Helper()
	reg := newTestRegistry(t)
	r := New(reg, opts...)
	r.AddSession(newSession(t, reg, "A", map[string]hit{"P.C.m()": {10: 2, 11: 1}}))
	r.AddSession(newSession(t, reg, "B", map[string]hit{"P.C.m()": {11: 3}, "P.D.n(int)": {5: 4}}))
	return r
}
