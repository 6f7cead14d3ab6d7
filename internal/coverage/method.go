package coverage

import (
	"sort"

	"github.com/zjy-dev/covalgebra/internal/structure"
)

// MethodCoverage holds the covered lines of a single method.
//
// Only lines with at least one covered instruction are present. The
// algebra below mutates the receiver in place and never touches the
// operand; LineCoverage is a value, so no line record is ever shared.
type MethodCoverage struct {
	method *structure.Method
	lines  map[int]LineCoverage
}

// NewMethodCoverage creates an empty coverage record for m.
func NewMethodCoverage(m *structure.Method) *MethodCoverage {
	return &MethodCoverage{
		method: m,
		lines:  make(map[int]LineCoverage),
	}
}

// Method returns the registry method the record refers to.
func (c *MethodCoverage) Method() *structure.Method {
	return c.method
}

// FullName is a shorthand for Method().FullName().
func (c *MethodCoverage) FullName() string {
	return c.method.FullName()
}

// Put sets the coverage of one line, replacing any previous value.
func (c *MethodCoverage) Put(lc LineCoverage) {
	c.lines[lc.line.Number] = lc
}

// LineCoverage returns the coverage of a line.
func (c *MethodCoverage) LineCoverage(number int) (LineCoverage, bool) {
	lc, ok := c.lines[number]
	return lc, ok
}

// IsLineCovered reports whether the line is in the covered set.
func (c *MethodCoverage) IsLineCovered(number int) bool {
	_, ok := c.lines[number]
	return ok
}

// LineNumbersCovered returns the covered line numbers in ascending order.
func (c *MethodCoverage) LineNumbersCovered() []int {
	numbers := make([]int, 0, len(c.lines))
	for n := range c.lines {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// Lines returns the covered lines ordered by number.
func (c *MethodCoverage) Lines() []LineCoverage {
	result := make([]LineCoverage, 0, len(c.lines))
	for _, n := range c.LineNumbersCovered() {
		result = append(result, c.lines[n])
	}
	return result
}

// NumberOfLinesCovered returns the size of the covered set.
func (c *MethodCoverage) NumberOfLinesCovered() int {
	return len(c.lines)
}

// InstructionsCovered sums covered instructions over all lines.
func (c *MethodCoverage) InstructionsCovered() int {
	total := 0
	for _, lc := range c.lines {
		total += lc.instructionsCovered
	}
	return total
}

// BranchesCovered sums covered branches over all lines.
func (c *MethodCoverage) BranchesCovered() int {
	total := 0
	for _, lc := range c.lines {
		total += lc.branchesCovered
	}
	return total
}

// Clone returns an independent copy of the record.
func (c *MethodCoverage) Clone() *MethodCoverage {
	clone := NewMethodCoverage(c.method)
	for n, lc := range c.lines {
		clone.lines[n] = lc
	}
	return clone
}

// AddLinesCovered unions other into c. For a line present in both, the
// one with more covered instructions wins; on a tie c keeps its own.
func (c *MethodCoverage) AddLinesCovered(other *MethodCoverage) {
	for n, lc := range other.lines {
		if own, ok := c.lines[n]; ok && own.instructionsCovered >= lc.instructionsCovered {
			continue
		}
		c.lines[n] = lc
	}
}

// RemoveLinesCovered drops every line other covers, whatever its counts.
func (c *MethodCoverage) RemoveLinesCovered(other *MethodCoverage) {
	for n := range other.lines {
		delete(c.lines, n)
	}
}

// RetainLinesCovered keeps only lines other covers as well. For a line
// present in both, the one with fewer covered instructions wins; on a tie
// c keeps its own.
func (c *MethodCoverage) RetainLinesCovered(other *MethodCoverage) {
	for n, own := range c.lines {
		lc, ok := other.lines[n]
		if !ok {
			delete(c.lines, n)
			continue
		}
		if lc.instructionsCovered < own.instructionsCovered {
			c.lines[n] = lc
		}
	}
}
