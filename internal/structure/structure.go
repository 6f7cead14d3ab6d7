package structure

import (
	"fmt"
	"sort"
	"strings"
)

// Line is a single source line of a method as seen by the analyzer.
// It carries the static instruction and branch totals of a build, never
// the counts observed in a run.
type Line struct {
	Number       int
	Method       string // full name of the owning method
	Instructions int
	Branches     int
}

// Identifier returns the method full name and line number, e.g. "p.C.m():10".
func (l Line) Identifier() string {
	return fmt.Sprintf("%s:%d", l.Method, l.Number)
}

// Package is a named group of classes.
type Package struct {
	name       string
	classes    map[string]*Class // by class full name
	classOrder []string
}

func newPackage(name string) *Package {
	return &Package{
		name:    name,
		classes: make(map[string]*Class),
	}
}

// Name returns the package name.
func (p *Package) Name() string {
	return p.name
}

// Classes returns the classes of the package in insertion order.
func (p *Package) Classes() []*Class {
	result := make([]*Class, 0, len(p.classOrder))
	for _, key := range p.classOrder {
		result = append(result, p.classes[key])
	}
	return result
}

// NumberOfClasses returns how many classes the package owns.
func (p *Package) NumberOfClasses() int {
	return len(p.classOrder)
}

// methodByFullName narrows to the classes whose full name prefixes name.
func (p *Package) methodByFullName(name string) (*Method, bool) {
	for _, key := range p.classOrder {
		if !strings.HasPrefix(name, key+".") {
			continue
		}
		if m, ok := p.classes[key].methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Class belongs to exactly one package.
type Class struct {
	name        string
	pkg         string
	methods     map[string]*Method // by method full name
	methodOrder []string
}

// Name returns the simple class name.
func (c *Class) Name() string {
	return c.name
}

// Package returns the name of the owning package.
func (c *Class) Package() string {
	return c.pkg
}

// FullName returns "package.name".
func (c *Class) FullName() string {
	return c.pkg + "." + c.name
}

// Methods returns the methods of the class in insertion order.
func (c *Class) Methods() []*Method {
	result := make([]*Method, 0, len(c.methodOrder))
	for _, key := range c.methodOrder {
		result = append(result, c.methods[key])
	}
	return result
}

// Method returns the method with the given full name.
func (c *Class) Method(fullName string) (*Method, bool) {
	m, ok := c.methods[fullName]
	return m, ok
}

// Method is a method signature inside a class together with its lines.
type Method struct {
	signature  string
	class      string // full name of the owning class
	complexity int
	lines      map[int]Line
}

// Signature returns the method signature, e.g. "m(int, String)".
func (m *Method) Signature() string {
	return m.signature
}

// Class returns the full name of the owning class.
func (m *Method) Class() string {
	return m.class
}

// Complexity returns the cyclomatic complexity reported by the analyzer.
func (m *Method) Complexity() int {
	return m.complexity
}

// FullName returns "package.class.signature".
func (m *Method) FullName() string {
	return m.class + "." + m.signature
}

// Name returns the bare method name, i.e. the signature up to "(".
func (m *Method) Name() string {
	name, _, _ := strings.Cut(m.signature, "(")
	return strings.TrimSpace(name)
}

// Line returns the line with the given number.
func (m *Method) Line(number int) (Line, bool) {
	l, ok := m.lines[number]
	return l, ok
}

// LineNumbers returns the line numbers of the method in ascending order.
func (m *Method) LineNumbers() []int {
	numbers := make([]int, 0, len(m.lines))
	for n := range m.lines {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// Lines returns the lines of the method ordered by number.
func (m *Method) Lines() []Line {
	result := make([]Line, 0, len(m.lines))
	for _, n := range m.LineNumbers() {
		result = append(result, m.lines[n])
	}
	return result
}

// NumberOfLines returns how many lines the method spans.
func (m *Method) NumberOfLines() int {
	return len(m.lines)
}

// Instructions returns the total instruction count over all lines.
func (m *Method) Instructions() int {
	total := 0
	for _, l := range m.lines {
		total += l.Instructions
	}
	return total
}

// Branches returns the total branch count over all lines.
func (m *Method) Branches() int {
	total := 0
	for _, l := range m.lines {
		total += l.Branches
	}
	return total
}
