package structure

import (
	"github.com/pkg/errors"
)

var (
	// ErrDuplicate is returned when a node with the same key already exists.
	ErrDuplicate = errors.New("duplicate structure node")
	// ErrUnknownParent is returned when the owner of a new node is not registered.
	ErrUnknownParent = errors.New("unknown parent node")
	// ErrNegativeTotal is returned for lines with negative instruction or branch totals.
	ErrNegativeTotal = errors.New("negative line total")
)

// Registry is the static package/class/method/line hierarchy of one build.
//
// Nodes are addressed by full name. Children are held by their parents,
// parents are referenced by key only. The registry is append-only: nodes
// are added while ingesting analyzer output or decoding a persisted report
// and never removed. Once populated it is read-only and may be shared by
// any number of goroutines.
type Registry struct {
	packages     map[string]*Package
	packageOrder []string
	classes      map[string]*Class
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		packages: make(map[string]*Package),
		classes:  make(map[string]*Class),
	}
}

// AddPackage registers a new package. Package names are unique.
func (r *Registry) AddPackage(name string) (*Package, error) {
	if _, ok := r.packages[name]; ok {
		return nil, errors.Wrapf(ErrDuplicate, "package %q", name)
	}
	p := newPackage(name)
	r.packages[name] = p
	r.packageOrder = append(r.packageOrder, name)
	return p, nil
}

// EnsurePackage returns the named package, registering it first if needed.
func (r *Registry) EnsurePackage(name string) *Package {
	if p, ok := r.packages[name]; ok {
		return p
	}
	p, _ := r.AddPackage(name)
	return p
}

// AddClass registers a class in an existing package.
func (r *Registry) AddClass(pkg, name string) (*Class, error) {
	p, ok := r.packages[pkg]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownParent, "package %q of class %q", pkg, name)
	}
	c := &Class{
		name:    name,
		pkg:     pkg,
		methods: make(map[string]*Method),
	}
	fullName := c.FullName()
	if _, exists := r.classes[fullName]; exists {
		return nil, errors.Wrapf(ErrDuplicate, "class %q", fullName)
	}
	r.classes[fullName] = c
	p.classes[fullName] = c
	p.classOrder = append(p.classOrder, fullName)
	return c, nil
}

// AddMethod registers a method in an existing class.
func (r *Registry) AddMethod(classFullName, signature string, complexity int) (*Method, error) {
	c, ok := r.classes[classFullName]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownParent, "class %q of method %q", classFullName, signature)
	}
	m := &Method{
		signature:  signature,
		class:      classFullName,
		complexity: complexity,
		lines:      make(map[int]Line),
	}
	fullName := m.FullName()
	if _, exists := c.methods[fullName]; exists {
		return nil, errors.Wrapf(ErrDuplicate, "method %q", fullName)
	}
	c.methods[fullName] = m
	c.methodOrder = append(c.methodOrder, fullName)
	return m, nil
}

// AddLine registers a line with its static totals in an existing method.
func (r *Registry) AddLine(methodFullName string, number, instructions, branches int) (Line, error) {
	m, ok := r.MethodByFullName(methodFullName)
	if !ok {
		return Line{}, errors.Wrapf(ErrUnknownParent, "method %q of line %d", methodFullName, number)
	}
	return addLine(m, number, instructions, branches)
}

// AddLineTo registers a line in a method obtained from this registry.
// It skips the full-name lookup of AddLine.
func (r *Registry) AddLineTo(m *Method, number, instructions, branches int) (Line, error) {
	if m == nil {
		return Line{}, errors.Wrapf(ErrUnknownParent, "nil method of line %d", number)
	}
	return addLine(m, number, instructions, branches)
}

func addLine(m *Method, number, instructions, branches int) (Line, error) {
	if instructions < 0 || branches < 0 {
		return Line{}, errors.Wrapf(ErrNegativeTotal, "%s:%d", m.FullName(), number)
	}
	if _, exists := m.lines[number]; exists {
		return Line{}, errors.Wrapf(ErrDuplicate, "line %s:%d", m.FullName(), number)
	}
	l := Line{
		Number:       number,
		Method:       m.FullName(),
		Instructions: instructions,
		Branches:     branches,
	}
	m.lines[number] = l
	return l, nil
}

// Package returns the package with the given name.
func (r *Registry) Package(name string) (*Package, bool) {
	p, ok := r.packages[name]
	return p, ok
}

// Packages returns all packages in insertion order.
func (r *Registry) Packages() []*Package {
	result := make([]*Package, 0, len(r.packageOrder))
	for _, name := range r.packageOrder {
		result = append(result, r.packages[name])
	}
	return result
}

// Class returns the class with the given full name.
func (r *Registry) Class(fullName string) (*Class, bool) {
	c, ok := r.classes[fullName]
	return c, ok
}

// NumberOfPackages returns the number of registered packages.
func (r *Registry) NumberOfPackages() int {
	return len(r.packageOrder)
}

// NumberOfMethods returns the number of registered methods.
func (r *Registry) NumberOfMethods() int {
	total := 0
	for _, c := range r.classes {
		total += len(c.methodOrder)
	}
	return total
}

// MethodByFullName finds a method by its full name.
//
// The lookup narrows by prefix: packages whose name prefixes the method
// name, then classes of those packages whose full name prefixes it, then an
// exact match. A miss is reported through the boolean; callers decide
// whether a stale name is worth a warning.
func (r *Registry) MethodByFullName(name string) (*Method, bool) {
	for _, pkgName := range r.packageOrder {
		if !hasSegmentPrefix(name, pkgName) {
			continue
		}
		if m, ok := r.packages[pkgName].methodByFullName(name); ok {
			return m, true
		}
	}
	return nil, false
}

func hasSegmentPrefix(name, prefix string) bool {
	return len(name) > len(prefix) && name[:len(prefix)] == prefix && name[len(prefix)] == '.'
}
