package report

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/zjy-dev/covalgebra/internal/coverage"
	"github.com/zjy-dev/covalgebra/internal/structure"
)

// ErrUnknownSession is returned when a session ID is not part of the report.
var ErrUnknownSession = errors.New("unknown session")

// Report aggregates the sessions of one analysis run over a shared,
// read-only structure registry. Sessions keep their insertion order.
type Report struct {
	registry *structure.Registry
	sessions map[string]*coverage.Session
	order    []string
	workers  int
}

// Option configures a Report.
type Option func(*Report)

// WithWorkers fans per-method algebra out to n goroutines when n > 1.
func WithWorkers(n int) Option {
	return func(r *Report) {
		r.workers = n
	}
}

// New creates a report without sessions.
func New(reg *structure.Registry, opts ...Option) *Report {
	r := &Report{
		registry: reg,
		sessions: make(map[string]*coverage.Session),
		workers:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the structure the sessions refer to.
func (r *Report) Registry() *structure.Registry {
	return r.registry
}

// Packages returns the packages of the registry.
func (r *Report) Packages() []*structure.Package {
	return r.registry.Packages()
}

// MethodByFullName looks a method up in the registry.
func (r *Report) MethodByFullName(name string) (*structure.Method, bool) {
	return r.registry.MethodByFullName(name)
}

// AddSession adds s, replacing a session with the same ID in place.
func (r *Report) AddSession(s *coverage.Session) {
	if _, ok := r.sessions[s.ID()]; !ok {
		r.order = append(r.order, s.ID())
	}
	r.sessions[s.ID()] = s
}

// Session returns the session with the given ID.
func (r *Report) Session(id string) (*coverage.Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// Sessions returns all sessions in insertion order.
func (r *Report) Sessions() []*coverage.Session {
	result := make([]*coverage.Session, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.sessions[id])
	}
	return result
}

// SessionIDs returns the session IDs in insertion order.
func (r *Report) SessionIDs() []string {
	return append([]string(nil), r.order...)
}

// SessionsByID returns the sessions with the given IDs, in the order given.
// Unknown and repeated IDs are skipped.
func (r *Report) SessionsByID(ids []string) []*coverage.Session {
	return lo.FilterMap(lo.Uniq(ids), func(id string, _ int) (*coverage.Session, bool) {
		s, ok := r.sessions[id]
		return s, ok
	})
}

// NumberOfSessions returns how many sessions the report holds.
func (r *Report) NumberOfSessions() int {
	return len(r.order)
}

// Union is the coverage of all sessions in the report.
func (r *Report) Union() *coverage.Session {
	return r.union(r.Sessions())
}

// Intersection is the coverage all sessions in the report have in common.
func (r *Report) Intersection() *coverage.Session {
	return r.intersection(r.Sessions())
}

// UnionOf is the coverage of the given sessions.
func (r *Report) UnionOf(sessions []*coverage.Session) *coverage.Session {
	return r.union(sessions)
}

// IntersectionOf is the coverage the given sessions have in common.
func (r *Report) IntersectionOf(sessions []*coverage.Session) *coverage.Session {
	return r.intersection(sessions)
}

// UniqueContribution is the coverage of s that no other session of the
// report has.
func (r *Report) UniqueContribution(s *coverage.Session) *coverage.Session {
	unique := coverage.NewSession("unique " + s.ID())
	r.apply(unique, coverage.OpAdd, s)
	r.subtractOthers(unique, map[string]bool{s.ID(): true})
	return unique
}

// UniqueContributionOfGroup is the coverage of the group's union that no
// session outside the group has.
func (r *Report) UniqueContributionOfGroup(group []*coverage.Session) *coverage.Session {
	unique := r.union(group)
	members := lo.SliceToMap(group, func(s *coverage.Session) (string, bool) {
		return s.ID(), true
	})
	r.subtractOthers(unique, members)
	return unique
}

// Diff compares two sessions of the report by ID.
func (r *Report) Diff(idA, idB string) (*coverage.SessionDiff, error) {
	a, ok := r.sessions[idA]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSession, "%q", idA)
	}
	b, ok := r.sessions[idB]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSession, "%q", idB)
	}
	return coverage.Diff(a, b), nil
}

func (r *Report) subtractOthers(unique *coverage.Session, members map[string]bool) {
	for _, id := range r.order {
		if members[id] {
			continue
		}
		if unique.IsEmpty() {
			return
		}
		r.apply(unique, coverage.OpRemove, r.sessions[id])
	}
}

func (r *Report) union(sessions []*coverage.Session) *coverage.Session {
	result := coverage.NewSession(coverage.SyntheticID("union"))
	for _, s := range sessions {
		r.apply(result, coverage.OpAdd, s)
	}
	return result
}

// intersection seeds with the first session, since retaining against an
// empty start would always be empty, and stops once nothing is left.
func (r *Report) intersection(sessions []*coverage.Session) *coverage.Session {
	result := coverage.NewSession(coverage.SyntheticID("intersection"))
	for i, s := range sessions {
		if i == 0 {
			r.apply(result, coverage.OpAdd, s)
			continue
		}
		r.apply(result, coverage.OpRetain, s)
		if result.IsEmpty() {
			break
		}
	}
	return result
}

// apply runs op on the report's worker pool. Callers only pass the three
// known ops and the context never ends, so a failure is a programming error.
func (r *Report) apply(target *coverage.Session, op coverage.Op, operand *coverage.Session) {
	if err := target.Apply(context.Background(), op, operand, r.workers); err != nil {
		panic(errors.Wrapf(err, "applying %v to session %s", op, target.ID()))
	}
}
