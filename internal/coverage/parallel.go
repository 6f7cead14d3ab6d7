package coverage

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Op is one of the three session verbs.
type Op int

const (
	OpAdd Op = iota
	OpRemove
	OpRetain
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpRetain:
		return "retain"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Apply runs op with other as operand, fanning the per-method work out to
// at most workers goroutines. The result equals Add, Remove or Retain.
//
// The method map of s is only changed in the single-threaded prepare and
// purge steps; each goroutine owns exactly one method record.
func (s *Session) Apply(ctx context.Context, op Op, other *Session, workers int) error {
	if workers <= 1 {
		switch op {
		case OpAdd:
			s.Add(other)
		case OpRemove:
			s.Remove(other)
		case OpRetain:
			s.Retain(other)
		default:
			return errors.Errorf("unknown session operation %v", op)
		}
		return ctx.Err()
	}

	var tasks []func()
	switch op {
	case OpAdd:
		for name, mc := range other.coverage {
			own, ok := s.coverage[name]
			if !ok {
				own = NewMethodCoverage(mc.method)
				s.coverage[name] = own
			}
			tasks = append(tasks, func() { own.AddLinesCovered(mc) })
		}
	case OpRemove:
		for name, mc := range other.coverage {
			if own, ok := s.coverage[name]; ok {
				tasks = append(tasks, func() { own.RemoveLinesCovered(mc) })
			}
		}
	case OpRetain:
		for name, own := range s.coverage {
			if mc, ok := other.coverage[name]; ok {
				tasks = append(tasks, func() { own.RetainLinesCovered(mc) })
			}
		}
	default:
		return errors.Errorf("unknown session operation %v", op)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			task()
			return nil
		})
	}
	err := g.Wait()
	// a canceled run leaves a partial result, but never empty entries
	s.purge(op, other)
	return err
}

// purge drops method entries left empty, and for retain the entries other
// does not cover.
func (s *Session) purge(op Op, other *Session) {
	for name, own := range s.coverage {
		if op == OpRetain {
			if _, ok := other.coverage[name]; !ok {
				delete(s.coverage, name)
				continue
			}
		}
		if own.NumberOfLinesCovered() == 0 {
			delete(s.coverage, name)
		}
	}
}
