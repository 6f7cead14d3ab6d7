package ingest

import (
	"github.com/pkg/errors"

	"github.com/zjy-dev/covalgebra/internal/coverage"
	"github.com/zjy-dev/covalgebra/internal/logger"
	"github.com/zjy-dev/covalgebra/internal/report"
	"github.com/zjy-dev/covalgebra/internal/structure"
)

// Build creates a report from an analyzer. The registry is populated once
// from the bundles; afterwards every session except NoTestSession is
// resolved against it. Stale execution data is logged and dropped.
func Build(a Analyzer, f *Filter, opts ...report.Option) (*report.Report, error) {
	bundles, err := a.Bundles()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read bundles")
	}
	reg, skipped, err := buildStructure(bundles, f)
	if err != nil {
		return nil, err
	}

	sessions, err := a.Sessions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read sessions")
	}

	r := report.New(reg, opts...)
	log := logger.WithComponent("ingest")
	for _, sd := range sessions {
		if sd.ID == NoTestSession {
			log.Debugf("skipping pseudo-session %s", sd.ID)
			continue
		}
		s := buildSession(sd, reg, skipped)
		if existing, ok := r.Session(sd.ID); ok {
			existing.Add(s)
			continue
		}
		r.AddSession(s)
	}
	log.Infof("built report: %d packages, %d methods, %d sessions",
		reg.NumberOfPackages(), reg.NumberOfMethods(), r.NumberOfSessions())
	return r, nil
}

// buildStructure returns the registry and the full names of the methods
// left out by the filter.
func buildStructure(bundles []Bundle, f *Filter) (*structure.Registry, map[string]bool, error) {
	log := logger.WithComponent("ingest")
	reg := structure.NewRegistry()
	skipped := make(map[string]bool)

	for _, b := range bundles {
		if !b.Container.Analyzable() {
			log.Warnf("skipping %s: unsupported container %q", b.Path, b.Container)
			continue
		}
		filtered := !f.IsEmpty()
		if filtered && !b.Container.SupportsFilters() {
			log.Warnf("filters are not supported for %s containers, analyzing %s unfiltered", b.Container, b.Path)
			filtered = false
		}

		for _, cr := range b.Classes {
			if filtered && !f.IncludesClass(cr.Path()) {
				for _, mr := range cr.Methods {
					skipped[cr.FullName()+"."+mr.Signature] = true
				}
				continue
			}
			if err := addClass(reg, cr); err != nil {
				if errors.Is(err, structure.ErrDuplicate) {
					log.Warnf("%s: %v", b.Path, err)
					continue
				}
				return nil, nil, errors.Wrapf(err, "bundle %s", b.Path)
			}
		}
	}
	return reg, skipped, nil
}

func addClass(reg *structure.Registry, cr ClassRecord) error {
	pkg := reg.EnsurePackage(cr.Package)
	c, err := reg.AddClass(pkg.Name(), cr.Name)
	if err != nil {
		return err
	}
	for _, mr := range cr.Methods {
		m, err := reg.AddMethod(c.FullName(), mr.Signature, mr.Complexity)
		if err != nil {
			return err
		}
		for _, lt := range mr.Lines {
			// Lines without instructions carry no probes.
			if lt.Instructions == 0 {
				continue
			}
			if _, err := reg.AddLineTo(m, lt.Number, lt.Instructions, lt.Branches); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildSession(sd SessionData, reg *structure.Registry, skipped map[string]bool) *coverage.Session {
	log := logger.WithComponent("ingest")
	s := coverage.NewSession(sd.ID)

	for _, mh := range sd.Coverage {
		if skipped[mh.Method] {
			continue
		}
		m, ok := reg.MethodByFullName(mh.Method)
		if !ok {
			log.Warnf("session %s: could not find method %s, dropping its coverage", sd.ID, mh.Method)
			continue
		}
		mc := coverage.NewMethodCoverage(m)
		for _, lh := range mh.Lines {
			if lh.InstructionsCovered == 0 {
				continue
			}
			line, ok := m.Line(lh.Number)
			if !ok {
				log.Warnf("session %s: no line for coverage in %s:%d", sd.ID, m.FullName(), lh.Number)
				continue
			}
			lc, err := coverage.NewLineCoverage(line, lh.InstructionsCovered, lh.BranchesCovered)
			if err != nil {
				log.Warnf("session %s: dropping %s: %v", sd.ID, line.Identifier(), err)
				continue
			}
			mc.Put(lc)
		}
		s.AddCoverage(mc)
	}
	return s
}
