package report

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/renameio/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/zjy-dev/covalgebra/internal/coverage"
	"github.com/zjy-dev/covalgebra/internal/logger"
	"github.com/zjy-dev/covalgebra/internal/structure"
)

// ErrMalformedReport is the cause of every decode failure that is due to
// the document itself rather than to I/O.
var ErrMalformedReport = errors.New("malformed coverage report")

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New()
)

// The persisted document mirrors the object tree. Pointer fields let
// validation tell a missing field from a zero value.

type reportDoc struct {
	Packages []packageDoc `json:"packages" validate:"required,dive"`
	Sessions []sessionDoc `json:"sessions" validate:"required,dive"`
}

type packageDoc struct {
	Name    *string    `json:"name" validate:"required"`
	Classes []classDoc `json:"classes" validate:"required,dive"`
}

type classDoc struct {
	Name    *string     `json:"name" validate:"required"`
	Methods []methodDoc `json:"methods" validate:"required,dive"`
}

type methodDoc struct {
	Signature  *string   `json:"signature" validate:"required"`
	Complexity *int      `json:"complexity" validate:"required"`
	Lines      []lineDoc `json:"lines" validate:"required,dive"`
}

type lineDoc struct {
	LineNumber   *int `json:"lineNumber" validate:"required"`
	Instructions *int `json:"instructions" validate:"required"`
	Branches     *int `json:"branches" validate:"required"`
}

type sessionDoc struct {
	ID       *string             `json:"id" validate:"required"`
	Coverage []methodCoverageDoc `json:"coverage" validate:"required,dive"`
}

type methodCoverageDoc struct {
	Method   *string           `json:"method" validate:"required"`
	Coverage []lineCoverageDoc `json:"coverage" validate:"required,dive"`
}

type lineCoverageDoc struct {
	LineNumber          *int `json:"lineNumber" validate:"required"`
	InstructionsCovered *int `json:"instructionsCovered" validate:"required"`
	BranchesCovered     *int `json:"branchesCovered" validate:"required"`
}

func ptr[T any](v T) *T {
	return &v
}

// Encode writes r as a JSON document. indent > 0 pretty-prints with that
// many spaces per level.
func Encode(w io.Writer, r *Report, indent int) error {
	doc := toDoc(r)

	var (
		data []byte
		err  error
	)
	if indent > 0 {
		data, err = json.MarshalIndent(doc, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal report")
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return nil
}

// Export writes r to path. The file is replaced atomically, so a failed
// export never leaves a truncated document behind.
func Export(path string, r *Report, indent int) error {
	var buf bytes.Buffer
	if err := Encode(&buf, r, indent); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "failed to write report file %s", path)
	}
	return nil
}

// Import reads a report previously written by Export.
func Import(path string, opts ...Option) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open report file %s", path)
	}
	defer f.Close()

	r, err := Decode(f, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to import %s", path)
	}
	return r, nil
}

// Decode reads a JSON document and rebuilds the report.
//
// The structure is rebuilt completely before any session, because coverage
// entries refer to methods by full name. Entries naming a method or line
// the structure does not know are dropped with a warning. Anything wrong
// with the document itself fails the whole decode.
func Decode(rd io.Reader, opts ...Option) (*Report, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read report")
	}

	var doc reportDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(ErrMalformedReport, "invalid JSON: %v", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, errors.Wrapf(ErrMalformedReport, "%v", err)
	}

	reg, err := decodeStructure(doc.Packages)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedReport, "%v", err)
	}

	r := New(reg, opts...)
	for _, sd := range doc.Sessions {
		s, err := decodeSession(sd, reg)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedReport, "%v", err)
		}
		r.AddSession(s)
	}
	return r, nil
}

func decodeStructure(packages []packageDoc) (*structure.Registry, error) {
	reg := structure.NewRegistry()
	for _, pd := range packages {
		if _, err := reg.AddPackage(*pd.Name); err != nil {
			return nil, err
		}
		for _, cd := range pd.Classes {
			c, err := reg.AddClass(*pd.Name, *cd.Name)
			if err != nil {
				return nil, err
			}
			for _, md := range cd.Methods {
				m, err := reg.AddMethod(c.FullName(), *md.Signature, *md.Complexity)
				if err != nil {
					return nil, err
				}
				for _, ld := range md.Lines {
					if _, err := reg.AddLineTo(m, *ld.LineNumber, *ld.Instructions, *ld.Branches); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return reg, nil
}

func decodeSession(sd sessionDoc, reg *structure.Registry) (*coverage.Session, error) {
	log := logger.WithComponent("report")
	s := coverage.NewSession(*sd.ID)

	for _, cd := range sd.Coverage {
		m, ok := reg.MethodByFullName(*cd.Method)
		if !ok {
			log.Warnf("session %s: could not find method %s, dropping its coverage", *sd.ID, *cd.Method)
			continue
		}
		mc := coverage.NewMethodCoverage(m)
		for _, ld := range cd.Coverage {
			line, ok := m.Line(*ld.LineNumber)
			if !ok {
				log.Warnf("session %s: no line %d in %s, dropping it", *sd.ID, *ld.LineNumber, m.FullName())
				continue
			}
			lc, err := coverage.NewLineCoverage(line, *ld.InstructionsCovered, *ld.BranchesCovered)
			if err != nil {
				return nil, errors.Wrapf(err, "session %s", *sd.ID)
			}
			if lc.InstructionsCovered() == 0 {
				log.Warnf("session %s: line %s covers no instructions, dropping it", *sd.ID, line.Identifier())
				continue
			}
			mc.Put(lc)
		}
		s.AddCoverage(mc)
	}
	return s, nil
}

func toDoc(r *Report) reportDoc {
	doc := reportDoc{
		Packages: make([]packageDoc, 0, r.registry.NumberOfPackages()),
		Sessions: make([]sessionDoc, 0, r.NumberOfSessions()),
	}

	for _, p := range r.registry.Packages() {
		pd := packageDoc{Name: ptr(p.Name()), Classes: []classDoc{}}
		for _, c := range p.Classes() {
			cd := classDoc{Name: ptr(c.Name()), Methods: []methodDoc{}}
			for _, m := range c.Methods() {
				md := methodDoc{
					Signature:  ptr(m.Signature()),
					Complexity: ptr(m.Complexity()),
					Lines:      []lineDoc{},
				}
				for _, l := range m.Lines() {
					md.Lines = append(md.Lines, lineDoc{
						LineNumber:   ptr(l.Number),
						Instructions: ptr(l.Instructions),
						Branches:     ptr(l.Branches),
					})
				}
				cd.Methods = append(cd.Methods, md)
			}
			pd.Classes = append(pd.Classes, cd)
		}
		doc.Packages = append(doc.Packages, pd)
	}

	for _, s := range r.Sessions() {
		sd := sessionDoc{ID: ptr(s.ID()), Coverage: []methodCoverageDoc{}}
		for _, name := range s.Methods() {
			mc, _ := s.Coverage(name)
			cd := methodCoverageDoc{Method: ptr(name), Coverage: []lineCoverageDoc{}}
			for _, lc := range mc.Lines() {
				cd.Coverage = append(cd.Coverage, lineCoverageDoc{
					LineNumber:          ptr(lc.Line().Number),
					InstructionsCovered: ptr(lc.InstructionsCovered()),
					BranchesCovered:     ptr(lc.BranchesCovered()),
				})
			}
			sd.Coverage = append(sd.Coverage, cd)
		}
		doc.Sessions = append(doc.Sessions, sd)
	}
	return doc
}
