// Package ingest turns the output of an external bytecode analyzer into a
// coverage report: the merged structural view populates the registry once,
// then every named session is resolved against it.
package ingest

import (
	"strings"

	"github.com/pkg/errors"
)

// NoTestSession is the pseudo-session collecting probes recorded outside
// any test. It contributes to the structure but never becomes a session.
const NoTestSession = "No-Test"

// ErrMalformedDump is the cause of every analysis dump that fails to decode
// or validate.
var ErrMalformedDump = errors.New("malformed analysis dump")

// Analyzer is the ingestion interface of the external analyzer.
type Analyzer interface {
	// Bundles returns the merged structural view, grouped by the binary
	// source each class was read from.
	Bundles() ([]Bundle, error)
	// Sessions returns the per-session execution data in recording order.
	Sessions() ([]SessionData, error)
}

// Bundle is one binary source: a class file, an archive or a compressed
// container.
type Bundle struct {
	Path      string        `json:"path" validate:"required"`
	Container Container     `json:"container,omitempty"`
	Classes   []ClassRecord `json:"classes" validate:"dive"`
}

// ClassRecord is a class with its methods. Package is dotted and empty for
// the default package.
type ClassRecord struct {
	Package string         `json:"package"`
	Name    string         `json:"name" validate:"required"`
	Methods []MethodRecord `json:"methods" validate:"dive"`
}

// Path returns the slash-separated class path, e.g. "com/acme/Foo".
func (c ClassRecord) Path() string {
	if c.Package == "" {
		return c.Name
	}
	return strings.ReplaceAll(c.Package, ".", "/") + "/" + c.Name
}

// FullName returns "package.Class".
func (c ClassRecord) FullName() string {
	return c.Package + "." + c.Name
}

// MethodRecord carries a method's static totals.
type MethodRecord struct {
	Signature  string       `json:"signature" validate:"required"`
	Complexity int          `json:"complexity" validate:"gte=0"`
	Lines      []LineTotals `json:"lines" validate:"dive"`
}

// LineTotals is the static instruction and branch count of one line.
type LineTotals struct {
	Number       int `json:"lineNumber" validate:"gte=0"`
	Instructions int `json:"instructions" validate:"gte=0"`
	Branches     int `json:"branches" validate:"gte=0"`
}

// SessionData is the execution data of one named session.
type SessionData struct {
	ID       string       `json:"id" validate:"required"`
	Coverage []MethodHits `json:"coverage" validate:"dive"`
}

// MethodHits is the per-line execution data of one method, addressed by
// the method's full name.
type MethodHits struct {
	Method string     `json:"method" validate:"required"`
	Lines  []LineHits `json:"lines" validate:"dive"`
}

// LineHits is the covered instruction and branch count of one line.
type LineHits struct {
	Number              int `json:"lineNumber" validate:"gte=0"`
	InstructionsCovered int `json:"instructionsCovered" validate:"gte=0"`
	BranchesCovered     int `json:"branchesCovered" validate:"gte=0"`
}

// OnlyBins restricts an analyzer to the bundles located under one of the
// given paths. With no paths every bundle is kept.
func OnlyBins(a Analyzer, bins []string) Analyzer {
	if len(bins) == 0 {
		return a
	}
	return &binScope{Analyzer: a, bins: bins}
}

type binScope struct {
	Analyzer
	bins []string
}

func (b *binScope) Bundles() ([]Bundle, error) {
	bundles, err := b.Analyzer.Bundles()
	if err != nil {
		return nil, err
	}
	var kept []Bundle
	for _, bundle := range bundles {
		if underAny(bundle.Path, b.bins) {
			kept = append(kept, bundle)
		}
	}
	return kept, nil
}
