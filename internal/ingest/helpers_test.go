package ingest

import (
	"bytes"
	"os"
	"testing"

	"github.com/pkg/errors"

	"github.com/zjy-dev/covalgebra/internal/coverage"
	"github.com/zjy-dev/covalgebra/internal/logger"
)

// fakeAnalyzer serves canned analyzer output.
type fakeAnalyzer struct {
	bundles     []Bundle
	sessions    []SessionData
	bundlesErr  error
	sessionsErr error
}

func (f *fakeAnalyzer) Bundles() ([]Bundle, error) {
	return f.bundles, f.bundlesErr
}

func (f *fakeAnalyzer) Sessions() ([]SessionData, error) {
	return f.sessions, f.sessionsErr
}

var errAnalyzer = errors.New("analyzer failed")

// sampleBundles describes com.acme.Foo with two methods and
// com.acme.FooTest with one, all inside one archive.
func sampleBundles(container Container) []Bundle {
	return []Bundle{{
		Path:      "build/libs/app.jar",
		Container: container,
		Classes: []ClassRecord{
			{
				Package: "com.acme",
				Name:    "Foo",
				Methods: []MethodRecord{
					{
						Signature:  "run()",
						Complexity: 2,
						Lines: []LineTotals{
							{Number: 10, Instructions: 4, Branches: 2},
							{Number: 11, Instructions: 3},
							{Number: 12}, // no instructions
						},
					},
					{
						Signature:  "stop(int)",
						Complexity: 1,
						Lines:      []LineTotals{{Number: 20, Instructions: 2}},
					},
				},
			},
			{
				Package: "com.acme",
				Name:    "FooTest",
				Methods: []MethodRecord{
					{
						Signature: "testRun()",
						Lines:     []LineTotals{{Number: 5, Instructions: 6}},
					},
				},
			},
		},
	}}
}

// captureLogs redirects diagnostic output into a buffer for one test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetColorEnable(false)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	return &buf
}

type hit struct {
	instructions int
	branches     int
}

// covered flattens a session into line identifier -> counts.
func covered(s *coverage.Session) map[string]hit {
	out := make(map[string]hit)
	for _, name := range s.Methods() {
		mc, _ := s.Coverage(name)
		for _, lc := range mc.Lines() {
			out[lc.Line().Identifier()] = hit{lc.InstructionsCovered(), lc.BranchesCovered()}
		}
	}
	return out
}
