package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/covalgebra/internal/logger"
	"github.com/zjy-dev/covalgebra/internal/structure"
)

// structureOf flattens a registry into method full name -> line -> totals.
func structureOf(reg *structure.Registry) map[string]map[int][2]int {
	result := make(map[string]map[int][2]int)
	for _, p := range reg.Packages() {
		for _, c := range p.Classes() {
			for _, m := range c.Methods() {
				lines := make(map[int][2]int)
				for _, l := range m.Lines() {
					lines[l.Number] = [2]int{l.Instructions, l.Branches}
				}
				result[m.FullName()] = lines
			}
		}
	}
	return result
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, indent := range []int{0, 2} {
		original := scenarioReport(t)

		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, original, indent))

		decoded, err := Decode(&buf)
		require.NoError(t, err)

		if diff := cmp.Diff(structureOf(original.Registry()), structureOf(decoded.Registry())); diff != "" {
			t.Errorf("structure changed (-want +got):\n%s", diff)
		}
		require.Equal(t, original.SessionIDs(), decoded.SessionIDs())
		for _, s := range original.Sessions() {
			got, ok := decoded.Session(s.ID())
			require.True(t, ok)
			assert.Equal(t, covered(s), covered(got))
			assert.Equal(t, s.BranchesCovered(), got.BranchesCovered())
		}
	}
}

func TestCodec_EncodeIsDeterministic(t *testing.T) {
	r := scenarioReport(t)

	var first, second bytes.Buffer
	require.NoError(t, Encode(&first, r, 0))
	require.NoError(t, Encode(&second, r, 0))
	assert.Equal(t, first.String(), second.String())
}

func TestCodec_Schema(t *testing.T) {
	r := scenarioReport(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, 0))

	out := buf.String()
	for _, key := range []string{
		`"packages"`, `"sessions"`, `"classes"`, `"methods"`, `"signature":"m()"`,
		`"complexity":2`, `"lines"`, `"lineNumber":10`, `"instructions":2`, `"branches":0`,
		`"id":"A"`, `"coverage"`, `"method":"P.C.m()"`, `"instructionsCovered":1`, `"branchesCovered":0`,
	} {
		assert.Contains(t, out, key)
	}
}

func TestCodec_DecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"packages": [`},
		{"empty object", `{}`},
		{"missing sessions", `{"packages": []}`},
		{"wrong type", `{"packages": "P", "sessions": []}`},
		{"missing package name", `{"packages": [{"classes": []}], "sessions": []}`},
		{"missing complexity", `{"packages": [{"name": "P", "classes": [{"name": "C", "methods": [
			{"signature": "m()", "lines": []}]}]}], "sessions": []}`},
		{"missing line branches", `{"packages": [{"name": "P", "classes": [{"name": "C", "methods": [
			{"signature": "m()", "complexity": 1, "lines": [{"lineNumber": 1, "instructions": 1}]}]}]}], "sessions": []}`},
		{"duplicate package", `{"packages": [{"name": "P", "classes": []}, {"name": "P", "classes": []}], "sessions": []}`},
		{"missing session id", `{"packages": [], "sessions": [{"coverage": []}]}`},
		{"covered exceeds total", `{"packages": [{"name": "P", "classes": [{"name": "C", "methods": [
			{"signature": "m()", "complexity": 1, "lines": [{"lineNumber": 1, "instructions": 1, "branches": 0}]}]}]}],
			"sessions": [{"id": "s", "coverage": [{"method": "P.C.m()", "coverage": [
			{"lineNumber": 1, "instructionsCovered": 5, "branchesCovered": 0}]}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Decode(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrMalformedReport)
			assert.Nil(t, r)
		})
	}
}

func TestCodec_DecodeDropsStaleEntries(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	logger.SetColorEnable(false)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	doc := `{
	  "packages": [{"name": "P", "classes": [{"name": "C", "methods": [
	    {"signature": "m()", "complexity": 1, "lines": [
	      {"lineNumber": 1, "instructions": 2, "branches": 0},
	      {"lineNumber": 2, "instructions": 2, "branches": 0}]}]}]}],
	  "sessions": [{"id": "s", "coverage": [
	    {"method": "P.C.gone()", "coverage": [{"lineNumber": 1, "instructionsCovered": 1, "branchesCovered": 0}]},
	    {"method": "P.C.m()", "coverage": [
	      {"lineNumber": 1, "instructionsCovered": 2, "branchesCovered": 0},
	      {"lineNumber": 99, "instructionsCovered": 1, "branchesCovered": 0}]}]}]
	}`

	r, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	s, ok := r.Session("s")
	require.True(t, ok)
	assert.Equal(t, []string{"P.C.m()"}, s.Methods())
	assert.Equal(t, map[string]hit{"P.C.m()": {1: 2}}, covered(s))
	assert.Contains(t, logs.String(), "could not find method P.C.gone()")
	assert.Contains(t, logs.String(), "no line 99")
}

func TestCodec_DecodeDropsLinesWithoutCoveredInstructions(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	logger.SetColorEnable(false)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	doc := `{"packages": [{"name": "P", "classes": [{"name": "C", "methods": [
		{"signature": "m()", "complexity": 1, "lines": [
			{"lineNumber": 10, "instructions": 2, "branches": 1},
			{"lineNumber": 11, "instructions": 2, "branches": 0}]}]}]}],
		"sessions": [
			{"id": "s", "coverage": [{"method": "P.C.m()", "coverage": [
				{"lineNumber": 10, "instructionsCovered": 0, "branchesCovered": 1},
				{"lineNumber": 11, "instructionsCovered": 2, "branchesCovered": 0}]}]},
			{"id": "t", "coverage": [{"method": "P.C.m()", "coverage": [
				{"lineNumber": 10, "instructionsCovered": 0, "branchesCovered": 0}]}]}]}`

	r, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	s, _ := r.Session("s")
	assert.Equal(t, map[string]hit{"P.C.m()": {11: 2}}, covered(s))
	m, ok := r.MethodByFullName("P.C.m()")
	require.True(t, ok)
	line, _ := m.Line(10)
	assert.False(t, s.CoversLine(line))

	empty, ok := r.Session("t")
	require.True(t, ok)
	assert.True(t, empty.IsEmpty(), "a method whose lines all cover nothing is dropped")
	assert.Contains(t, logs.String(), "line P.C.m():10 covers no instructions")
}

func TestCodec_DecodeSkipsMethodsWithoutLines(t *testing.T) {
	doc := `{"packages": [{"name": "P", "classes": [{"name": "C", "methods": [
		{"signature": "m()", "complexity": 1, "lines": [{"lineNumber": 1, "instructions": 1, "branches": 0}]}]}]}],
		"sessions": [{"id": "s", "coverage": [{"method": "P.C.m()", "coverage": []}]}]}`

	r, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	s, _ := r.Session("s")
	assert.True(t, s.IsEmpty())
}

func TestCodec_ExportImport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.json")
	original := scenarioReport(t)

	require.NoError(t, Export(path, original, 2))

	imported, err := Import(path, WithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, original.SessionIDs(), imported.SessionIDs())
	assert.Equal(t, covered(original.Union()), covered(imported.Union()))

	// no temp files are left next to the report
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCodec_ImportMissingFile(t *testing.T) {
	_, err := Import(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedReport)
	assert.Contains(t, err.Error(), "failed to open report file")
}

func TestCodec_ImportMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"packages": 1}`), 0644))

	_, err := Import(path)
	assert.ErrorIs(t, err, ErrMalformedReport)
}

func TestCodec_ExportFailureKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0644))

	// a directory in place of the target makes the rename fail
	target := filepath.Join(dir, "occupied")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0755))
	err := Export(target, scenarioReport(t), 0)
	assert.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}
