package ingest

import (
	"path/filepath"
	"strings"

	"github.com/zjy-dev/gcovr-json-util/v2/pkg/gcovr"

	"github.com/zjy-dev/covalgebra/internal/coverage"
	"github.com/zjy-dev/covalgebra/internal/logger"
	"github.com/zjy-dev/covalgebra/internal/structure"
)

// ExecutedInput is a line-level execution count view produced by tools
// such as gcovr.
type ExecutedInput struct {
	Files []ExecutedFile
}

// ExecutedFile lists the functions of one source file with their lines.
type ExecutedFile struct {
	FilePath  string
	Functions []ExecutedFunction
}

// ExecutedFunction is one function and the execution count of each of its
// lines, including the lines that never ran.
type ExecutedFunction struct {
	// FunctionName is the raw, possibly mangled, identifier.
	FunctionName string
	// DemangledName is preferred for matching when set.
	DemangledName string
	Lines         []ExecutedLine
}

// ExecutedLine is a source line and how often it ran.
type ExecutedLine struct {
	Number int
	Count  int
}

// Ran reports whether any line of the function executed.
func (fn ExecutedFunction) Ran() bool {
	for _, l := range fn.Lines {
		if l.Count > 0 {
			return true
		}
	}
	return false
}

// ConvertGcovrReport converts a full gcovr JSON report into an
// ExecutedInput. Lines are grouped by the function gcovr attributes them
// to; lines outside any function are ignored. Relative file paths are
// joined to sourceParentPath when it is set.
func ConvertGcovrReport(report *gcovr.GcovrReport, sourceParentPath string) *ExecutedInput {
	if report == nil {
		return &ExecutedInput{Files: []ExecutedFile{}}
	}

	input := &ExecutedInput{
		Files: make([]ExecutedFile, 0, len(report.Files)),
	}
	for _, gf := range report.Files {
		filePath := gf.FilePath
		if sourceParentPath != "" && !filepath.IsAbs(filePath) {
			filePath = filepath.Join(sourceParentPath, filePath)
		}

		demangled := make(map[string]string, len(gf.Functions))
		for _, fn := range gf.Functions {
			demangled[fn.Name] = fn.DemangledName
		}

		file := ExecutedFile{FilePath: filePath}
		index := make(map[string]int)
		for _, line := range gf.Lines {
			if line.FunctionName == "" {
				continue
			}
			i, ok := index[line.FunctionName]
			if !ok {
				i = len(file.Functions)
				index[line.FunctionName] = i
				file.Functions = append(file.Functions, ExecutedFunction{
					FunctionName:  line.FunctionName,
					DemangledName: demangled[line.FunctionName],
				})
			}
			file.Functions[i].Lines = append(file.Functions[i].Lines, ExecutedLine{
				Number: line.LineNumber,
				Count:  line.Count,
			})
		}
		input.Files = append(input.Files, file)
	}
	return input
}

// SessionFromExecuted builds a session from an execution count view. Each
// function is resolved to a registry method by its demangled name, with
// "::" read as ".", falling back to the raw name. Every executed line
// counts as fully covered, since gcov reports no instruction counts.
// Functions that never ran are skipped; unresolved functions and lines are
// logged and dropped.
func SessionFromExecuted(reg *structure.Registry, id string, input *ExecutedInput) *coverage.Session {
	log := logger.WithComponent("gcovr")
	s := coverage.NewSession(id)
	if input == nil {
		return s
	}

	for _, file := range input.Files {
		for _, fn := range file.Functions {
			if !fn.Ran() {
				continue
			}
			m, ok := resolveFunction(reg, fn)
			if !ok {
				log.Warnf("%s: could not find method for %s, dropping its coverage", file.FilePath, functionLabel(fn))
				continue
			}

			mc := coverage.NewMethodCoverage(m)
			for _, el := range fn.Lines {
				if el.Count <= 0 {
					continue
				}
				line, ok := m.Line(el.Number)
				if !ok {
					log.Warnf("no line for coverage in %s:%d", m.FullName(), el.Number)
					continue
				}
				lc, err := coverage.NewLineCoverage(line, line.Instructions, line.Branches)
				if err != nil {
					log.Warnf("dropping %s: %v", line.Identifier(), err)
					continue
				}
				mc.Put(lc)
			}
			s.AddCoverage(mc)
		}
	}
	return s
}

func resolveFunction(reg *structure.Registry, fn ExecutedFunction) (*structure.Method, bool) {
	for _, name := range []string{fn.DemangledName, fn.FunctionName} {
		if name == "" {
			continue
		}
		if m, ok := reg.MethodByFullName(strings.ReplaceAll(name, "::", ".")); ok {
			return m, true
		}
	}
	return nil, false
}

func functionLabel(fn ExecutedFunction) string {
	if fn.DemangledName != "" {
		return fn.DemangledName
	}
	return fn.FunctionName
}
