package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/zjy-dev/covalgebra/internal/coverage"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// MarkdownReporter writes human-readable summaries of derived sessions.
type MarkdownReporter struct {
	outputDir string
}

// NewMarkdownReporter creates a new MarkdownReporter.
func NewMarkdownReporter(outputDir string) *MarkdownReporter {
	return &MarkdownReporter{
		outputDir: outputDir,
	}
}

// SaveSession writes the covered methods and lines of s under the given title.
// It returns the path of the written file.
func (r *MarkdownReporter) SaveSession(title string, s *coverage.Session) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	writeSession(&b, "Coverage", s)
	return r.write(title, b.String())
}

// SaveDiff writes the three parts of a diff between sessions a and b.
func (r *MarkdownReporter) SaveDiff(a, b string, d *coverage.SessionDiff) (string, error) {
	title := fmt.Sprintf("Diff %s vs %s", a, b)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if d.ContainsDifference() {
		sb.WriteString("The sessions differ.\n\n")
	} else {
		sb.WriteString("The sessions cover exactly the same lines.\n\n")
	}
	writeSession(&sb, "Only "+a, d.OnlyA)
	writeSession(&sb, "Common", d.Common)
	writeSession(&sb, "Only "+b, d.OnlyB)
	return r.write(title, sb.String())
}

func writeSession(b *strings.Builder, heading string, s *coverage.Session) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	fmt.Fprintf(b, "**Methods:** %d  \n", s.NumberOfCoveredMethods())
	fmt.Fprintf(b, "**Lines:** %d  \n", s.NumberOfLinesCovered())
	fmt.Fprintf(b, "**Instructions:** %d  \n", s.InstructionsCovered())
	fmt.Fprintf(b, "**Branches:** %d\n\n", s.BranchesCovered())
	if s.IsEmpty() {
		b.WriteString("_none_\n\n")
		return
	}

	b.WriteString("| Method | Lines |\n|---|---|\n")
	for _, name := range s.Methods() {
		mc, _ := s.Coverage(name)
		numbers := make([]string, 0, mc.NumberOfLinesCovered())
		for _, n := range mc.LineNumbersCovered() {
			numbers = append(numbers, fmt.Sprint(n))
		}
		fmt.Fprintf(b, "| `%s` | %s |\n", name, strings.Join(numbers, ", "))
	}
	b.WriteString("\n")
}

// write stores content under a file name derived from title. Titles that
// sanitize to the same name, and repeated saves, get a numeric suffix, so
// an earlier summary is never overwritten.
func (r *MarkdownReporter) write(title, content string) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create report directory")
	}
	base := fileBase(title)
	for i := 1; ; i++ {
		name := base + ".md"
		if i > 1 {
			name = fmt.Sprintf("%s_%d.md", base, i)
		}
		path := filepath.Join(r.outputDir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", errors.Wrapf(err, "failed to create %s", path)
		}
		_, err = f.WriteString(content)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", errors.Wrapf(err, "failed to write %s", path)
		}
		return path, nil
	}
}

func fileBase(title string) string {
	base := strings.Trim(unsafeFileChars.ReplaceAllString(title, "_"), "_.")
	if base == "" {
		return "summary"
	}
	return base
}
