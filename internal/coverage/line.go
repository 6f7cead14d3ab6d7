package coverage

import (
	"github.com/pkg/errors"

	"github.com/zjy-dev/covalgebra/internal/structure"
)

// ErrCoverageExceedsTotal is returned when a covered counter is negative or
// larger than the static total of its line.
var ErrCoverageExceedsTotal = errors.New("covered count exceeds line total")

// LineCoverage is the coverage observed for one line in one run.
type LineCoverage struct {
	line                structure.Line
	instructionsCovered int
	branchesCovered     int
}

// NewLineCoverage validates the covered counters against the line totals.
func NewLineCoverage(line structure.Line, instructionsCovered, branchesCovered int) (LineCoverage, error) {
	if instructionsCovered < 0 || instructionsCovered > line.Instructions {
		return LineCoverage{}, errors.Wrapf(ErrCoverageExceedsTotal,
			"%s: %d of %d instructions", line.Identifier(), instructionsCovered, line.Instructions)
	}
	if branchesCovered < 0 || branchesCovered > line.Branches {
		return LineCoverage{}, errors.Wrapf(ErrCoverageExceedsTotal,
			"%s: %d of %d branches", line.Identifier(), branchesCovered, line.Branches)
	}
	return LineCoverage{
		line:                line,
		instructionsCovered: instructionsCovered,
		branchesCovered:     branchesCovered,
	}, nil
}

// Line returns the static line this coverage refers to.
func (c LineCoverage) Line() structure.Line {
	return c.line
}

// InstructionsCovered returns the number of covered instructions.
func (c LineCoverage) InstructionsCovered() int {
	return c.instructionsCovered
}

// BranchesCovered returns the number of covered branches.
func (c LineCoverage) BranchesCovered() int {
	return c.branchesCovered
}

// FullyCovered reports whether every instruction and branch of the line ran.
func (c LineCoverage) FullyCovered() bool {
	return c.instructionsCovered == c.line.Instructions && c.branchesCovered == c.line.Branches
}
