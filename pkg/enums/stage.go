package enums

import "fmt"

// Stage names one station in the fixed assembly line. StagePre is the
// synthetic starting point for tags that have never been scanned; readers
// never report it.
type Stage string

const (
	StagePre         Stage = "Stage 0 (Pre-Stage)"
	StageStore       Stage = "Stage 1 (Store)"
	StageSubAssembly Stage = "Stage 2 (Sub-Assembly)"
	StageDesign      Stage = "Stage 3 (Design)"
)

// stageSequence is the canonical line order. Index positions drive the
// single-step sequencing rule for order tags.
var stageSequence = []Stage{
	StagePre,
	StageStore,
	StageSubAssembly,
	StageDesign,
}

// scannableStages excludes the synthetic pre-stage, which no reader emits.
var scannableStages = []Stage{
	StageStore,
	StageSubAssembly,
	StageDesign,
}

// IsValid reports whether the value names a physical, scannable stage.
func (s Stage) IsValid() bool {
	for _, candidate := range scannableStages {
		if candidate == s {
			return true
		}
	}
	return false
}

// Index returns the position of the stage in the line sequence, or -1 when
// the stage is unknown.
func (s Stage) Index() int {
	for i, candidate := range stageSequence {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ParseStage converts raw input into a scannable Stage.
func ParseStage(value string) (Stage, error) {
	for _, candidate := range scannableStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stage %q", value)
}

// Stages returns the scannable stages in line order.
func Stages() []Stage {
	out := make([]Stage, len(scannableStages))
	copy(out, scannableStages)
	return out
}
