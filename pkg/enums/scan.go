package enums

import "fmt"

// ScanAction distinguishes the two reader antennas at each stage.
type ScanAction string

const (
	ScanActionEntry ScanAction = "entry"
	ScanActionExit  ScanAction = "exit"
)

var validScanActions = []ScanAction{
	ScanActionEntry,
	ScanActionExit,
}

// IsValid reports whether the value matches a known scan action.
func (a ScanAction) IsValid() bool {
	for _, candidate := range validScanActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseScanAction converts raw input into ScanAction.
func ParseScanAction(value string) (ScanAction, error) {
	for _, candidate := range validScanActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scan action %q", value)
}

// StageStatus records whether a tag is inside or has left a stage. It is the
// persisted form of a scan action: entry scans record Present, exit scans
// record Left.
type StageStatus string

const (
	StageStatusPresent StageStatus = "Present"
	StageStatusLeft    StageStatus = "Left"
)

var validStageStatuses = []StageStatus{
	StageStatusPresent,
	StageStatusLeft,
}

// IsValid reports whether the value matches a known stage status.
func (s StageStatus) IsValid() bool {
	for _, candidate := range validStageStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// StatusFor maps a scan action onto the status it records.
func (a ScanAction) StatusFor() StageStatus {
	if a == ScanActionExit {
		return StageStatusLeft
	}
	return StageStatusPresent
}
