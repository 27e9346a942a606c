package tracking

import (
	"fmt"

	"github.com/mhsadiq/cartrace-backend/pkg/db/models"
	"github.com/mhsadiq/cartrace-backend/pkg/enums"
	pkgerrors "github.com/mhsadiq/cartrace-backend/pkg/errors"
)

// SeedEvent is the state assumed for a tag that has never been scanned: it
// has left the synthetic pre-stage and is free to enter the first station.
func SeedEvent(tagUID string) models.StageEvent {
	return models.StageEvent{
		TagUID: tagUID,
		Stage:  enums.StagePre,
		Status: enums.StageStatusLeft,
	}
}

// Validate checks a proposed scan against the tag's last recorded event and
// returns a state-conflict error when a guard rejects it.
//
// Guards run in a fixed order: exit-without-entry, re-entry-without-exit,
// then stage sequencing. Sequencing applies only to order tags on entry;
// components move between stages freely as long as entries and exits pair up.
func Validate(kind enums.TagKind, last models.StageEvent, stage enums.Stage, action enums.ScanAction) error {
	switch action {
	case enums.ScanActionExit:
		if last.Status != enums.StageStatusPresent || last.Stage != stage {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("exit scan at %s without a matching entry", stage))
		}
		return nil

	case enums.ScanActionEntry:
		if last.Status == enums.StageStatusPresent {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("entry scan at %s while still present at %s", stage, last.Stage))
		}
		if kind == enums.TagKindOrder {
			if stage.Index() != last.Stage.Index()+1 {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("order tag cannot enter %s after %s: stages must advance one step at a time", stage, last.Stage))
			}
		}
		return nil

	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid scan action %q", action))
	}
}
