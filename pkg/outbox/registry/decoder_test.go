package registry

import (
	"encoding/json"
	"testing"

	"github.com/mhsadiq/cartrace-backend/pkg/enums"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventScanRecorded, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"tag_uid":"04A1B2C3"}`)
	output, err := reg.Decode(enums.EventScanRecorded, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["tag_uid"] != "04A1B2C3" {
		t.Fatalf("unexpected output %+v", output)
	}
}
