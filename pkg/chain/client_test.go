package chain

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func TestToBytes32ShortString(t *testing.T) {
	got := toBytes32("RFID-CAR-001")

	if !bytes.HasPrefix(got[:], []byte("RFID-CAR-001")) {
		t.Fatalf("expected left-aligned tag uid, got %x", got)
	}
	for _, b := range got[len("RFID-CAR-001"):] {
		if b != 0 {
			t.Fatalf("expected zero padding, got %x", got)
		}
	}
}

func TestToBytes32LongStringIsHashed(t *testing.T) {
	long := strings.Repeat("a", 33)
	got := toBytes32(long)

	if bytes.HasPrefix(got[:], []byte(long[:32])) {
		t.Fatalf("expected hash for oversized input, got raw prefix %x", got)
	}
	if got == toBytes32(strings.Repeat("b", 33)) {
		t.Fatal("distinct inputs should not collide")
	}
}

func TestToBytes32Deterministic(t *testing.T) {
	if toBytes32("Stage 1 (Store)") != toBytes32("Stage 1 (Store)") {
		t.Fatal("expected deterministic encoding")
	}
}

func TestContractABIMethods(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}

	for method, inputs := range map[string]int{
		MethodLogStageEvent: 3,
		MethodLogOrder:      2,
		MethodLogOrderItem:  3,
	} {
		m, ok := parsed.Methods[method]
		if !ok {
			t.Fatalf("abi missing method %q", method)
		}
		if len(m.Inputs) != inputs {
			t.Fatalf("method %q expected %d inputs, got %d", method, inputs, len(m.Inputs))
		}
	}
}

func TestContractABIPacksStageEvent(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}

	data, err := parsed.Pack(
		MethodLogStageEvent,
		toBytes32("RFID-CAR-001"),
		toBytes32("Stage 1 (Store)"),
		toBytes32("Present"),
	)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	// 4-byte selector plus three bytes32 words.
	if len(data) != 4+3*32 {
		t.Fatalf("unexpected calldata length %d", len(data))
	}
}
