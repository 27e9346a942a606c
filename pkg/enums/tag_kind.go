package enums

import "fmt"

// TagKind classifies an RFID tag by how it is registered.
type TagKind string

const (
	TagKindOrder     TagKind = "order"
	TagKindComponent TagKind = "component"
	TagKindUnknown   TagKind = "unknown"
)

var validTagKinds = []TagKind{
	TagKindOrder,
	TagKindComponent,
	TagKindUnknown,
}

// IsValid reports whether the value matches a known tag kind.
func (k TagKind) IsValid() bool {
	for _, candidate := range validTagKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseTagKind converts raw input into TagKind.
func ParseTagKind(value string) (TagKind, error) {
	for _, candidate := range validTagKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tag kind %q", value)
}
