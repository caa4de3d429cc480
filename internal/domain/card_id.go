package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// CardID identifies a card within the catalog. It is composed of the content
// unit that owns the card and the card's key inside that unit.
//
// The textual form is "<unit>-<key>". Unit IDs may themselves contain dashes
// (UUIDs do), so parsing always splits on the last dash and keys may not
// contain one.
type CardID struct {
	UnitID string
	Key    string
}

// NewCardID builds a CardID and validates it.
func NewCardID(unitID, key string) (CardID, error) {
	id := CardID{UnitID: unitID, Key: key}
	if err := id.Validate(); err != nil {
		return CardID{}, err
	}
	return id, nil
}

// ParseCardID parses the textual "<unit>-<key>" form.
func ParseCardID(s string) (CardID, error) {
	idx := strings.LastIndex(s, "-")
	if idx <= 0 || idx == len(s)-1 {
		return CardID{}, fmt.Errorf("%w: %q", ErrInvalidCardID, s)
	}
	return NewCardID(s[:idx], s[idx+1:])
}

// MustParseCardID is like ParseCardID but panics on error. It is intended for
// tests and static tables.
func MustParseCardID(s string) CardID {
	id, err := ParseCardID(s)
	if err != nil {
		// ALLOW-PANIC: constructor for literals known to be valid
		panic(err)
	}
	return id
}

// Validate checks that both parts are present and that the key is dash free.
func (c CardID) Validate() error {
	if strings.TrimSpace(c.UnitID) == "" {
		return fmt.Errorf("%w: empty unit ID", ErrInvalidCardID)
	}
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("%w: empty card key", ErrInvalidCardID)
	}
	if strings.Contains(c.Key, "-") {
		return fmt.Errorf("%w: card key %q contains '-'", ErrInvalidCardID, c.Key)
	}
	return nil
}

// IsZero reports whether the ID is unset.
func (c CardID) IsZero() bool {
	return c.UnitID == "" && c.Key == ""
}

// String returns the "<unit>-<key>" form.
func (c CardID) String() string {
	return c.UnitID + "-" + c.Key
}

// MarshalText implements encoding.TextMarshaler.
func (c CardID) MarshalText() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CardID) UnmarshalText(text []byte) error {
	id, err := ParseCardID(string(text))
	if err != nil {
		return err
	}
	*c = id
	return nil
}

// Compare orders card IDs by unit and then by key. Keys that are both
// integers compare numerically so that "phrase-2" sorts before "phrase-10".
func (c CardID) Compare(other CardID) int {
	if c.UnitID != other.UnitID {
		return strings.Compare(c.UnitID, other.UnitID)
	}
	a, errA := strconv.ParseInt(c.Key, 10, 64)
	b, errB := strconv.ParseInt(other.Key, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return strings.Compare(c.Key, other.Key)
	}
	return strings.Compare(c.Key, other.Key)
}
