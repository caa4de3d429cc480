package domain

import (
	"fmt"
	"strings"
)

// ContentUnit is a catalog entry grouping an ordered set of card keys, such as
// the phrases of one song.
type ContentUnit struct {
	ID    string   `json:"id" yaml:"id"`
	Title string   `json:"title" yaml:"title"`
	Keys  []string `json:"keys" yaml:"keys"`
}

// Validate checks that the unit has an ID and that every key forms a valid,
// unique card ID.
func (u *ContentUnit) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: content unit ID cannot be empty", ErrValidation)
	}
	seen := make(map[string]struct{}, len(u.Keys))
	for _, key := range u.Keys {
		if err := (CardID{UnitID: u.ID, Key: key}).Validate(); err != nil {
			return err
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate card key %q in unit %s", ErrValidation, key, u.ID)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// CardIDs returns the unit's cards in catalog order.
func (u *ContentUnit) CardIDs() []CardID {
	ids := make([]CardID, 0, len(u.Keys))
	for _, key := range u.Keys {
		ids = append(ids, CardID{UnitID: u.ID, Key: key})
	}
	return ids
}
