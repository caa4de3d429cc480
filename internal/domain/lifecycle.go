package domain

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Lifecycle is the bucket a learning record belongs to. Exactly one bucket
// applies to a record at any time.
type Lifecycle int

const (
	LifecycleNew      Lifecycle = iota + 1 // Never reviewed.
	LifecycleLearning                      // Reviewed, not yet due again.
	LifecycleDue                           // Next review instant has passed.
	LifecycleRemoved                       // Retired by the learner; sticky until reinstated.
)

var (
	lifecycleNames = [...]string{
		LifecycleNew:      "new",
		LifecycleLearning: "learning",
		LifecycleDue:      "due",
		LifecycleRemoved:  "removed",
	}
	lifecycleByName = map[string]Lifecycle{
		"new":      LifecycleNew,
		"learning": LifecycleLearning,
		"due":      LifecycleDue,
		"removed":  LifecycleRemoved,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Lifecycle(0)
	_ json.Marshaler           = Lifecycle(0)
	_ json.Unmarshaler         = (*Lifecycle)(nil)
	_ encoding.TextMarshaler   = Lifecycle(0)
	_ encoding.TextUnmarshaler = (*Lifecycle)(nil)
)

// IsValid reports whether l is one of the four buckets.
func (l Lifecycle) IsValid() bool {
	return l >= LifecycleNew && l <= LifecycleRemoved
}

// String returns the bucket name. For invalid values it returns "Lifecycle(n)".
func (l Lifecycle) String() string {
	if l.IsValid() {
		return lifecycleNames[l]
	}
	return fmt.Sprintf("Lifecycle(%d)", int(l))
}

// ParseLifecycle converts a bucket name into a Lifecycle.
func ParseLifecycle(s string) (Lifecycle, error) {
	v, ok := lifecycleByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLifecycle, s)
	}
	return v, nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifecycle) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLifecycle, int(l))
	}
	return []byte(lifecycleNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifecycle) UnmarshalText(text []byte) error {
	v, err := ParseLifecycle(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// MarshalJSON implements json.Marshaler. Lifecycle serializes as a JSON string.
func (l Lifecycle) MarshalJSON() ([]byte, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (l *Lifecycle) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidLifecycle, data)
	}
	return l.UnmarshalText([]byte(s))
}
