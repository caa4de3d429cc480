package domain

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Grade is the learner's self-assessed recall outcome. Only two grades exist.
type Grade int

const (
	GradeAgain Grade = iota + 1 // Failed to recall.
	GradeGood                   // Recalled.
)

var (
	gradeNames  = [...]string{GradeAgain: "again", GradeGood: "good"}
	gradeByName = map[string]Grade{"again": GradeAgain, "good": GradeGood}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Grade(0)
	_ json.Marshaler           = Grade(0)
	_ json.Unmarshaler         = (*Grade)(nil)
	_ encoding.TextMarshaler   = Grade(0)
	_ encoding.TextUnmarshaler = (*Grade)(nil)
)

// IsValid reports whether g is Again or Good.
func (g Grade) IsValid() bool {
	return g == GradeAgain || g == GradeGood
}

// String returns "again" or "good". For invalid values it returns "Grade(n)".
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// ParseGrade converts "again" or "good" into a Grade.
func ParseGrade(s string) (Grade, error) {
	v, ok := gradeByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	return v, nil
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	v, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// MarshalJSON implements json.Marshaler. Grade serializes as a JSON string.
func (g Grade) MarshalJSON() ([]byte, error) {
	text, err := g.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (g *Grade) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidGrade, data)
	}
	return g.UnmarshalText([]byte(s))
}
