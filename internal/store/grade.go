package store

import "github.com/phrazzld/scry-study/internal/domain"

// GradeText is the persisted form of a grade. Study-again log entries carry
// no grade and persist as the empty string.
func GradeText(g domain.Grade) string {
	if !g.IsValid() {
		return ""
	}
	return g.String()
}

// ParseGradeText reverses GradeText.
func ParseGradeText(s string) (domain.Grade, error) {
	if s == "" {
		return 0, nil
	}
	return domain.ParseGrade(s)
}
