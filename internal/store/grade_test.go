package store

import (
	"testing"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestGradeText(t *testing.T) {
	assert.Equal(t, "again", GradeText(domain.GradeAgain))
	assert.Equal(t, "good", GradeText(domain.GradeGood))
	assert.Equal(t, "", GradeText(0))

	g, err := ParseGradeText("")
	assert.NoError(t, err)
	assert.Equal(t, domain.Grade(0), g)

	g, err = ParseGradeText("good")
	assert.NoError(t, err)
	assert.Equal(t, domain.GradeGood, g)

	_, err = ParseGradeText("easy")
	assert.ErrorIs(t, err, domain.ErrInvalidGrade)
}
