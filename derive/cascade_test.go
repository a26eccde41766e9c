// file: derive/cascade_test.go
package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-trips/models"
)

func TestCascadeRules(t *testing.T) {
	rules, ok := CascadeRules[models.EntityExcursions]
	require.True(t, ok)
	require.Len(t, rules, 1)
	assert.Equal(t, models.EntityParticipations, rules[0].Child)
	assert.Equal(t, "excursionId", rules[0].ForeignKey)

	rules, ok = CascadeRules[models.EntityStudents]
	require.True(t, ok)
	assert.Equal(t, "studentId", rules[0].ForeignKey)

	// collections with no declared children cascade nothing
	_, ok = CascadeRules[models.EntityUsers]
	assert.False(t, ok)
}

func TestParticipationForeignKey(t *testing.T) {
	p := models.Participation{ID: "p1", StudentID: "s1", ExcursionID: "e1"}

	assert.Equal(t, "e1", ParticipationForeignKey(p, "excursionId"))
	assert.Equal(t, "s1", ParticipationForeignKey(p, "studentId"))
	assert.Empty(t, ParticipationForeignKey(p, "classId"))
}
