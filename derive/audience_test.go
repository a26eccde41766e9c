// file: derive/audience_test.go
package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"school-trips/models"
)

var audienceStudents = []models.Student{
	{ID: "s1", Name: "Pepito Pérez", ClassID: "cl1"},
	{ID: "s2", Name: "Juanita López", ClassID: "cl1"},
	{ID: "s3", Name: "Luis García", ClassID: "cl2"},
	{ID: "s4", Name: "Marta Ruiz", ClassID: "cl3"},
}

func studentIDs(students []models.Student) []string {
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestResolveAudience_Global(t *testing.T) {
	exc := models.Excursion{Scope: models.ScopeGlobal}
	got := ResolveAudience(exc, audienceStudents, testClasses)
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, studentIDs(got))
}

// Test: a cycle trip reaches every class in that cycle
func TestResolveAudience_Cycle(t *testing.T) {
	exc := models.Excursion{Scope: models.ScopeCiclo, TargetID: "c2"}
	got := ResolveAudience(exc, audienceStudents, testClasses)
	assert.Equal(t, []string{"s1", "s2", "s4"}, studentIDs(got))
}

func TestResolveAudience_Class(t *testing.T) {
	exc := models.Excursion{Scope: models.ScopeClase, TargetID: "cl2"}
	got := ResolveAudience(exc, audienceStudents, testClasses)
	assert.Equal(t, []string{"s3"}, studentIDs(got))
}

func TestResolveAudience_EmptyTarget(t *testing.T) {
	exc := models.Excursion{Scope: models.ScopeCiclo, TargetID: "c99"}
	got := ResolveAudience(exc, audienceStudents, testClasses)
	assert.Empty(t, got)
}
