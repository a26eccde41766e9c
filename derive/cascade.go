// Package derive - derive/cascade.go
package derive

import (
	"school-trips/models"
)

// CascadeRule declares that deleting a parent record must also delete
// every child whose foreign key references it.
type CascadeRule struct {
	Child      string
	ForeignKey string
}

// CascadeRules is the single place the delete cascades are declared.
// The sync layer walks this table instead of repeating filter loops at
// each delete call site.
var CascadeRules = map[string][]CascadeRule{
	models.EntityExcursions: {
		{Child: models.EntityParticipations, ForeignKey: "excursionId"},
	},
	models.EntityStudents: {
		{Child: models.EntityParticipations, ForeignKey: "studentId"},
	},
}

// ParticipationForeignKey reads the named foreign key off a
// participation record.
func ParticipationForeignKey(p models.Participation, foreignKey string) string {
	switch foreignKey {
	case "excursionId":
		return p.ExcursionID
	case "studentId":
		return p.StudentID
	}
	return ""
}
