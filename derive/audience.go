// Package derive holds the pure derivation rules of the application:
// audience resolution, budget maths, visibility filtering, participant
// ordering and participation toggle semantics. Nothing in this package
// performs I/O.
// File: derive/audience.go
package derive

import (
	"school-trips/models"
)

// ResolveAudience computes the set of students an excursion is aimed
// at, based on its scope and target:
//   - GLOBAL: every student in the school
//   - CICLO:  students whose class belongs to the target cycle
//   - CLASE:  students of the target class
func ResolveAudience(exc models.Excursion, students []models.Student, classes []models.ClassGroup) []models.Student {
	switch exc.Scope {
	case models.ScopeGlobal:
		out := make([]models.Student, len(students))
		copy(out, students)
		return out

	case models.ScopeCiclo:
		cycleClasses := make(map[string]bool)
		for _, c := range classes {
			if c.CycleID == exc.TargetID {
				cycleClasses[c.ID] = true
			}
		}
		var out []models.Student
		for _, s := range students {
			if cycleClasses[s.ClassID] {
				out = append(out, s)
			}
		}
		return out

	case models.ScopeClase:
		var out []models.Student
		for _, s := range students {
			if s.ClassID == exc.TargetID {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
