// Package derive - derive/sort.go
package derive

import (
	"sort"
	"strings"

	"school-trips/models"
)

// Surname extracts the surname part of a full name: the last two
// whitespace-separated tokens when the name has three or more, the
// last token for two, or the whole string otherwise. Spanish names
// usually carry two surnames, hence the two-token rule.
func Surname(fullName string) string {
	tokens := strings.Fields(fullName)
	switch {
	case len(tokens) >= 3:
		return strings.Join(tokens[len(tokens)-2:], " ")
	case len(tokens) == 2:
		return tokens[1]
	}
	return fullName
}

// SortParticipants orders participation rows for display: by class name
// first when the viewer holds an administrative role, then by the
// student's surname, then by full name. Rows whose student no longer
// exists sort last so orphans never hide real entries.
func SortParticipants(role models.Role, parts []models.Participation, students map[string]models.Student, classes []models.ClassGroup) []models.Participation {
	classNames := make(map[string]string, len(classes))
	for _, c := range classes {
		classNames[c.ID] = c.Name
	}

	out := make([]models.Participation, len(parts))
	copy(out, parts)

	byClass := role.IsAdministrative()

	sort.SliceStable(out, func(i, j int) bool {
		si, iOK := students[out[i].StudentID]
		sj, jOK := students[out[j].StudentID]
		if iOK != jOK {
			return iOK // known students first
		}
		if !iOK {
			return out[i].StudentID < out[j].StudentID
		}

		if byClass {
			ci, cj := classNames[si.ClassID], classNames[sj.ClassID]
			if ci != cj {
				return ci < cj
			}
		}
		if a, b := Surname(si.Name), Surname(sj.Name); a != b {
			return a < b
		}
		return si.Name < sj.Name
	})
	return out
}

// DisplayName resolves a student name for rendering, defensively
// handling participations whose student was deleted.
func DisplayName(students map[string]models.Student, studentID string) string {
	if s, ok := students[studentID]; ok {
		return s.Name
	}
	return "Unknown"
}

// StudentsByID indexes a student list for constant-time lookups.
func StudentsByID(students []models.Student) map[string]models.Student {
	m := make(map[string]models.Student, len(students))
	for _, s := range students {
		m[s.ID] = s
	}
	return m
}
