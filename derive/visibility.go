// Package derive - derive/visibility.go
package derive

import (
	"school-trips/models"
)

// classByID resolves a class record from its id.
func classByID(classes []models.ClassGroup, id string) (models.ClassGroup, bool) {
	for _, c := range classes {
		if c.ID == id {
			return c, true
		}
	}
	return models.ClassGroup{}, false
}

// coordinatedCycle returns the cycle a user coordinates when
// coordinator mode is active, or "" otherwise.
func coordinatedCycle(user models.User, coordinatorMode bool) string {
	if !coordinatorMode {
		return ""
	}
	return user.CoordinatorCycleID
}

// VisibleExcursions filters the excursion list down to what the given
// user may see. DIRECCION, TESORERIA and ADMIN see everything; a TUTOR
// sees GLOBAL trips, CICLO trips for their class's cycle and CLASE
// trips for their own class. With coordinator mode on, the tutor's
// reach widens to the whole coordinated cycle.
func VisibleExcursions(user models.User, coordinatorMode bool, excursions []models.Excursion, classes []models.ClassGroup) []models.Excursion {
	if user.Role.IsAdministrative() {
		out := make([]models.Excursion, len(excursions))
		copy(out, excursions)
		return out
	}

	myClass, haveClass := classByID(classes, user.ClassID)
	coordCycle := coordinatedCycle(user, coordinatorMode)

	// classes inside the coordinated cycle are all editable targets
	coordClasses := make(map[string]bool)
	if coordCycle != "" {
		for _, c := range classes {
			if c.CycleID == coordCycle {
				coordClasses[c.ID] = true
			}
		}
	}

	var out []models.Excursion
	for _, e := range excursions {
		switch {
		case e.Scope == models.ScopeGlobal:
			out = append(out, e)
		case e.Scope == models.ScopeCiclo && haveClass && e.TargetID == myClass.CycleID:
			out = append(out, e)
		case e.Scope == models.ScopeCiclo && coordCycle != "" && e.TargetID == coordCycle:
			out = append(out, e)
		case e.Scope == models.ScopeClase && e.TargetID == user.ClassID && user.ClassID != "":
			out = append(out, e)
		case e.Scope == models.ScopeClase && coordClasses[e.TargetID]:
			out = append(out, e)
		}
	}
	return out
}

// CanEditParticipation decides whether the user may mutate a
// participation row belonging to the given student. TESORERIA is always
// read-only; administrative directors and admins may edit anything; a
// tutor may only touch students of their own class, or of any class in
// their coordinated cycle when coordinator mode is on.
func CanEditParticipation(user models.User, coordinatorMode bool, student models.Student, classes []models.ClassGroup) bool {
	switch {
	case user.Role == models.RoleTesoreria:
		return false
	case user.Role == models.RoleDireccion || user.Role == models.RoleAdmin:
		return true
	}

	if student.ClassID == user.ClassID && user.ClassID != "" {
		return true
	}

	coordCycle := coordinatedCycle(user, coordinatorMode)
	if coordCycle == "" {
		return false
	}
	studentClass, ok := classByID(classes, student.ClassID)
	return ok && studentClass.CycleID == coordCycle
}

// CanDeleteExcursion enforces who may remove a trip: TESORERIA never,
// a TUTOR only for trips they created themselves.
func CanDeleteExcursion(user models.User, exc models.Excursion) bool {
	switch user.Role {
	case models.RoleTesoreria:
		return false
	case models.RoleTutor, models.RoleCoordinacion:
		return exc.CreatorID == user.ID
	}
	return true
}

// CanCreateExcursion reports whether the role may create trips at all.
func CanCreateExcursion(role models.Role) bool {
	return role != models.RoleTesoreria
}
