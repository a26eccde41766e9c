// Package client - client/mutations.go
//
// Every mutation follows the optimistic-write discipline: the cache
// changes synchronously, the server call is dispatched in the
// background, and subscribers are notified exactly once. Authorization
// is checked here, at the call boundary, before any state changes.
package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"school-trips/derive"
	"school-trips/models"
)

// Sentinel errors surfaced to the user as transient notifications.
var (
	ErrSelfDelete       = errors.New("you cannot delete your own account")
	ErrNotAuthorized    = errors.New("your role is not allowed to do that")
	ErrNotCreator       = errors.New("you can only delete excursions you created")
	ErrUnknownRecord    = errors.New("record not found")
	ErrMissingTarget    = errors.New("a cycle or class target is required for this scope")
	ErrInvalidSnapshot  = errors.New("backup must contain users and excursions")
	ErrTreasuryReadOnly = errors.New("treasury accounts cannot modify participations")
)

// ------------------- users -------------------

// AddUser inserts a new account and syncs it.
func (c *Client) AddUser(u models.User) models.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	c.mu.Lock()
	c.snap.Users = append(c.snap.Users, u)
	c.applyTutorLinkLocked(u)
	c.mu.Unlock()

	c.syncItem(models.EntityUsers, u)
	c.notify()
	return u
}

// UpdateUser replaces an account by id. Changing a tutor's class keeps
// the single-owner invariant: any other class referencing that tutor
// loses its back-reference.
func (c *Client) UpdateUser(u models.User) error {
	c.mu.Lock()
	idx := -1
	for i, existing := range c.snap.Users {
		if existing.ID == u.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: user %s", ErrUnknownRecord, u.ID)
	}
	c.snap.Users[idx] = u
	changedClasses := c.applyTutorLinkLocked(u)
	c.mu.Unlock()

	c.syncItem(models.EntityUsers, u)
	for _, cl := range changedClasses {
		c.syncItem(models.EntityClasses, cl)
	}
	c.notify()
	return nil
}

// applyTutorLinkLocked points the user's class at them and clears the
// stale back-reference on every other class. Returns the classes that
// changed so callers can sync them. Caller holds c.mu.
func (c *Client) applyTutorLinkLocked(u models.User) []models.ClassGroup {
	if u.Role != models.RoleTutor {
		return nil
	}
	var changed []models.ClassGroup
	for i := range c.snap.Classes {
		cl := &c.snap.Classes[i]
		switch {
		case cl.ID == u.ClassID && cl.TutorID != u.ID:
			cl.TutorID = u.ID
			changed = append(changed, *cl)
		case cl.ID != u.ClassID && cl.TutorID == u.ID:
			cl.TutorID = ""
			changed = append(changed, *cl)
		}
	}
	return changed
}

// DeleteUser removes an account. Only DIRECCION and ADMIN may do it,
// and never to themselves.
func (c *Client) DeleteUser(actor models.User, id string) error {
	if actor.ID == id {
		return ErrSelfDelete
	}
	if actor.Role != models.RoleDireccion && actor.Role != models.RoleAdmin {
		return ErrNotAuthorized
	}

	c.mu.Lock()
	kept := c.snap.Users[:0]
	for _, u := range c.snap.Users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	c.snap.Users = kept
	c.mu.Unlock()

	c.deleteItem(models.EntityUsers, id)
	c.notify()
	return nil
}

// ------------------- classes -------------------

// AddClass inserts a class group. A tutor assignment immediately moves
// that tutor off any class they previously owned.
func (c *Client) AddClass(cl models.ClassGroup) models.ClassGroup {
	if cl.ID == "" {
		cl.ID = uuid.NewString()
	}
	c.mu.Lock()
	c.snap.Classes = append(c.snap.Classes, cl)
	changed := c.assignTutorLocked(cl.ID, cl.TutorID)
	c.mu.Unlock()

	c.syncItem(models.EntityClasses, cl)
	for _, item := range changed {
		c.syncItem(item.entity, item.record)
	}
	c.notify()
	return cl
}

// AssignTutor makes tutorID the tutor of classID, clearing the
// tutor's previous class and the class's previous tutor.
func (c *Client) AssignTutor(classID, tutorID string) error {
	c.mu.Lock()
	found := false
	for _, cl := range c.snap.Classes {
		if cl.ID == classID {
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return fmt.Errorf("%w: class %s", ErrUnknownRecord, classID)
	}
	changed := c.assignTutorLocked(classID, tutorID)
	c.mu.Unlock()

	for _, item := range changed {
		c.syncItem(item.entity, item.record)
	}
	c.notify()
	return nil
}

type changedRecord struct {
	entity string
	record any
}

// assignTutorLocked rewires class↔tutor references so that at most one
// class points at the tutor and the tutor points back at exactly that
// class. Caller holds c.mu.
func (c *Client) assignTutorLocked(classID, tutorID string) []changedRecord {
	var changed []changedRecord
	for i := range c.snap.Classes {
		cl := &c.snap.Classes[i]
		switch {
		case cl.ID == classID && cl.TutorID != tutorID:
			cl.TutorID = tutorID
			changed = append(changed, changedRecord{models.EntityClasses, *cl})
		case cl.ID != classID && tutorID != "" && cl.TutorID == tutorID:
			cl.TutorID = ""
			changed = append(changed, changedRecord{models.EntityClasses, *cl})
		}
	}
	for i := range c.snap.Users {
		u := &c.snap.Users[i]
		if u.ID == tutorID && u.ClassID != classID {
			u.ClassID = classID
			changed = append(changed, changedRecord{models.EntityUsers, *u})
		}
	}
	return changed
}

// DeleteClass removes a class group.
func (c *Client) DeleteClass(id string) {
	c.mu.Lock()
	kept := c.snap.Classes[:0]
	for _, cl := range c.snap.Classes {
		if cl.ID != id {
			kept = append(kept, cl)
		}
	}
	c.snap.Classes = kept
	c.mu.Unlock()

	c.deleteItem(models.EntityClasses, id)
	c.notify()
}

// ------------------- students -------------------

// AddStudent inserts a student and syncs them.
func (c *Client) AddStudent(s models.Student) models.Student {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	c.mu.Lock()
	c.snap.Students = append(c.snap.Students, s)
	c.mu.Unlock()

	c.syncItem(models.EntityStudents, s)
	c.notify()
	return s
}

// UpdateStudent replaces a student by id.
func (c *Client) UpdateStudent(s models.Student) error {
	c.mu.Lock()
	idx := -1
	for i, existing := range c.snap.Students {
		if existing.ID == s.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: student %s", ErrUnknownRecord, s.ID)
	}
	c.snap.Students[idx] = s
	c.mu.Unlock()

	c.syncItem(models.EntityStudents, s)
	c.notify()
	return nil
}

// DeleteStudent removes a student and cascades to their
// participations.
func (c *Client) DeleteStudent(id string) {
	c.mu.Lock()
	kept := c.snap.Students[:0]
	for _, s := range c.snap.Students {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	c.snap.Students = kept
	orphaned := c.cascadeLocked(models.EntityStudents, id)
	c.mu.Unlock()

	c.deleteItem(models.EntityStudents, id)
	for _, pid := range orphaned {
		c.deleteItem(models.EntityParticipations, pid)
	}
	c.notify()
}

// ImportStudentsCSV parses "surnames,name" lines into students of the
// target class and bulk-syncs them. Returns how many were imported.
func (c *Client) ImportStudentsCSV(csvContent, targetClassID string) int {
	var created []models.Student
	for _, line := range strings.Split(csvContent, "\n") {
		line = strings.TrimRight(line, "\r")
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		surnames := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])
		if surnames == "" || name == "" {
			continue
		}
		created = append(created, models.Student{
			ID:      uuid.NewString(),
			Name:    name + " " + surnames,
			ClassID: targetClassID,
		})
	}
	if len(created) == 0 {
		return 0
	}

	c.mu.Lock()
	c.snap.Students = append(c.snap.Students, created...)
	c.mu.Unlock()

	c.bulkSync(models.EntityStudents, created)
	c.notify()
	return len(created)
}

// ------------------- excursions -------------------

// AddExcursion creates a trip, derives its per-student price and
// generates one participation per student in the resolved audience.
func (c *Client) AddExcursion(actor models.User, exc models.Excursion) (models.Excursion, error) {
	if !derive.CanCreateExcursion(actor.Role) {
		return exc, ErrNotAuthorized
	}
	if exc.Scope != models.ScopeGlobal && exc.TargetID == "" {
		return exc, ErrMissingTarget
	}
	if exc.ID == "" {
		exc.ID = uuid.NewString()
	}
	if exc.CreatorID == "" {
		exc.CreatorID = actor.ID
	}
	if exc.Status == "" {
		exc.Status = models.StatusActive
	}
	derive.ApplyBudget(&exc)

	c.mu.Lock()
	c.snap.Excursions = append(c.snap.Excursions, exc)
	created := c.generateParticipationsLocked(exc)
	c.mu.Unlock()

	c.syncItem(models.EntityExcursions, exc)
	if len(created) > 0 {
		c.bulkSync(models.EntityParticipations, created)
	}
	c.notify()
	return exc, nil
}

// generateParticipationsLocked creates blank participations for every
// audience student that does not already have one for this excursion.
// Caller holds c.mu.
func (c *Client) generateParticipationsLocked(exc models.Excursion) []models.Participation {
	existing := make(map[string]bool)
	for _, p := range c.snap.Participations {
		if p.ExcursionID == exc.ID {
			existing[p.StudentID] = true
		}
	}

	audience := derive.ResolveAudience(exc, c.snap.Students, c.snap.Classes)
	var created []models.Participation
	for _, s := range audience {
		if existing[s.ID] {
			continue
		}
		created = append(created, models.Participation{
			ID:          uuid.NewString(),
			StudentID:   s.ID,
			ExcursionID: exc.ID,
		})
	}
	c.snap.Participations = append(c.snap.Participations, created...)
	return created
}

// UpdateExcursion replaces a trip. Budget edits go through the
// auto-versus-manual reconciliation, and a scope or target change
// throws the old participations away and regenerates them for the new
// audience.
func (c *Client) UpdateExcursion(actor models.User, exc models.Excursion) error {
	c.mu.Lock()
	idx := -1
	for i, existing := range c.snap.Excursions {
		if existing.ID == exc.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: excursion %s", ErrUnknownRecord, exc.ID)
	}
	old := c.snap.Excursions[idx]

	// treasury may adjust the money fields but nothing else
	if actor.Role == models.RoleTesoreria {
		budget := exc
		exc = old
		exc.CostBus = budget.CostBus
		exc.CostOther = budget.CostOther
		exc.CostEntry = budget.CostEntry
		exc.CostGlobal = budget.CostGlobal
		exc.EstimatedStudents = budget.EstimatedStudents
	}

	derive.ReconcileBudget(old, &exc, actor.Role)
	c.snap.Excursions[idx] = exc

	var removed []string
	var created []models.Participation
	if old.Scope != exc.Scope || old.TargetID != exc.TargetID {
		removed = c.dropParticipationsLocked(exc.ID)
		created = c.generateParticipationsLocked(exc)
	}
	c.mu.Unlock()

	c.syncItem(models.EntityExcursions, exc)
	for _, pid := range removed {
		c.deleteItem(models.EntityParticipations, pid)
	}
	if len(created) > 0 {
		c.bulkSync(models.EntityParticipations, created)
	}
	c.notify()
	return nil
}

// dropParticipationsLocked removes every participation of the given
// excursion from the cache and returns their ids. Caller holds c.mu.
func (c *Client) dropParticipationsLocked(excursionID string) []string {
	var removed []string
	kept := c.snap.Participations[:0]
	for _, p := range c.snap.Participations {
		if p.ExcursionID == excursionID {
			removed = append(removed, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	c.snap.Participations = kept
	return removed
}

// DeleteExcursion removes a trip and cascades to its participations.
func (c *Client) DeleteExcursion(actor models.User, id string) error {
	c.mu.Lock()
	var target *models.Excursion
	for i := range c.snap.Excursions {
		if c.snap.Excursions[i].ID == id {
			target = &c.snap.Excursions[i]
			break
		}
	}
	if target == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: excursion %s", ErrUnknownRecord, id)
	}
	if !derive.CanDeleteExcursion(actor, *target) {
		c.mu.Unlock()
		if actor.Role == models.RoleTesoreria {
			return ErrNotAuthorized
		}
		return ErrNotCreator
	}

	kept := c.snap.Excursions[:0]
	for _, e := range c.snap.Excursions {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	c.snap.Excursions = kept
	orphaned := c.cascadeLocked(models.EntityExcursions, id)
	c.mu.Unlock()

	c.deleteItem(models.EntityExcursions, id)
	for _, pid := range orphaned {
		c.deleteItem(models.EntityParticipations, pid)
	}
	c.notify()
	return nil
}

// cascadeLocked walks the declared cascade rules and removes every
// child referencing the deleted parent. Returns the removed child ids.
// Caller holds c.mu.
func (c *Client) cascadeLocked(parentEntity, parentID string) []string {
	var removed []string
	for _, rule := range derive.CascadeRules[parentEntity] {
		if rule.Child != models.EntityParticipations {
			continue
		}
		kept := c.snap.Participations[:0]
		for _, p := range c.snap.Participations {
			if derive.ParticipationForeignKey(p, rule.ForeignKey) == parentID {
				removed = append(removed, p.ID)
				continue
			}
			kept = append(kept, p)
		}
		c.snap.Participations = kept
	}
	return removed
}

// ------------------- participations -------------------

// ToggleParticipation flips one flag on a participation row, enforcing
// the per-role edit rules at the boundary.
func (c *Client) ToggleParticipation(actor models.User, coordinatorMode bool, participationID string, field derive.ToggleField) error {
	if actor.Role == models.RoleTesoreria {
		return ErrTreasuryReadOnly
	}

	c.mu.Lock()
	idx := -1
	for i, p := range c.snap.Participations {
		if p.ID == participationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: participation %s", ErrUnknownRecord, participationID)
	}
	p := c.snap.Participations[idx]

	var student models.Student
	for _, s := range c.snap.Students {
		if s.ID == p.StudentID {
			student = s
			break
		}
	}
	if !derive.CanEditParticipation(actor, coordinatorMode, student, c.snap.Classes) {
		c.mu.Unlock()
		return ErrNotAuthorized
	}

	var exc models.Excursion
	for _, e := range c.snap.Excursions {
		if e.ID == p.ExcursionID {
			exc = e
			break
		}
	}

	updated := derive.Toggle(p, field, exc, c.now())
	c.snap.Participations[idx] = updated
	c.mu.Unlock()

	c.syncItem(models.EntityParticipations, updated)
	c.notify()
	return nil
}

// UpdateParticipation replaces a participation row verbatim.
func (c *Client) UpdateParticipation(p models.Participation) error {
	c.mu.Lock()
	idx := -1
	for i, existing := range c.snap.Participations {
		if existing.ID == p.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: participation %s", ErrUnknownRecord, p.ID)
	}
	c.snap.Participations[idx] = p
	c.mu.Unlock()

	c.syncItem(models.EntityParticipations, p)
	c.notify()
	return nil
}

// ------------------- snapshot restore -------------------

// ImportSnapshot replaces the whole database from a backup file. The
// payload must contain users and excursions; the server applies the
// same validation.
func (c *Client) ImportSnapshot(snap models.Snapshot) error {
	if snap.Users == nil || snap.Excursions == nil {
		return ErrInvalidSnapshot
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	c.apiCall("POST", "/api/restore", snap)
	c.notify()
	return nil
}
