// file: client/mutations_test.go
package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-trips/derive"
	"school-trips/models"
)

func findClass(classes []models.ClassGroup, id string) models.ClassGroup {
	for _, cl := range classes {
		if cl.ID == id {
			return cl
		}
	}
	return models.ClassGroup{}
}

func findUser(users []models.User, id string) models.User {
	for _, u := range users {
		if u.ID == id {
			return u
		}
	}
	return models.User{}
}

// ------------------- users -------------------

func TestDeleteUser_Rules(t *testing.T) {
	fs := newFakeServer(t, baseSnapshot())
	c := openTestClient(t, fs)

	direccion := models.User{ID: "u1", Role: models.RoleDireccion}
	tutor := models.User{ID: "u2", Role: models.RoleTutor}

	// nobody deletes themselves
	assert.ErrorIs(t, c.DeleteUser(direccion, "u1"), ErrSelfDelete)

	// tutors cannot delete accounts
	assert.ErrorIs(t, c.DeleteUser(tutor, "u4"), ErrNotAuthorized)

	require.NoError(t, c.DeleteUser(direccion, "u4"))
	assert.Len(t, c.GetUsers(), 3)
	assert.Len(t, fs.callsTo("DELETE", "/api/sync/users/u4"), 1)
}

// Test: re-assigning a tutor keeps at most one class pointing at them
func TestAssignTutor_SingleOwner(t *testing.T) {
	snap := baseSnapshot()
	snap.Classes = append(snap.Classes, models.ClassGroup{
		ID: "cl3", Name: "2º A Primaria", CycleID: "c2",
	})
	fs := newFakeServer(t, snap)
	c := openTestClient(t, fs)

	// u2 currently tutors cl1; move them to cl3
	require.NoError(t, c.AssignTutor("cl3", "u2"))

	classes := c.GetClasses()
	assert.Equal(t, "u2", findClass(classes, "cl3").TutorID)
	assert.Empty(t, findClass(classes, "cl1").TutorID)
	assert.Equal(t, "cl3", findUser(c.GetUsers(), "u2").ClassID)

	// both changed classes and the user were synced
	assert.NotEmpty(t, fs.callsTo("POST", "/api/sync/classes"))
	assert.NotEmpty(t, fs.callsTo("POST", "/api/sync/users"))
}

func TestAssignTutor_UnknownClass(t *testing.T) {
	fs := newFakeServer(t, baseSnapshot())
	c := openTestClient(t, fs)

	assert.ErrorIs(t, c.AssignTutor("cl99", "u2"), ErrUnknownRecord)
}

// Test: updating a tutor's class moves the back-reference with them
func TestUpdateUser_RelinksClasses(t *testing.T) {
	fs := newFakeServer(t, baseSnapshot())
	c := openTestClient(t, fs)

	u2 := findUser(c.GetUsers(), "u2")
	u2.ClassID = "cl2"
	require.NoError(t, c.UpdateUser(u2))

	classes := c.GetClasses()
	assert.Equal(t, "u2", findClass(classes, "cl2").TutorID)
	assert.Empty(t, findClass(classes, "cl1").TutorID)
}

// ------------------- students -------------------

func TestDeleteStudent_CascadesParticipations(t *testing.T) {
	snap := baseSnapshot()
	snap.Excursions = []models.Excursion{{ID: "e1", Title: "Zoo", Scope: models.ScopeGlobal}}
	snap.Participations = []models.Participation{
		{ID: "p1", StudentID: "s1", ExcursionID: "e1"},
		{ID: "p2", StudentID: "s2", ExcursionID: "e1"},
	}
	fs := newFakeServer(t, snap)
	c := openTestClient(t, fs)

	c.DeleteStudent("s1")

	assert.Len(t, c.GetStudents(), 2)
	parts := c.GetParticipations()
	require.Len(t, parts, 1)
	assert.Equal(t, "p2", parts[0].ID)

	assert.Len(t, fs.callsTo("DELETE", "/api/sync/students/s1"), 1)
	assert.Len(t, fs.callsTo("DELETE", "/api/sync/participations/p1"), 1)
}

func TestImportStudentsCSV(t *testing.T) {
	fs := newFakeServer(t, baseSnapshot())
	c := openTestClient(t, fs)

	csv := "García López,Luis\r\nRuiz Sanz,Marta\n\nsolo-un-campo\n , \n"
	n := c.ImportStudentsCSV(csv, "cl1")
	assert.Equal(t, 2, n)

	students := c.GetStudents()
	require.Len(t, students, 5)
	assert.Equal(t, "Luis García López", students[3].Name)
	assert.Equal(t, "cl1", students[3].ClassID)
	assert.Equal(t, "Marta Ruiz Sanz", students[4].Name)

	assert.Len(t, fs.callsTo("POST", "/api/sync/students/bulk"), 1)
}

func TestImportStudentsCSV_Empty(t *testing.T) {
	fs := newFakeServer(t, baseSnapshot())
	c := openTestClient(t, fs)

	assert.Zero(t, c.ImportStudentsCSV("", "cl1"))
	assert.Empty(t, fs.callsTo("POST", "/api/sync/students/bulk"))
}

// ------------------- excursions -------------------

func TestAddExcursion_GeneratesParticipations(t *testing.T) {
	fs := newFakeServer(t, baseSnapshot())
	c := openTestClient(t, fs)

	tutor := models.User{ID: "u2", Role: models.RoleTutor, ClassID: "cl1"}
	exc, err := c.AddExcursion(tutor, models.Excursion{
		Title:             "Granja Escuela",
		Scope:             models.ScopeClase,
		TargetID:          "cl1",
		CostBus:           200,
		CostEntry:         10,
		EstimatedStudents: 25,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, exc.ID)
	assert.Equal(t, "u2", exc.CreatorID)
	assert.Equal(t, models.StatusActive, exc.Status)
	assert.Equal(t, 18.0, exc.CostGlobal)

	// one participation per student of cl1
	parts := c.GetParticipations()
	require.Len(t, parts, 2)
	for _, p := range parts {
		assert.Equal(t, exc.ID, p.ExcursionID)
		assert.False(t, p.Paid)
	}

	assert.Len(t, fs.callsTo("POST", "/api/sync/excursions"), 1)
	assert.Len(t, fs.callsTo("POST", "/api/sync/participations/bulk"), 1)
}

func TestAddExcursion_Rules(t *testing.T) {
	fs := newFakeServer(t, baseSnapshot())
	c := openTestClient(t, fs)

	treasury := models.User{ID: "u3", Role: models.RoleTesoreria}
	_, err := c.AddExcursion(treasury, models.Excursion{Title: "X", Scope: models.ScopeGlobal})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	tutor := models.User{ID: "u2", Role: models.RoleTutor, ClassID: "cl1"}
	_, err = c.AddExcursion(tutor, models.Excursion{Title: "X", Scope: models.ScopeCiclo})
	assert.ErrorIs(t, err, ErrMissingTarget)
}

/// Changing the audience drops old participations and builds new ones.
func TestUpdateExcursion_AudienceChangeRegenerates(t *testing.T) {
	fs := newFakeServer(t, baseSnapshot())
	c := openTestClient(t, fs)

	direccion := models.User{ID: "u1", Role: models.RoleDireccion}
	exc, err := c.AddExcursion(direccion, models.Excursion{
		Title: "Museo", Scope: models.ScopeClase, TargetID: "cl1",
	})
	require.NoError(t, err)
	require.Len(t, c.GetParticipations(), 2) // s1, s2

	exc.TargetID = "cl2"
	require.NoError(t, c.UpdateExcursion(direccion, exc))

	parts := c.GetParticipations()
	require.Len(t, parts, 1)
	assert.Equal(t, "s3", parts[0].StudentID)
}

func TestUpdateExcursion_Unknown(t *testing.T) {
	fs := newFakeServer(t, baseSnapshot())
	c := openTestClient(t, fs)

	err := c.UpdateExcursion(models.User{Role: models.RoleDireccion},
		models.Excursion{ID: "e99"})
	assert.ErrorIs(t, err, ErrUnknownRecord)
}

func TestUpdateExcursion_TreasuryOnlyBudgetFields(t *testing.T) {
	snap := baseSnapshot()
	snap.Excursions = []models.Excursion{
		{
			ID: "e1", Title: "Zoo", Destination: "Madrid",
			Scope: models.ScopeGlobal, CreatorID: "u1",
			CostBus: 100, EstimatedStudents: 20, CostGlobal: 5,
		},
	}
	fs := newFakeServer(t, snap)
	c := openTestClient(t, fs)

	treasury := models.User{ID: "u3", Role: models.RoleTesoreria}
	edit := snap.Excursions[0]
	edit.Title = "Renamed"
	edit.Destination = "Toledo"
	edit.CostBus = 200
	edit.EstimatedStudents = 10
	require.NoError(t, c.UpdateExcursion(treasury, edit))

	got := c.GetExcursions()[0]
	assert.Equal(t, "Zoo", got.Title)
	assert.Equal(t, "Madrid", got.Destination)
	assert.Equal(t, 200.0, got.CostBus)
	assert.Equal(t, 20.0, got.CostGlobal)
}

func TestDeleteExcursion_CreatorRule(t *testing.T) {
	snap := baseSnapshot()
	snap.Excursions = []models.Excursion{
		{ID: "e1", Title: "Zoo", Scope: models.ScopeGlobal, CreatorID: "u1"},
	}
	snap.Participations = []models.Participation{
		{ID: "p1", StudentID: "s1", ExcursionID: "e1"},
	}
	fs := newFakeServer(t, snap)
	c := openTestClient(t, fs)

	tutor := models.User{ID: "u2", Role: models.RoleTutor}
	assert.ErrorIs(t, c.DeleteExcursion(tutor, "e1"), ErrNotCreator)

	treasury := models.User{ID: "u3", Role: models.RoleTesoreria}
	assert.ErrorIs(t, c.DeleteExcursion(treasury, "e1"), ErrNotAuthorized)

	direccion := models.User{ID: "u1", Role: models.RoleDireccion}
	require.NoError(t, c.DeleteExcursion(direccion, "e1"))

	assert.Empty(t, c.GetExcursions())
	assert.Empty(t, c.GetParticipations())
	assert.Len(t, fs.callsTo("DELETE", "/api/sync/excursions/e1"), 1)
	assert.Len(t, fs.callsTo("DELETE", "/api/sync/participations/p1"), 1)
}

// ------------------- participations -------------------

func TestToggleParticipation(t *testing.T) {
	snap := baseSnapshot()
	snap.Excursions = []models.Excursion{
		{ID: "e1", Title: "Zoo", Scope: models.ScopeGlobal, CostGlobal: 18},
	}
	snap.Participations = []models.Participation{
		{ID: "p1", StudentID: "s1", ExcursionID: "e1"},
		{ID: "p3", StudentID: "s3", ExcursionID: "e1"},
	}
	fs := newFakeServer(t, snap)
	c := openTestClient(t, fs)

	treasury := models.User{ID: "u3", Role: models.RoleTesoreria}
	assert.ErrorIs(t,
		c.ToggleParticipation(treasury, false, "p1", derive.FieldPaid),
		ErrTreasuryReadOnly)

	// a tutor cannot touch another class's student
	tutor := models.User{ID: "u2", Role: models.RoleTutor, ClassID: "cl1"}
	assert.ErrorIs(t,
		c.ToggleParticipation(tutor, false, "p3", derive.FieldPaid),
		ErrNotAuthorized)

	require.NoError(t, c.ToggleParticipation(tutor, false, "p1", derive.FieldPaid))
	parts := c.GetParticipations()
	assert.True(t, parts[0].Paid)
	assert.Equal(t, 18.0, parts[0].AmountPaid)
	assert.NotEmpty(t, parts[0].PaymentDate)

	assert.Len(t, fs.callsTo("POST", "/api/sync/participations"), 1)
}

// ------------------- snapshot restore -------------------

func TestImportSnapshot(t *testing.T) {
	fs := newFakeServer(t, baseSnapshot())
	c := openTestClient(t, fs)

	// mandatory keys missing
	assert.ErrorIs(t, c.ImportSnapshot(models.Snapshot{}), ErrInvalidSnapshot)

	next := models.Snapshot{
		Users:      []models.User{{ID: "u9", Name: "Nueva"}},
		Excursions: []models.Excursion{},
	}
	require.NoError(t, c.ImportSnapshot(next))

	users := c.GetUsers()
	require.Len(t, users, 1)
	assert.Equal(t, "u9", users[0].ID)
	assert.Len(t, fs.callsTo("POST", "/api/restore"), 1)
}
