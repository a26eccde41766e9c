// Package models defines data structures used across the application.
// File: models/models.go
package models

// ----------------------- enums -----------------------

// Role identifies what a user is allowed to see and mutate.
type Role string

const (
	RoleDireccion    Role = "DIRECCION"
	RoleTutor        Role = "TUTOR"
	RoleTesoreria    Role = "TESORERIA"
	RoleCoordinacion Role = "COORDINACION"
	RoleAdmin        Role = "ADMIN"
)

// IsAdministrative reports whether the role sees every excursion and
// every class in listings.
func (r Role) IsAdministrative() bool {
	return r == RoleDireccion || r == RoleTesoreria || r == RoleAdmin
}

// Scope is the audience breadth of an excursion.
type Scope string

const (
	ScopeGlobal Scope = "GLOBAL" // whole school
	ScopeCiclo  Scope = "CICLO"  // one cycle
	ScopeClase  Scope = "CLASE"  // one class
)

// Clothing is the dress code announced for a trip.
type Clothing string

const (
	ClothingUniform Clothing = "UNIFORM"
	ClothingPEKit   Clothing = "PE_KIT"
	ClothingStreet  Clothing = "STREET"
)

// Transport is how the group travels.
type Transport string

const (
	TransportBus     Transport = "BUS"
	TransportWalking Transport = "WALKING"
	TransportOther   Transport = "OTHER"
)

// Status marks excursions that were called off or moved.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
	StatusPostponed Status = "POSTPONED"
)

// ----------------------- user model -----------------------

// User is a staff account. A TUTOR owns at most one class via ClassID;
// CoordinatorCycleID optionally widens their view to a whole cycle.
type User struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	Password           string `json:"password,omitempty"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               Role   `json:"role"`
	ClassID            string `json:"classId,omitempty"`
	CoordinatorCycleID string `json:"coordinatorCycleId,omitempty"`
}

// ----------------------- school structure -----------------------

// Cycle groups consecutive grade levels, e.g. "Primaria 1º Ciclo".
// Seeded once, treated as immutable reference data.
type Cycle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClassGroup is one class inside a cycle. TutorID back-references the
// user tutoring it; at most one live class may reference a given tutor.
type ClassGroup struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	CycleID string `json:"cycleId"`
	TutorID string `json:"tutorId"`
}

// Student belongs to exactly one class.
type Student struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	ClassID string `json:"classId"`
}

// ----------------------- excursion model -----------------------

// Excursion is one school trip. TargetID references a cycle (CICLO) or a
// class (CLASE) and is empty for GLOBAL trips. CostGlobal is the derived
// per-student price; CostGlobalManual marks a treasury override that
// survives until any budget input changes again.
type Excursion struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Justification     string    `json:"justification,omitempty"`
	Destination       string    `json:"destination"`
	DateStart         string    `json:"dateStart"`
	DateEnd           string    `json:"dateEnd"`
	Clothing          Clothing  `json:"clothing,omitempty"`
	Transport         Transport `json:"transport,omitempty"`
	CostBus           float64   `json:"costBus"`
	CostOther         float64   `json:"costOther,omitempty"`
	CostEntry         float64   `json:"costEntry"`
	CostGlobal        float64   `json:"costGlobal"`
	CostGlobalManual  bool      `json:"costGlobalManual,omitempty"`
	EstimatedStudents int       `json:"estimatedStudents,omitempty"`
	Scope             Scope     `json:"scope"`
	TargetID          string    `json:"targetId,omitempty"`
	CreatorID         string    `json:"creatorId"`
	Status            Status    `json:"status,omitempty"`
}

// ----------------------- participation model -----------------------

// Participation is the per-student record of authorisation, payment and
// attendance for one excursion. At most one exists per
// (StudentID, ExcursionID) pair.
type Participation struct {
	ID          string  `json:"id"`
	StudentID   string  `json:"studentId"`
	ExcursionID string  `json:"excursionId"`
	AuthSigned  bool    `json:"authSigned"`
	AuthDate    string  `json:"authDate,omitempty"`
	Paid        bool    `json:"paid"`
	AmountPaid  float64 `json:"amountPaid"`
	PaymentDate string  `json:"paymentDate,omitempty"`
	Attended    bool    `json:"attended"`
}

// ----------------------- snapshot -----------------------

// Snapshot is the full database document exchanged with the store on
// bootstrap, resync and restore.
type Snapshot struct {
	Users          []User          `json:"users"`
	Cycles         []Cycle         `json:"cycles"`
	Classes        []ClassGroup    `json:"classes"`
	Students       []Student       `json:"students"`
	Excursions     []Excursion     `json:"excursions"`
	Participations []Participation `json:"participations"`
}

// Entity names accepted by the sync endpoints, in snapshot order.
const (
	EntityUsers          = "users"
	EntityCycles         = "cycles"
	EntityClasses        = "classes"
	EntityStudents       = "students"
	EntityExcursions     = "excursions"
	EntityParticipations = "participations"
)

// EntityNames lists every syncable collection.
var EntityNames = []string{
	EntityUsers,
	EntityCycles,
	EntityClasses,
	EntityStudents,
	EntityExcursions,
	EntityParticipations,
}

// KnownEntity reports whether name is one of the six collections.
func KnownEntity(name string) bool {
	for _, n := range EntityNames {
		if n == name {
			return true
		}
	}
	return false
}

// DBUpdate is the event-channel payload pushed to every client after a
// write. SourceSocketID lets the writing client drop its own echo.
type DBUpdate struct {
	Type           string `json:"type"`
	Entity         string `json:"entity"`
	Action         string `json:"action"`
	ID             string `json:"id,omitempty"`
	Count          int    `json:"count,omitempty"`
	SourceSocketID string `json:"sourceSocketId"`
}

// Actions carried by DBUpdate.
const (
	ActionUpdate     = "update"
	ActionBulkUpdate = "bulk_update"
	ActionDelete     = "delete"
	ActionRestore    = "restore"
)
