package types

type ServiceMode string

// Journey Service - journey lifecycle, telemetry ingestion, admin reports and live feed
// Notifier Service - daily start-of-day push reminders
const (
	JourneyService  ServiceMode = "journey-service"
	NotifierService ServiceMode = "notifier-service"
)

// JourneyState is the lifecycle state of a journey.
// Active and InProgress are both open; Finalized is terminal.
type JourneyState string

const (
	StateActive     JourneyState = "active"
	StateInProgress JourneyState = "in_progress"
	StateFinalized  JourneyState = "finalized"
)

func (s JourneyState) String() string {
	return string(s)
}

// IsOpen reports whether samples can still be appended.
func (s JourneyState) IsOpen() bool {
	return s == StateActive || s == StateInProgress
}

// Enum для роли пользователя
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RoleEngineer  UserRole = "ingeniero"
	RoleInspector UserRole = "inspector"
	RoleAdmin     UserRole = "admin"
	RoleAnonymous UserRole = "anonymous"
)

// WorkerRoles are the roles that record journeys.
var WorkerRoles = []UserRole{RoleEngineer, RoleInspector}

type Transport string

const (
	TransportMotorcycle Transport = "moto"
	TransportCar        Transport = "carro"
)

type Region string

const (
	RegionRisaralda Region = "Risaralda"
	RegionCaldas    Region = "Caldas"
	RegionQuindio   Region = "Quindío"
)

func (r Region) Valid() bool {
	switch r {
	case RegionRisaralda, RegionCaldas, RegionQuindio:
		return true
	default:
		return false
	}
}
