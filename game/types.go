package game

import (
	"time"
)

// Role is the wire-level role name assigned to a player at game start.
type Role string

const (
	RoleWaiting   Role = "Waiting"
	RoleCivilian  Role = "Civilian"
	RoleMafia     Role = "Mafia"
	RoleDetective Role = "Detective"
	RoleDoctor    Role = "Doctor"
	RoleJester    Role = "Jester"
)

type RoomPhase int

const (
	PhaseLobby RoomPhase = iota
	PhaseCountdown
	PhaseRoleReveal
	PhaseNight
	PhaseDay
	PhaseEnded
)

func (p RoomPhase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseCountdown:
		return "countdown"
	case PhaseRoleReveal:
		return "role_reveal"
	case PhaseNight:
		return "night"
	case PhaseDay:
		return "day"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// GameSettings is host-controlled and fixed once the game starts.
type GameSettings struct {
	DayDurationSeconds   int  `json:"dayDurationSeconds"`
	NightDurationSeconds int  `json:"nightDurationSeconds"`
	MafiaPercentage      int  `json:"mafiaPercentage"`
	DetectiveEnabled     bool `json:"detectiveEnabled"`
	DoctorEnabled        bool `json:"doctorEnabled"`
	JesterEnabled        bool `json:"jesterEnabled"`
}

func DefaultSettings() GameSettings {
	return GameSettings{
		DayDurationSeconds:   90,
		NightDurationSeconds: 45,
		MafiaPercentage:      25,
		DetectiveEnabled:     true,
		DoctorEnabled:        true,
		JesterEnabled:        false,
	}
}

// normalize clamps settings a client could have tampered with.
func (s GameSettings) normalize() GameSettings {
	if s.MafiaPercentage < 20 {
		s.MafiaPercentage = 20
	}
	if s.MafiaPercentage > 40 {
		s.MafiaPercentage = 40
	}
	if s.DayDurationSeconds <= 0 {
		s.DayDurationSeconds = DefaultSettings().DayDurationSeconds
	}
	if s.NightDurationSeconds <= 0 {
		s.NightDurationSeconds = DefaultSettings().NightDurationSeconds
	}
	return s
}

// PlayerState is the room's authoritative record for one player. Identity is
// the username; the session is the current transport connection and is nil
// while the player is disconnected mid-game.
type PlayerState struct {
	username       string
	avatar         string
	role           Role
	isAlive        bool
	ready          bool
	disconnected   bool
	disconnectTime time.Time
	session        Session
}

// Session is the transport side of a player: a live connection that can be
// written to and torn down. Rooms only ever see this interface, never a raw
// websocket, so tests can substitute mocks.
type Session interface {
	ID() string
	Send(event string, payload any)
	Ping() error
	AttachRoom(r *Room)
	CancelAndRelease()
	SetNavigationIntent(until time.Time)
	NavigationIntentActive(now time.Time) bool
}

// Lobby is the room's view of its parent registry.
type Lobby interface {
	RequestUpdateDescription(desc roomDescription)
	RemoveRoom(roomID string)
}

// roomDescription is the room's self-report to the lobby, used for the
// periodic garbage-collection sweep.
type roomDescription struct {
	id             string
	playersCount   int
	connectedCount int
	started        bool
	ended          bool
	lastActivity   time.Time
}

// roomJoinRequest travels client -> lobby -> room. create distinguishes
// join_room (creates missing rooms) from reconnect_info (must exist).
type roomJoinRequest struct {
	roomID   string
	username string
	avatar   string
	isHost   bool
	create   bool
	session  Session
	errChan  chan error
}

// clientEventEnvelope is one decoded inbound event, queued on the room inbox.
type clientEventEnvelope struct {
	event   string
	payload any
	from    Session
}

// dataSendTask is one pending outbound event. Handlers append tasks and the
// actor loop flushes them, which keeps every handler synchronous and
// assertable in tests.
type dataSendTask struct {
	to      Session
	event   string
	payload any
}

type pingSendTask struct {
	to Session
}

// PeriodicTickerChannelCreator lets tests feed fake ticks to the lobby.
type PeriodicTickerChannelCreator interface {
	Create(d time.Duration) <-chan time.Time
}

// UniqueIdGenerator issues room codes and recycles them when rooms die.
type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}
