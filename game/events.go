package game

import "encoding/json"

// Wire envelope: every frame is {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names.
const (
	EvJoinRoom             = "join_room"
	EvLeaveGameRoom        = "leave_game_room"
	EvPlayerReady          = "player_ready"
	EvPlayerNotReady       = "player_not_ready"
	EvKickPlayer           = "kick_player"
	EvLockRoom             = "lock_room"
	EvUnlockRoom           = "unlock_room"
	EvUpdateSettings       = "update_settings"
	EvStartGame            = "start_game"
	EvMafiaVote            = "mafia_vote"
	EvDoctorHeal           = "doctor_heal"
	EvDetectiveInvestigate = "detective_investigate"
	EvDayVote              = "day_vote"
	EvChatMessage          = "chat_message"
	EvReconnectInfo        = "reconnect_info"
	EvNavigationIntent     = "navigation_intent"
)

// Outbound event names.
const (
	EvRoomPlayersList   = "room_players_list"
	EvLobbyTimer        = "lobby_timer"
	EvSettingsUpdated   = "settings_updated"
	EvGameStarted       = "game_started"
	EvStartCountdown    = "start_countdown"
	EvCountdownUpdate   = "countdown_update"
	EvAssignRole        = "assign_role"
	EvMafiaTeammates    = "mafia_teammates"
	EvPhaseTimerUpdate  = "phase_timer_update"
	EvPhaseChange       = "phase_change"
	EvDayPhaseStart     = "day_phase_start"
	EvDayVoteResult     = "day_vote_result"
	EvDetectiveResult   = "detective_result"
	EvMafiaVoteUpdate   = "mafia_vote_update"
	EvDayVoteUpdate     = "day_vote_update"
	EvGameOver          = "game_over"
	EvRoomLockedError   = "room_locked_error"
	EvYouWereKicked     = "you_were_kicked"
	EvRoomNotFound      = "room_not_found"
	EvReceiveMessage    = "receive_message"
	EvPlayerJoined      = "player_joined"
	EvPlayerLeft        = "player_left"
	EvPlayerReconnected = "player_reconnected"
)

// --- inbound payloads ---

type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	IsHost   bool   `json:"isHost"`
	Avatar   string `json:"avatar,omitempty"`
}

type RoomOnlyPayload struct {
	RoomID string `json:"roomId"`
}

type UsernamePayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type SettingsPayload struct {
	RoomID   string       `json:"roomId"`
	Settings GameSettings `json:"settings"`
}

type StartGamePayload struct {
	RoomID   string        `json:"roomId"`
	Settings *GameSettings `json:"settings,omitempty"`
	DevMode  bool          `json:"devMode,omitempty"`
}

type TargetPayload struct {
	RoomID string `json:"roomId"`
	Target string `json:"targetUsername"`
}

type ChatPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// --- outbound payloads ---

type PlayerView struct {
	Username     string `json:"username"`
	Avatar       string `json:"avatar,omitempty"`
	IsAlive      bool   `json:"isAlive"`
	Disconnected bool   `json:"disconnected,omitempty"`
}

type RoomPlayersListPayload struct {
	Players      []PlayerView `json:"players"`
	ReadyPlayers []string     `json:"readyPlayers"`
	AllReady     bool         `json:"allReady"`
	Host         string       `json:"host,omitempty"`
}

type LobbyTimerPayload struct {
	StartTime  int64 `json:"startTime"`
	DurationMs int64 `json:"durationMs"`
}

type SettingsUpdatedPayload struct {
	Settings GameSettings `json:"settings"`
	Locked   bool         `json:"locked"`
}

type GameStateView struct {
	Phase         string       `json:"phase"`
	PhaseTime     int          `json:"phaseTime"`
	Players       []PlayerView `json:"players"`
	Transitioning bool         `json:"transitioning"`
}

type CountdownPayload struct {
	Seconds int `json:"seconds"`
}

type AssignRolePayload struct {
	Role Role `json:"role"`
}

type MafiaTeammatesPayload struct {
	Usernames []string `json:"usernames"`
}

type PhaseTimerUpdatePayload struct {
	Phase         string `json:"phase"`
	RemainingTime int    `json:"remainingTime"`
}

type PhaseChangePayload struct {
	Phase   string       `json:"phase"`
	Players []PlayerView `json:"players"`
}

// MafiaActionView is the resolved night kill: Target is empty when no one
// died (tie or no votes), Protected marks a doctor save.
type MafiaActionView struct {
	Target    string `json:"target,omitempty"`
	Protected bool   `json:"protected,omitempty"`
}

type DayPhaseStartPayload struct {
	MafiaAction *MafiaActionView `json:"mafiaAction"`
	Players     []PlayerView     `json:"players"`
}

type DayVoteResultPayload struct {
	EliminatedPlayer *string      `json:"eliminatedPlayer"`
	Players          []PlayerView `json:"players"`
}

type DetectiveResultPayload struct {
	Target  string `json:"target"`
	IsMafia bool   `json:"isMafia"`
}

type VoteTallyPayload struct {
	Votes map[string]int `json:"votes"`
}

type PlayerRoleReveal struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	WasAlive bool   `json:"wasAlive"`
}

type GameOverPayload struct {
	Winner      string             `json:"winner"`
	PlayerRoles []PlayerRoleReveal `json:"playerRoles"`
	JesterName  string             `json:"jesterName,omitempty"`
}

type ChatRelayPayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type PlayerAnnouncePayload struct {
	Username string `json:"username"`
}
