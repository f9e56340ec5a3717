package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"mafia/logger"
)

// Timer purposes. The deadline table holds at most one deadline per purpose,
// so rescheduling a purpose always replaces the stale one.
const (
	timerCountdown  = "countdown"
	timerReveal     = "reveal"
	timerPhase      = "phase"
	timerTransition = "transition"
)

const (
	preGameCountdownSeconds = 5
	roleRevealDelay         = 3 * time.Second
	phaseTransitionBuffer   = 5 * time.Second
	kickBanWindow           = 10 * time.Second
	defaultLobbyTimer       = 60 * time.Second
)

// Room is an isolated game instance. All state below is owned by the room's
// actor goroutine: every mutation happens inside a handleX method invoked
// from GameLoop, so handlers need no locking and tests can call them
// directly and assert the outbox.
type Room struct {
	id          string
	log         zerolog.Logger
	parentLobby Lobby
	clock       func() time.Time
	shuffleFn   func(n int, swap func(i, j int))

	host     string
	locked   bool
	settings GameSettings
	players  []*PlayerState
	kickBans map[string]time.Time

	createdAt          time.Time
	lastActivity       time.Time
	lobbyTimerStart    time.Time
	lobbyTimerDuration time.Duration

	phase         RoomPhase
	pendingPhase  RoomPhase
	transitioning bool
	devMode       bool
	countdown     int
	deadlines     map[string]time.Time

	// Night ledger, cleared on every night resolution.
	mafiaVotes   map[string]string
	healTarget   string
	healUsed     bool
	investigated map[string]bool

	// Day ledger, cleared on every day resolution.
	dayVotes map[string]string

	rosterLimiter *rate.Limiter
	rosterDirty   bool

	dataSendTasks   []dataSendTask
	pingSendTasks   []pingSendTask
	sessionsToClose []Session

	inbox        chan clientEventEnvelope
	ticks        chan time.Time
	pingPlayers  chan struct{}
	joinRequests chan roomJoinRequest
	disconnects  chan Session

	done      chan struct{}
	closeOnce sync.Once
}

func NewRoom(id string, settings GameSettings) *Room {
	now := time.Now()
	return &Room{
		id:                 id,
		log:                logger.Room(id),
		clock:              time.Now,
		shuffleFn:          rand.Shuffle,
		settings:           settings.normalize(),
		players:            make([]*PlayerState, 0, 16),
		kickBans:           make(map[string]time.Time),
		createdAt:          now,
		lastActivity:       now,
		lobbyTimerStart:    now,
		lobbyTimerDuration: defaultLobbyTimer,
		phase:              PhaseLobby,
		deadlines:          make(map[string]time.Time),
		mafiaVotes:         make(map[string]string),
		investigated:       make(map[string]bool),
		dayVotes:           make(map[string]string),
		rosterLimiter:      rate.NewLimiter(rate.Every(time.Second), 1),
		inbox:              make(chan clientEventEnvelope, 1024),
		ticks:              make(chan time.Time, 24),
		pingPlayers:        make(chan struct{}, 1),
		joinRequests:       make(chan roomJoinRequest, 64),
		disconnects:        make(chan Session, 64),
		done:               make(chan struct{}),
	}
}

func (r *Room) SetParentLobby(l Lobby) { r.parentLobby = l }

// --- actor surface, called from other goroutines ---

func (r *Room) Send(env clientEventEnvelope) {
	select {
	case r.inbox <- env:
	case <-r.done:
	}
}

func (r *Room) RequestJoin(jr roomJoinRequest) {
	select {
	case r.joinRequests <- jr:
	case <-r.done:
		jr.errChan <- ErrRoomNotFound
	}
}

func (r *Room) RequestDisconnect(s Session) {
	select {
	case r.disconnects <- s:
	case <-r.done:
	}
}

func (r *Room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

func (r *Room) PingPlayers() {
	select {
	case r.pingPlayers <- struct{}{}:
	default:
	}
}

func (r *Room) CloseAndRelease() {
	r.closeOnce.Do(func() { close(r.done) })
}

// GameLoop is the room actor. It serializes every mutation and flushes the
// outbox after each handled message.
func (r *Room) GameLoop() {
	for {
		select {
		case <-r.done:
			return
		case env := <-r.inbox:
			r.dispatch(env)
			r.flush()
		case now := <-r.ticks:
			r.handleTick(now)
			r.flush()
		case <-r.pingPlayers:
			r.queuePings()
			r.flushPings()
		case jr := <-r.joinRequests:
			r.handleJoinRequest(jr)
			r.flush()
		case s := <-r.disconnects:
			r.handleDisconnect(s)
			r.flush()
		}
	}
}

func (r *Room) dispatch(env clientEventEnvelope) {
	r.lastActivity = r.clock()

	switch env.event {
	case EvLeaveGameRoom:
		r.handleLeave(env.from)
	case EvPlayerReady:
		p, _ := env.payload.(UsernamePayload)
		r.handleReady(p.Username, true, env.from)
	case EvPlayerNotReady:
		p, _ := env.payload.(UsernamePayload)
		r.handleReady(p.Username, false, env.from)
	case EvKickPlayer:
		p, _ := env.payload.(UsernamePayload)
		r.handleKick(p.Username, env.from)
	case EvLockRoom:
		r.handleSetLocked(true, env.from)
	case EvUnlockRoom:
		r.handleSetLocked(false, env.from)
	case EvUpdateSettings:
		p, _ := env.payload.(SettingsPayload)
		r.handleUpdateSettings(p.Settings, env.from)
	case EvStartGame:
		p, _ := env.payload.(StartGamePayload)
		r.handleStartGame(p, env.from)
	case EvMafiaVote:
		p, _ := env.payload.(TargetPayload)
		r.handleMafiaVote(p.Target, env.from)
	case EvDoctorHeal:
		p, _ := env.payload.(TargetPayload)
		r.handleDoctorHeal(p.Target, env.from)
	case EvDetectiveInvestigate:
		p, _ := env.payload.(TargetPayload)
		r.handleDetectiveInvestigate(p.Target, env.from)
	case EvDayVote:
		p, _ := env.payload.(TargetPayload)
		r.handleDayVote(p.Target, env.from)
	case EvChatMessage:
		p, _ := env.payload.(ChatPayload)
		r.handleChatMessage(p, env.from)
	}
}

// --- outbox ---

func (r *Room) sendTo(s Session, event string, payload any) {
	if s == nil {
		return
	}
	r.dataSendTasks = append(r.dataSendTasks, dataSendTask{to: s, event: event, payload: payload})
}

func (r *Room) broadcast(event string, payload any) {
	for _, p := range r.players {
		r.sendTo(p.session, event, payload)
	}
}

// broadcastMafia reaches living mafia members only.
func (r *Room) broadcastMafia(event string, payload any) {
	for _, p := range r.players {
		if p.role == RoleMafia && p.isAlive {
			r.sendTo(p.session, event, payload)
		}
	}
}

func (r *Room) flush() {
	for _, task := range r.dataSendTasks {
		task.to.Send(task.event, task.payload)
	}
	r.dataSendTasks = r.dataSendTasks[:0]

	// Teardowns run after the sends so a kicked player still receives the
	// notice queued for them.
	for _, s := range r.sessionsToClose {
		s.CancelAndRelease()
	}
	r.sessionsToClose = r.sessionsToClose[:0]
}

func (r *Room) queuePings() {
	for _, p := range r.players {
		if p.session != nil {
			r.pingSendTasks = append(r.pingSendTasks, pingSendTask{to: p.session})
		}
	}
}

func (r *Room) flushPings() {
	for _, task := range r.pingSendTasks {
		task.to.Ping()
	}
	r.pingSendTasks = r.pingSendTasks[:0]
}

// --- lookups and views ---

func (r *Room) find(username string) *PlayerState {
	for _, p := range r.players {
		if p.username == username {
			return p
		}
	}
	return nil
}

func (r *Room) findBySession(s Session) *PlayerState {
	if s == nil {
		return nil
	}
	for _, p := range r.players {
		if p.session != nil && p.session.ID() == s.ID() {
			return p
		}
	}
	return nil
}

func (r *Room) playerViews() []PlayerView {
	views := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		views = append(views, PlayerView{
			Username:     p.username,
			Avatar:       p.avatar,
			IsAlive:      p.isAlive,
			Disconnected: p.disconnected,
		})
	}
	return views
}

func (r *Room) rosterPayload() RoomPlayersListPayload {
	ready := make([]string, 0, len(r.players))
	for _, p := range r.players {
		if p.ready {
			ready = append(ready, p.username)
		}
	}
	return RoomPlayersListPayload{
		Players:      r.playerViews(),
		ReadyPlayers: ready,
		AllReady:     len(ready) == len(r.players) && len(r.players) > 0,
		Host:         r.host,
	}
}

func (r *Room) lobbyTimerPayload() LobbyTimerPayload {
	return LobbyTimerPayload{
		StartTime:  r.lobbyTimerStart.UnixMilli(),
		DurationMs: r.lobbyTimerDuration.Milliseconds(),
	}
}

func (r *Room) gameStateView() GameStateView {
	remaining := 0
	if deadline, ok := r.deadlines[timerPhase]; ok {
		remaining = secondsUntil(deadline, r.clock())
	}
	return GameStateView{
		Phase:         r.phase.String(),
		PhaseTime:     remaining,
		Players:       r.playerViews(),
		Transitioning: r.transitioning,
	}
}

// markRosterDirty broadcasts the roster immediately when the per-room rate
// limit allows it, otherwise defers to the next tick.
func (r *Room) markRosterDirty() {
	if r.rosterLimiter.Allow() {
		r.broadcastRoster()
		return
	}
	r.rosterDirty = true
}

func (r *Room) broadcastRoster() {
	r.rosterDirty = false
	r.broadcast(EvRoomPlayersList, r.rosterPayload())
	if r.phase == PhaseLobby {
		r.broadcast(EvLobbyTimer, r.lobbyTimerPayload())
	}
}

// --- timers ---

func (r *Room) schedule(purpose string, at time.Time) {
	r.deadlines[purpose] = at
}

func (r *Room) cancel(purpose string) {
	delete(r.deadlines, purpose)
}

func (r *Room) due(purpose string, now time.Time) bool {
	deadline, ok := r.deadlines[purpose]
	return ok && !now.Before(deadline)
}

func secondsUntil(deadline, now time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// --- lobby bookkeeping ---

func (r *Room) gameStarted() bool {
	return r.phase != PhaseLobby && r.phase != PhaseEnded
}

func (r *Room) description() roomDescription {
	connected := 0
	for _, p := range r.players {
		if !p.disconnected {
			connected++
		}
	}
	return roomDescription{
		id:             r.id,
		playersCount:   len(r.players),
		connectedCount: connected,
		started:        r.gameStarted(),
		ended:          r.phase == PhaseEnded,
		lastActivity:   r.lastActivity,
	}
}

func (r *Room) updateDescription() {
	if r.parentLobby != nil {
		r.parentLobby.RequestUpdateDescription(r.description())
	}
}
