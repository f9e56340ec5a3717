package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// navigationIntentWindow is how long an announced client-side page
// navigation suppresses the leave_game_room it incidentally fires.
const navigationIntentWindow = 3 * time.Second

// playerConn is the connection actor for one websocket client: a ReadPump
// decoding inbound envelopes and a WritePump draining the outbox. It is the
// concrete Session the rooms talk to.
type playerConn struct {
	id      string
	socket  NetworkSession
	lobby   *lobby
	limiter *rate.Limiter

	outbox   chan []byte
	pingChan chan struct{}

	mu       sync.Mutex
	room     *Room
	closed   bool
	navUntil time.Time
}

func newPlayerConn(socket NetworkSession, l *lobby) *playerConn {
	return &playerConn{
		id:       uuid.NewString(),
		socket:   socket,
		lobby:    l,
		limiter:  rate.NewLimiter(10, 20),
		outbox:   make(chan []byte, 256),
		pingChan: make(chan struct{}, 1),
	}
}

func (p *playerConn) ID() string { return p.id }

func (p *playerConn) AttachRoom(r *Room) {
	p.mu.Lock()
	p.room = r
	p.mu.Unlock()
}

func (p *playerConn) currentRoom() *Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.room
}

func (p *playerConn) SetNavigationIntent(until time.Time) {
	p.mu.Lock()
	p.navUntil = until
	p.mu.Unlock()
}

func (p *playerConn) NavigationIntentActive(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return now.Before(p.navUntil)
}

// Send marshals the event onto the write pump. Slow consumers get dropped
// frames rather than stalling the room actor.
func (p *playerConn) Send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Str("event", event).Err(err).Msg("marshal outbound payload")
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.outbox <- frame:
	default:
		log.Warn().Str("conn", p.id).Str("event", event).Msg("outbox full, dropping frame")
	}
}

func (p *playerConn) Ping() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
	return nil
}

// CancelAndRelease tears the connection down. Safe to call more than once.
func (p *playerConn) CancelAndRelease() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.outbox)
	close(p.pingChan)
	p.mu.Unlock()
}

func (p *playerConn) ReadPump() {
	defer func() {
		if room := p.currentRoom(); room != nil {
			room.RequestDisconnect(p)
		}
		p.CancelAndRelease()
	}()

	for {
		data, err := p.socket.Read()
		if err != nil {
			return
		}
		if !p.limiter.Allow() {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		p.route(env)
	}
}

func (p *playerConn) route(env Envelope) {
	switch env.Event {
	case EvJoinRoom:
		var payload JoinRoomPayload
		if json.Unmarshal(env.Data, &payload) != nil || payload.RoomID == "" || payload.Username == "" {
			return
		}
		p.lobby.ForwardPlayerJoinRequestToRoom(context.Background(), roomJoinRequest{
			roomID:   payload.RoomID,
			username: payload.Username,
			avatar:   payload.Avatar,
			isHost:   payload.IsHost,
			create:   true,
			session:  p,
			errChan:  make(chan error, 1),
		})
	case EvReconnectInfo:
		var payload UsernamePayload
		if json.Unmarshal(env.Data, &payload) != nil || payload.RoomID == "" || payload.Username == "" {
			return
		}
		p.lobby.ForwardPlayerJoinRequestToRoom(context.Background(), roomJoinRequest{
			roomID:   payload.RoomID,
			username: payload.Username,
			create:   false,
			session:  p,
			errChan:  make(chan error, 1),
		})
	case EvNavigationIntent:
		p.SetNavigationIntent(time.Now().Add(navigationIntentWindow))
	default:
		room := p.currentRoom()
		if room == nil {
			return
		}
		payload, ok := decodeRoomEvent(env)
		if !ok {
			return
		}
		room.Send(clientEventEnvelope{event: env.Event, payload: payload, from: p})
	}
}

// decodeRoomEvent maps an event name to its typed payload. Unknown events
// are dropped here so the room actor only ever sees well-formed envelopes.
func decodeRoomEvent(env Envelope) (any, bool) {
	unmarshal := func(dst any) bool {
		return json.Unmarshal(env.Data, dst) == nil
	}

	switch env.Event {
	case EvLeaveGameRoom, EvLockRoom, EvUnlockRoom:
		var p RoomOnlyPayload
		return p, unmarshal(&p)
	case EvPlayerReady, EvPlayerNotReady, EvKickPlayer:
		var p UsernamePayload
		return p, unmarshal(&p)
	case EvUpdateSettings:
		var p SettingsPayload
		return p, unmarshal(&p)
	case EvStartGame:
		var p StartGamePayload
		return p, unmarshal(&p)
	case EvMafiaVote, EvDoctorHeal, EvDetectiveInvestigate, EvDayVote:
		var p TargetPayload
		return p, unmarshal(&p)
	case EvChatMessage:
		var p ChatPayload
		return p, unmarshal(&p)
	}
	return nil, false
}

func (p *playerConn) WritePump() {
loop:
	for {
		select {
		case data, ok := <-p.outbox:
			if !ok {
				break loop
			}
			if err := p.socket.Write(data); err != nil {
				break loop
			}
		case _, ok := <-p.pingChan:
			if !ok {
				break loop
			}
			if err := p.socket.Ping(); err != nil {
				break loop
			}
		}
	}
	p.socket.Close("")
}
