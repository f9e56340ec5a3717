package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SweepPolicy is the garbage-collection schedule for dead rooms.
type SweepPolicy struct {
	Interval             time.Duration
	EmptyRoomGrace       time.Duration
	DisconnectedTimeout  time.Duration
	AbandonedGameTimeout time.Duration
}

func DefaultSweepPolicy() SweepPolicy {
	return SweepPolicy{
		Interval:             time.Minute,
		EmptyRoomGrace:       2 * time.Minute,
		DisconnectedTimeout:  10 * time.Minute,
		AbandonedGameTimeout: 30 * time.Minute,
	}
}

// lobby is the process-wide room registry, run as a single actor goroutine.
// It owns the rooms map and a cache of room self-descriptions; rooms never
// touch each other and all cross-room bookkeeping funnels through here.
type lobby struct {
	rooms        map[string]*Room
	descriptions map[string]roomDescription

	roomJoinReqs   chan roomJoinRequest
	removeRoomChan chan string
	descUpdateChan chan roomDescription

	idGenerator   UniqueIdGenerator
	tickerCreator PeriodicTickerChannelCreator
	sweepPolicy   SweepPolicy
	clock         func() time.Time
}

func NewLobby(idgen UniqueIdGenerator, tickerCreator PeriodicTickerChannelCreator, policy SweepPolicy) *lobby {
	return &lobby{
		rooms:          map[string]*Room{},
		descriptions:   map[string]roomDescription{},
		roomJoinReqs:   make(chan roomJoinRequest, 256),
		removeRoomChan: make(chan string, 32),
		descUpdateChan: make(chan roomDescription, 256),
		idGenerator:    idgen,
		tickerCreator:  tickerCreator,
		sweepPolicy:    policy,
		clock:          time.Now,
	}
}

func (l *lobby) RequestUpdateDescription(desc roomDescription) {
	select {
	case l.descUpdateChan <- desc:
	default:
	}
}

func (l *lobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, jr roomJoinRequest) {
	select {
	case l.roomJoinReqs <- jr:
	case <-ctx.Done():
	}
}

func (l *lobby) RemoveRoom(roomID string) {
	l.removeRoomChan <- roomID
}

// LobbyActor drives the registry: joins, removals, description updates, a
// 1 s game tick fanned to every room, a 30 s ping fan-out, and the periodic
// cleanup sweep.
func (l *lobby) LobbyActor(started chan struct{}) {
	ticker := l.tickerCreator.Create(time.Second)
	pingTicker := l.tickerCreator.Create(time.Second * 30)
	sweepTicker := l.tickerCreator.Create(l.sweepPolicy.Interval)

	close(started)

	for {
		select {
		case now := <-ticker:
			for _, r := range l.rooms {
				r.Tick(now)
			}
		case <-pingTicker:
			for _, r := range l.rooms {
				r.PingPlayers()
			}
		case <-sweepTicker:
			l.handleSweep(l.clock())

		case roomID := <-l.removeRoomChan:
			l.handleRemoveRoom(roomID)

		case desc := <-l.descUpdateChan:
			// Ignore updates from rooms already removed; a room may report
			// once more while its removal is in flight.
			if _, ok := l.rooms[desc.id]; ok {
				l.descriptions[desc.id] = desc
			}

		case jr := <-l.roomJoinReqs:
			l.handleJoinReq(jr)
		}
	}
}

// handleJoinReq routes a join to its room, creating the room on first join.
// reconnect_info requests never create; a vanished room answers
// room_not_found so the client can fall back home.
func (l *lobby) handleJoinReq(jr roomJoinRequest) {
	room, ok := l.rooms[jr.roomID]
	if !ok {
		if !jr.create {
			jr.session.Send(EvRoomNotFound, RoomOnlyPayload{RoomID: jr.roomID})
			jr.errChan <- ErrRoomNotFound
			return
		}
		room = NewRoom(jr.roomID, DefaultSettings())
		room.SetParentLobby(l)
		l.rooms[jr.roomID] = room
		l.descriptions[jr.roomID] = room.description()
		go room.GameLoop()
		log.Info().Str("room", jr.roomID).Msg("room created on first join")
	}
	room.RequestJoin(jr)
}

// NewRoomID issues a fresh unused room code for clients creating a room.
func (l *lobby) NewRoomID() string {
	return l.idGenerator.Generate()
}

func (l *lobby) handleRemoveRoom(roomID string) {
	room, ok := l.rooms[roomID]
	if !ok {
		// Already gone; removal is idempotent.
		return
	}
	delete(l.rooms, roomID)
	delete(l.descriptions, roomID)
	room.CloseAndRelease()
	l.idGenerator.Dispose(roomID)
	log.Info().Str("room", roomID).Msg("room removed")
}

// handleSweep garbage-collects rooms in terminal shapes: empty past the
// grace window, fully disconnected past the disconnect timeout, or holding
// an abandoned active game past the longest timeout. A room with an active
// game and any connected player is never collected.
func (l *lobby) handleSweep(now time.Time) {
	for id, desc := range l.descriptions {
		idle := now.Sub(desc.lastActivity)

		var expired bool
		switch {
		case desc.playersCount == 0:
			expired = idle > l.sweepPolicy.EmptyRoomGrace
		case desc.connectedCount == 0 && desc.started:
			expired = idle > l.sweepPolicy.AbandonedGameTimeout
		case desc.connectedCount == 0:
			expired = idle > l.sweepPolicy.DisconnectedTimeout
		}

		if expired {
			log.Info().Str("room", id).Dur("idle", idle).Msg("sweeping dead room")
			l.handleRemoveRoom(id)
		}
	}
}
