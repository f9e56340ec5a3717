package game

// Membership transitions: join, leave, kick, ready, lock, disconnect,
// reconnect. Everything here is a no-op on missing rooms/players; the only
// user-visible failures are dedicated rejection events.

func (r *Room) handleJoinRequest(jr roomJoinRequest) {
	now := r.clock()
	r.lastActivity = now

	if banExpiry, banned := r.kickBans[jr.username]; banned {
		if now.Before(banExpiry) {
			r.log.Info().Str("username", jr.username).Msg("join rejected, kick ban active")
			r.sendTo(jr.session, EvYouWereKicked, PlayerAnnouncePayload{Username: jr.username})
			jr.errChan <- ErrKicked
			return
		}
		delete(r.kickBans, jr.username)
	}

	existing := r.find(jr.username)

	if r.locked && existing == nil {
		r.log.Info().Str("username", jr.username).Msg("join rejected, room locked")
		r.sendTo(jr.session, EvRoomLockedError, RoomOnlyPayload{RoomID: r.id})
		jr.errChan <- ErrRoomLocked
		return
	}

	if existing != nil {
		r.reattach(existing, jr)
	} else {
		r.admit(jr)
	}

	jr.errChan <- nil
	r.updateDescription()
}

// admit adds a brand-new player to the roster.
func (r *Room) admit(jr roomJoinRequest) {
	player := &PlayerState{
		username: jr.username,
		avatar:   jr.avatar,
		role:     RoleWaiting,
		isAlive:  true,
		session:  jr.session,
	}
	r.players = append(r.players, player)

	if jr.isHost || r.host == "" {
		r.host = jr.username
	}

	jr.session.AttachRoom(r)
	r.log.Info().Str("username", jr.username).Int("players", len(r.players)).Msg("player joined")

	r.broadcast(EvPlayerJoined, PlayerAnnouncePayload{Username: jr.username})
	r.sendTo(jr.session, EvLobbyTimer, r.lobbyTimerPayload())
	r.sendTo(jr.session, EvSettingsUpdated, SettingsUpdatedPayload{Settings: r.settings, Locked: r.locked})
	r.markRosterDirty()
}

// reattach binds a returning player's record to a fresh connection. The
// username is the durable identity; the connection id just gets replaced.
func (r *Room) reattach(player *PlayerState, jr roomJoinRequest) {
	wasDisconnected := player.disconnected
	player.session = jr.session
	player.disconnected = false
	jr.session.AttachRoom(r)

	r.log.Info().Str("username", player.username).Bool("was_disconnected", wasDisconnected).Msg("player reconnected")
	r.broadcast(EvPlayerReconnected, PlayerAnnouncePayload{Username: player.username})

	if r.gameStarted() {
		// Replay the authoritative game state so the client can resume.
		r.sendTo(jr.session, EvGameStarted, r.gameStateView())
		if player.role != RoleWaiting {
			r.sendTo(jr.session, EvAssignRole, AssignRolePayload{Role: player.role})
			if player.role == RoleMafia {
				r.sendTo(jr.session, EvMafiaTeammates, MafiaTeammatesPayload{Usernames: r.mafiaUsernames()})
			}
		}
	} else {
		r.sendTo(jr.session, EvLobbyTimer, r.lobbyTimerPayload())
		r.sendTo(jr.session, EvSettingsUpdated, SettingsUpdatedPayload{Settings: r.settings, Locked: r.locked})
	}
	r.markRosterDirty()
}

func (r *Room) handleLeave(from Session) {
	if from == nil || from.NavigationIntentActive(r.clock()) {
		// Client-side page navigation fires leave_game_room incidentally;
		// the suppression window filters those out.
		return
	}
	player := r.findBySession(from)
	if player == nil {
		return
	}
	r.removePlayer(player)
	r.broadcast(EvPlayerLeft, PlayerAnnouncePayload{Username: player.username})
	r.markRosterDirty()
	r.updateDescription()

	// Finished games do not need the empty-room grace period.
	if len(r.players) == 0 && r.phase == PhaseEnded && r.parentLobby != nil {
		r.parentLobby.RemoveRoom(r.id)
	}
}

func (r *Room) removePlayer(player *PlayerState) {
	for i, p := range r.players {
		if p == player {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	player.ready = false
	if player.session != nil {
		player.session.AttachRoom(nil)
	}
	if r.host == player.username && len(r.players) > 0 {
		r.host = r.players[0].username
	}
	r.log.Info().Str("username", player.username).Int("players", len(r.players)).Msg("player removed")
}

func (r *Room) handleKick(username string, from Session) {
	if !r.isHost(from) {
		return
	}
	player := r.find(username)
	if player == nil || player.username == r.host {
		return
	}

	r.kickBans[username] = r.clock().Add(kickBanWindow)
	if player.session != nil {
		r.sendTo(player.session, EvYouWereKicked, PlayerAnnouncePayload{Username: username})
	}
	session := player.session
	r.removePlayer(player)
	r.broadcast(EvPlayerLeft, PlayerAnnouncePayload{Username: username})
	r.markRosterDirty()
	r.updateDescription()

	if session != nil {
		r.sessionsToClose = append(r.sessionsToClose, session)
	}
}

func (r *Room) handleReady(username string, ready bool, from Session) {
	player := r.findBySession(from)
	if player == nil || player.username != username {
		return
	}
	if player.ready == ready {
		return
	}
	player.ready = ready
	r.markRosterDirty()
}

func (r *Room) handleSetLocked(locked bool, from Session) {
	if !r.isHost(from) {
		return
	}
	r.locked = locked
	r.broadcast(EvSettingsUpdated, SettingsUpdatedPayload{Settings: r.settings, Locked: r.locked})
}

func (r *Room) handleUpdateSettings(settings GameSettings, from Session) {
	if !r.isHost(from) || r.phase != PhaseLobby {
		return
	}
	r.settings = settings.normalize()
	r.broadcast(EvSettingsUpdated, SettingsUpdatedPayload{Settings: r.settings, Locked: r.locked})
}

// handleDisconnect is the transport-level drop path. Lobby-phase players are
// removed outright; mid-game players are kept on the roster so a transient
// drop does not disrupt the game.
func (r *Room) handleDisconnect(from Session) {
	player := r.findBySession(from)
	if player == nil {
		return
	}

	if !r.gameStarted() {
		r.removePlayer(player)
		r.broadcast(EvPlayerLeft, PlayerAnnouncePayload{Username: player.username})
	} else {
		player.disconnected = true
		player.disconnectTime = r.clock()
		player.session = nil
		r.log.Info().Str("username", player.username).Msg("player disconnected mid-game, keeping seat")
	}
	r.markRosterDirty()
	r.updateDescription()
}

func (r *Room) handleChatMessage(p ChatPayload, from Session) {
	player := r.findBySession(from)
	if player == nil {
		return
	}
	r.broadcast(EvReceiveMessage, ChatRelayPayload{Username: player.username, Message: p.Message})
}

func (r *Room) isHost(from Session) bool {
	player := r.findBySession(from)
	return player != nil && player.username == r.host
}

func (r *Room) mafiaUsernames() []string {
	names := make([]string, 0, 2)
	for _, p := range r.players {
		if p.role == RoleMafia {
			names = append(names, p.username)
		}
	}
	return names
}
