package game

import "time"

// The phase scheduler. Timer expiry, observed from handleTick, is the only
// trigger that commits pending votes/actions and advances the day/night
// cycle.

func (r *Room) handleStartGame(p StartGamePayload, from Session) {
	if !r.isHost(from) || r.phase != PhaseLobby || len(r.players) == 0 {
		return
	}
	now := r.clock()
	r.lastActivity = now

	if p.Settings != nil {
		r.settings = p.Settings.normalize()
	}
	r.devMode = p.DevMode

	// Game start makes the clients navigate to the game screen; suppress the
	// leave events that navigation fires.
	for _, player := range r.players {
		if player.session != nil {
			player.session.SetNavigationIntent(now.Add(navigationIntentWindow))
		}
	}

	r.phase = PhaseCountdown
	r.countdown = preGameCountdownSeconds
	if r.devMode {
		r.countdown = 1
	}

	r.broadcast(EvGameStarted, GameStateView{
		Phase:         PhaseNight.String(),
		PhaseTime:     r.settings.NightDurationSeconds,
		Players:       r.playerViews(),
		Transitioning: true,
	})
	r.broadcast(EvStartCountdown, CountdownPayload{Seconds: r.countdown})
	r.schedule(timerCountdown, now.Add(time.Second))
	r.updateDescription()
	r.log.Info().Int("players", len(r.players)).Bool("dev_mode", r.devMode).Msg("game starting")
}

func (r *Room) handleTick(now time.Time) {
	if r.rosterDirty && r.rosterLimiter.Allow() {
		r.broadcastRoster()
	}

	switch r.phase {
	case PhaseCountdown:
		if r.due(timerCountdown, now) {
			r.tickCountdown(now)
		}
	case PhaseRoleReveal:
		if r.due(timerReveal, now) {
			r.cancel(timerReveal)
			r.enterPhase(PhaseNight, now)
		}
	case PhaseNight, PhaseDay:
		if r.transitioning {
			if r.due(timerTransition, now) {
				r.cancel(timerTransition)
				r.transitioning = false
				r.enterPhase(r.pendingPhase, now)
			}
			return
		}
		if r.due(timerPhase, now) {
			r.resolvePhaseEnd(now)
			return
		}
		r.broadcast(EvPhaseTimerUpdate, PhaseTimerUpdatePayload{
			Phase:         r.phase.String(),
			RemainingTime: secondsUntil(r.deadlines[timerPhase], now),
		})
	}
}

func (r *Room) tickCountdown(now time.Time) {
	r.countdown--
	if r.countdown > 0 {
		r.broadcast(EvCountdownUpdate, CountdownPayload{Seconds: r.countdown})
		r.schedule(timerCountdown, now.Add(time.Second))
		return
	}
	r.cancel(timerCountdown)
	r.broadcast(EvCountdownUpdate, CountdownPayload{Seconds: 0})

	r.assignRoles()
	r.phase = PhaseRoleReveal
	settle := roleRevealDelay
	if r.devMode {
		settle = time.Second
	}
	r.schedule(timerReveal, now.Add(settle))
}

// enterPhase starts a fresh Night or Day timer. Scheduling overwrites any
// stale deadline for the same purpose, so a re-entrant start can never leave
// two phase tickers running.
func (r *Room) enterPhase(phase RoomPhase, now time.Time) {
	r.phase = phase
	duration := time.Duration(r.settings.NightDurationSeconds) * time.Second
	if phase == PhaseDay {
		duration = time.Duration(r.settings.DayDurationSeconds) * time.Second
	}
	r.schedule(timerPhase, now.Add(duration))
	r.broadcast(EvPhaseTimerUpdate, PhaseTimerUpdatePayload{
		Phase:         r.phase.String(),
		RemainingTime: int(duration / time.Second),
	})
	r.log.Info().Str("phase", phase.String()).Msg("phase started")
}

// resolvePhaseEnd commits the ending phase's ledger, then either ends the
// game or announces the next phase and arms the transition buffer.
func (r *Room) resolvePhaseEnd(now time.Time) {
	r.cancel(timerPhase)

	var next RoomPhase
	switch r.phase {
	case PhaseNight:
		next = PhaseDay
		r.resolveNight()
	case PhaseDay:
		next = PhaseNight
		r.resolveDay()
	default:
		return
	}

	if r.phase == PhaseEnded {
		// A win fired during resolution; the scheduler halts here.
		return
	}

	r.broadcast(EvPhaseChange, PhaseChangePayload{
		Phase:   next.String(),
		Players: r.playerViews(),
	})
	r.pendingPhase = next
	r.transitioning = true
	r.schedule(timerTransition, now.Add(phaseTransitionBuffer))
}
