package game

import "time"

// Night-action and day-vote collection plus the end-of-phase resolution
// rules: unique-max tallies, doctor protection, jester and standard win
// paths.

func (r *Room) handleMafiaVote(target string, from Session) {
	voter := r.findBySession(from)
	if r.phase != PhaseNight || r.transitioning || voter == nil || !voter.isAlive || voter.role != RoleMafia {
		return
	}
	victim := r.find(target)
	if victim == nil || !victim.isAlive || victim.role == RoleMafia {
		// Mafia cannot target themselves or teammates.
		return
	}

	// Last vote wins; each mafia member holds one active choice.
	r.mafiaVotes[voter.username] = target
	r.broadcastMafia(EvMafiaVoteUpdate, VoteTallyPayload{Votes: tally(r.mafiaVotes)})
}

func (r *Room) handleDoctorHeal(target string, from Session) {
	healer := r.findBySession(from)
	if r.phase != PhaseNight || r.transitioning || healer == nil || !healer.isAlive || healer.role != RoleDoctor {
		return
	}
	if r.healUsed {
		return
	}
	patient := r.find(target)
	if patient == nil || !patient.isAlive {
		return
	}
	r.healTarget = target
	r.healUsed = true
}

// handleDetectiveInvestigate resolves immediately: the result goes back to
// the requesting detective only, and a second request the same night is
// rejected without effect.
func (r *Room) handleDetectiveInvestigate(target string, from Session) {
	detective := r.findBySession(from)
	if r.phase != PhaseNight || r.transitioning || detective == nil || !detective.isAlive || detective.role != RoleDetective {
		return
	}
	if r.investigated[detective.username] {
		return
	}
	suspect := r.find(target)
	if suspect == nil || suspect.username == detective.username {
		return
	}

	r.investigated[detective.username] = true
	r.sendTo(detective.session, EvDetectiveResult, DetectiveResultPayload{
		Target:  target,
		IsMafia: suspect.role == RoleMafia,
	})
}

func (r *Room) handleDayVote(target string, from Session) {
	voter := r.findBySession(from)
	if r.phase != PhaseDay || r.transitioning || voter == nil || !voter.isAlive {
		return
	}
	accused := r.find(target)
	if accused == nil || !accused.isAlive || accused.username == voter.username {
		return
	}

	r.dayVotes[voter.username] = target
	r.broadcast(EvDayVoteUpdate, VoteTallyPayload{Votes: tally(r.dayVotes)})
}

// resolveNight commits the mafia kill against the doctor's protection and
// announces the outcome. The night ledger is cleared unconditionally.
func (r *Room) resolveNight() {
	target := uniqueMax(tally(r.mafiaVotes))
	protected := target != "" && target == r.healTarget

	var action *MafiaActionView
	if target != "" {
		action = &MafiaActionView{Target: target, Protected: protected}
		if !protected {
			if victim := r.find(target); victim != nil {
				victim.isAlive = false
				r.log.Info().Str("username", target).Msg("killed during the night")
			}
		}
	}

	r.clearNightLedger()

	if winner := r.checkWinCondition(); winner != "" {
		r.endGame(winner, "")
		return
	}

	r.broadcast(EvDayPhaseStart, DayPhaseStartPayload{
		MafiaAction: action,
		Players:     r.playerViews(),
	})
}

// resolveDay commits the lynch vote. A jester elimination wins the game for
// the jester outright, bypassing the town/mafia check.
func (r *Room) resolveDay() {
	target := uniqueMax(tally(r.dayVotes))
	r.clearDayLedger()

	var eliminated *string
	if target != "" {
		victim := r.find(target)
		if victim != nil {
			victim.isAlive = false
			eliminated = &target
			r.log.Info().Str("username", target).Msg("eliminated by day vote")

			if victim.role == RoleJester {
				r.endGame("jester", victim.username)
				return
			}
		}
	}

	if winner := r.checkWinCondition(); winner != "" {
		r.endGame(winner, "")
		return
	}

	r.broadcast(EvDayVoteResult, DayVoteResultPayload{
		EliminatedPlayer: eliminated,
		Players:          r.playerViews(),
	})
}

// checkWinCondition returns "town", "mafia", or "" while the game continues.
// Mafia parity is unrecoverable for the town, so ties go to the mafia.
func (r *Room) checkWinCondition() string {
	aliveMafia, aliveOthers := 0, 0
	for _, p := range r.players {
		if !p.isAlive {
			continue
		}
		if p.role == RoleMafia {
			aliveMafia++
		} else {
			aliveOthers++
		}
	}
	if aliveMafia == 0 {
		return "town"
	}
	if aliveMafia >= aliveOthers {
		return "mafia"
	}
	return ""
}

// endGame fires the terminal reveal exactly once and permanently halts the
// scheduler. The room record itself survives, marked ended, so the end
// screen can still query it until the sweep collects it.
func (r *Room) endGame(winner, jesterName string) {
	if r.phase == PhaseEnded {
		return
	}
	reveal := make([]PlayerRoleReveal, 0, len(r.players))
	for _, p := range r.players {
		reveal = append(reveal, PlayerRoleReveal{
			Username: p.username,
			Role:     p.role,
			WasAlive: p.isAlive,
		})
	}
	r.broadcast(EvGameOver, GameOverPayload{
		Winner:      winner,
		PlayerRoles: reveal,
		JesterName:  jesterName,
	})

	r.phase = PhaseEnded
	r.transitioning = false
	r.deadlines = make(map[string]time.Time)
	r.clearNightLedger()
	r.clearDayLedger()
	r.updateDescription()
	r.log.Info().Str("winner", winner).Msg("game over")
}

func (r *Room) clearNightLedger() {
	r.mafiaVotes = make(map[string]string)
	r.healTarget = ""
	r.healUsed = false
	r.investigated = make(map[string]bool)
}

func (r *Room) clearDayLedger() {
	r.dayVotes = make(map[string]string)
}

func tally(votes map[string]string) map[string]int {
	counts := make(map[string]int, len(votes))
	for _, target := range votes {
		counts[target]++
	}
	return counts
}

// uniqueMax returns the sole target holding the maximum vote count, or ""
// when the max is shared. A tie means no one dies that round.
func uniqueMax(counts map[string]int) string {
	best, bestCount, tied := "", 0, false
	for target, count := range counts {
		switch {
		case count > bestCount:
			best, bestCount, tied = target, count, false
		case count == bestCount && bestCount > 0:
			tied = true
		}
	}
	if tied || bestCount == 0 {
		return ""
	}
	return best
}
