package game

// RoleCounts is the composition of one game's role list.
type RoleCounts struct {
	Mafia     int
	Detective int
	Doctor    int
	Jester    int
	Civilian  int
}

// rolesFor computes the role distribution for n players. When the special
// roles would not leave room for civilians, they are shed in a fixed order:
// mafia first, then detective, doctor, jester.
func rolesFor(n int, settings GameSettings) RoleCounts {
	counts := RoleCounts{
		Mafia: n * settings.MafiaPercentage / 100,
	}
	if settings.DetectiveEnabled {
		counts.Detective = 1
	}
	if settings.DoctorEnabled {
		counts.Doctor = 1
	}
	if settings.JesterEnabled {
		counts.Jester = 1
	}

	for counts.total() > n {
		switch {
		case counts.Mafia > 0:
			counts.Mafia--
		case counts.Detective > 0:
			counts.Detective--
		case counts.Doctor > 0:
			counts.Doctor--
		case counts.Jester > 0:
			counts.Jester--
		}
	}
	counts.Civilian = n - counts.total()
	return counts
}

func (c RoleCounts) total() int {
	return c.Mafia + c.Detective + c.Doctor + c.Jester + c.Civilian
}

// buildRoleList expands counts into a flat token list.
func buildRoleList(counts RoleCounts) []Role {
	roles := make([]Role, 0, counts.total())
	for i := 0; i < counts.Mafia; i++ {
		roles = append(roles, RoleMafia)
	}
	for i := 0; i < counts.Detective; i++ {
		roles = append(roles, RoleDetective)
	}
	for i := 0; i < counts.Doctor; i++ {
		roles = append(roles, RoleDoctor)
	}
	for i := 0; i < counts.Jester; i++ {
		roles = append(roles, RoleJester)
	}
	for i := 0; i < counts.Civilian; i++ {
		roles = append(roles, RoleCivilian)
	}
	return roles
}

// assignRoles shuffles a fresh role list and assigns it positionally over
// the order-stable player list. Runs once per game start; prior assignments
// are overwritten, never reused.
func (r *Room) assignRoles() {
	roles := buildRoleList(rolesFor(len(r.players), r.settings))
	r.shuffleFn(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	for i, p := range r.players {
		p.role = roles[i]
		p.isAlive = true
	}

	teammates := r.mafiaUsernames()
	for _, p := range r.players {
		r.sendTo(p.session, EvAssignRole, AssignRolePayload{Role: p.role})
		if p.role == RoleMafia {
			r.sendTo(p.session, EvMafiaTeammates, MafiaTeammatesPayload{Usernames: teammates})
		}
	}
	r.log.Info().Int("players", len(r.players)).Int("mafia", len(teammates)).Msg("roles assigned")
}
