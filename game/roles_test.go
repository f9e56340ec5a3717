package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolesFor(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc     string
		n        int
		settings GameSettings
		expected RoleCounts
	}{
		{
			desc:     "five players, 20 percent, detective and doctor",
			n:        5,
			settings: GameSettings{MafiaPercentage: 20, DetectiveEnabled: true, DoctorEnabled: true},
			expected: RoleCounts{Mafia: 1, Detective: 1, Doctor: 1, Civilian: 2},
		},
		{
			desc:     "ten players, 30 percent, all specials",
			n:        10,
			settings: GameSettings{MafiaPercentage: 30, DetectiveEnabled: true, DoctorEnabled: true, JesterEnabled: true},
			expected: RoleCounts{Mafia: 3, Detective: 1, Doctor: 1, Jester: 1, Civilian: 4},
		},
		{
			desc:     "four players, 25 percent, no specials",
			n:        4,
			settings: GameSettings{MafiaPercentage: 25},
			expected: RoleCounts{Mafia: 1, Civilian: 3},
		},
		{
			desc:     "mafia count floors, never rounds up",
			n:        7,
			settings: GameSettings{MafiaPercentage: 40},
			expected: RoleCounts{Mafia: 2, Civilian: 5},
		},
		{
			desc:     "mafia shed first when the roles exceed n",
			n:        3,
			settings: GameSettings{MafiaPercentage: 40, DetectiveEnabled: true, DoctorEnabled: true, JesterEnabled: true},
			expected: RoleCounts{Detective: 1, Doctor: 1, Jester: 1},
		},
		{
			desc:     "detective shed next once mafia is exhausted",
			n:        2,
			settings: GameSettings{MafiaPercentage: 40, DetectiveEnabled: true, DoctorEnabled: true, JesterEnabled: true},
			expected: RoleCounts{Doctor: 1, Jester: 1},
		},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			counts := rolesFor(tC.n, tC.settings)
			assert.Equal(t, tC.expected, counts)
			assert.Equal(t, tC.n, counts.total(), "role list length must equal player count")
			assert.GreaterOrEqual(t, counts.Civilian, 0, "civilian count can never go negative")
		})
	}
}

func TestBuildRoleList(t *testing.T) {
	t.Parallel()

	roles := buildRoleList(RoleCounts{Mafia: 2, Detective: 1, Doctor: 1, Jester: 1, Civilian: 3})
	require.Len(t, roles, 8)

	tallied := map[Role]int{}
	for _, role := range roles {
		tallied[role]++
	}
	assert.Equal(t, map[Role]int{
		RoleMafia:     2,
		RoleDetective: 1,
		RoleDoctor:    1,
		RoleJester:    1,
		RoleCivilian:  3,
	}, tallied)
}

func TestAssignRoles_FivePlayerScenario(t *testing.T) {
	t.Parallel()

	r, _ := newTestRoom("rid", time.Now())
	r.settings = GameSettings{
		DayDurationSeconds:   90,
		NightDurationSeconds: 45,
		MafiaPercentage:      20,
		DetectiveEnabled:     true,
		DoctorEnabled:        true,
	}

	sessions := map[string]*fakeSession{}
	for _, name := range []string{"ana", "bram", "cleo", "divya", "emil"} {
		sessions[name] = joinPlayer(t, r, name, name == "ana")
	}
	clearOutbox(r)

	r.assignRoles()

	// Identity shuffle: roles land positionally, mafia first.
	require.Equal(t, RoleMafia, r.players[0].role)
	require.Equal(t, RoleDetective, r.players[1].role)
	require.Equal(t, RoleDoctor, r.players[2].role)
	require.Equal(t, RoleCivilian, r.players[3].role)
	require.Equal(t, RoleCivilian, r.players[4].role)

	// Every player gets a private role card; the lone mafioso also gets
	// the teammate list.
	assertTasks(t, []dataSendTask{
		makeTask(sessions["ana"], EvAssignRole, AssignRolePayload{Role: RoleMafia}),
		makeTask(sessions["ana"], EvMafiaTeammates, MafiaTeammatesPayload{Usernames: []string{"ana"}}),
		makeTask(sessions["bram"], EvAssignRole, AssignRolePayload{Role: RoleDetective}),
		makeTask(sessions["cleo"], EvAssignRole, AssignRolePayload{Role: RoleDoctor}),
		makeTask(sessions["divya"], EvAssignRole, AssignRolePayload{Role: RoleCivilian}),
		makeTask(sessions["emil"], EvAssignRole, AssignRolePayload{Role: RoleCivilian}),
	}, r.dataSendTasks)
}

func TestAssignRoles_RerunOverwritesPriorGame(t *testing.T) {
	t.Parallel()

	r, _ := newTestRoom("rid", time.Now())
	r.settings = GameSettings{MafiaPercentage: 20, NightDurationSeconds: 30, DayDurationSeconds: 30}
	for _, name := range []string{"ana", "bram", "cleo", "divya", "emil"} {
		joinPlayer(t, r, name, name == "ana")
	}

	r.assignRoles()
	r.players[0].isAlive = false

	r.assignRoles()
	for _, p := range r.players {
		assert.NotEqual(t, RoleWaiting, p.role)
		assert.True(t, p.isAlive, "a fresh assignment revives everyone")
	}
}
