package game

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerFixture(t *testing.T) (*GameHandler, *MockUniqueIdGenerator, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	idgen := new(MockUniqueIdGenerator)
	tickerGen := NewTickerGen()
	l := NewLobby(idgen, &tickerGen, DefaultSweepPolicy())
	h := NewGameHandler(l)

	router := gin.New()
	router.GET("/game/new-room", h.NewRoomHandler)
	router.GET("/game/roles", h.RolesHandler)
	return h, idgen, router
}

func TestNewRoomHandler(t *testing.T) {
	t.Parallel()

	_, idgen, router := newHandlerFixture(t)
	idgen.On("Generate").Return("XKCD42").Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/game/new-room", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"roomId":"XKCD42"}`, w.Body.String())
	idgen.AssertExpectations(t)
}

func TestRolesHandler(t *testing.T) {
	t.Parallel()

	_, _, router := newHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/game/roles", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var roles []RoleInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roles))
	require.Len(t, roles, 5)

	byName := map[Role]RoleInfo{}
	for _, role := range roles {
		byName[role.Name] = role
	}
	assert.Equal(t, "mafia", byName[RoleMafia].Alignment)
	assert.Equal(t, "town", byName[RoleDoctor].Alignment)
	assert.Equal(t, "neutral", byName[RoleJester].Alignment)
	assert.NotEmpty(t, byName[RoleCivilian].Description)
}
