package game

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type GameHandler struct {
	lobby    *lobby
	upgrader websocket.Upgrader
}

func NewGameHandler(l *lobby) *GameHandler {
	return &GameHandler{
		lobby: l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ConnectHandler upgrades the request and starts the connection actor. The
// client then drives everything through named events, starting with
// join_room or reconnect_info.
func (h *GameHandler) ConnectHandler(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	player := newPlayerConn(NewWebsocketConnection(conn), h.lobby)
	go player.ReadPump()
	go player.WritePump()
}

// NewRoomHandler hands out an unused room code for the create-room screen.
func (h *GameHandler) NewRoomHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"roomId": h.lobby.NewRoomID()})
}

// RoleInfo is the static role card metadata the client renders.
type RoleInfo struct {
	Name        Role   `json:"name"`
	Description string `json:"description"`
	Alignment   string `json:"alignment"`
}

var roleCatalog = []RoleInfo{
	{RoleCivilian, "A regular town member. Your goal is to find and eliminate the Mafia.", "town"},
	{RoleDoctor, "Each night you can choose one player to protect. That player will be immune to death that night.", "town"},
	{RoleDetective, "Each night, you can investigate one player to find out if they are mafia or not.", "town"},
	{RoleMafia, "Each night you work with your mafia team to eliminate the town members.", "mafia"},
	{RoleJester, "Act suspicious and make the town vote you out. If you succeed, you win the game.", "neutral"},
}

func (h *GameHandler) RolesHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, roleCatalog)
}
