package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mafia/config"
	"mafia/game"
	"mafia/logger"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	return r
}

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Debug)

	jsonLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(jsonLogger)
	if cfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	allowedOrigins := strings.Split(cfg.AllowedOrigins, ",")

	idGen := game.NewIdGen()
	tickerGen := game.NewTickerGen()

	lobby := game.NewLobby(&idGen, &tickerGen, game.SweepPolicy{
		Interval:             cfg.SweepInterval,
		EmptyRoomGrace:       cfg.EmptyRoomGrace,
		DisconnectedTimeout:  cfg.DisconnectedTimeout,
		AbandonedGameTimeout: cfg.AbandonedGameTimeout,
	})

	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyStarted)
	<-lobbyStarted

	gameHandler := game.NewGameHandler(lobby)

	r := CreateServer(allowedOrigins)
	{
		gameGroup := r.Group("/game")
		gameGroup.GET("/ws", gameHandler.ConnectHandler)
		gameGroup.GET("/new-room", gameHandler.NewRoomHandler)
		gameGroup.GET("/roles", gameHandler.RolesHandler)
	}

	r.Run(":" + cfg.Port)
}
