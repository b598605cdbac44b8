package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sketchroom/config"
	"sketchroom/crypto"
	"sketchroom/game"
	"sketchroom/logger"
	"sketchroom/migrations"
	"sketchroom/storage"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		// same-origin requests and non-browser clients send no Origin
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

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

	return r
}

// RegisterGameRoutes mounts the game endpoints under /game.
func RegisterGameRoutes(r *gin.Engine, h *game.GameHandler) {
	gameGroup := r.Group("/game")
	gameGroup.GET("/ws", h.JoinGameHandler)
	gameGroup.GET("/rooms", h.GetRoomsHandler)
	gameGroup.POST("/rooms/:roomid/invites", h.CreateInviteHandler)
	gameGroup.GET("/rooms/:roomid/qr", h.QRCodeHandler)
}

// wordSource serves candidates from memory. With a database configured the
// memory copy mirrors the words table and is refreshed by Refresh, falling
// back to the built-in or file list while it holds too few words.
type wordSource struct {
	game.RandomWordsGenerator
	repo    *storage.PostgresRepo
	dbWords *game.WordPool
}

func (s *wordSource) Refresh(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	words, err := s.repo.AllWords(ctx)
	if err != nil {
		return err
	}
	s.dbWords.Replace(words)
	log.Info().Int("words", s.dbWords.Len()).Msg("loaded postgres word list")
	return nil
}

func (s *wordSource) Close() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func buildWordSource(ctx context.Context, cfg *config.Config) (*wordSource, error) {
	words := game.DefaultWords
	if cfg.WordsFile != "" {
		fileWords, err := game.LoadWordsFile(cfg.WordsFile)
		if err != nil {
			return nil, err
		}
		words = fileWords
	}
	pool := game.NewWordPool(words)
	if pool.Len() < cfg.Room.CandidateCount {
		log.Warn().Int("words", pool.Len()).Int("candidates", cfg.Room.CandidateCount).Msg("word list is smaller than the candidate count")
	}

	if cfg.PostgresURL == "" {
		log.Info().Int("words", pool.Len()).Msg("using in-memory word list")
		return &wordSource{RandomWordsGenerator: pool}, nil
	}

	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		return nil, err
	}

	pgRepo, err := storage.NewPostgresRepo(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	if err := pgRepo.Ping(ctx); err != nil {
		pgRepo.Close()
		return nil, err
	}

	if cfg.WordsFile != "" {
		inserted, err := pgRepo.AddWords(ctx, words)
		if err != nil {
			pgRepo.Close()
			return nil, err
		}
		log.Info().Int64("inserted", inserted).Str("file", cfg.WordsFile).Msg("imported words file")
	}

	dbWords := game.NewWordPool(nil)
	source := &wordSource{
		RandomWordsGenerator: game.NewFallbackWordsGenerator(dbWords, pool),
		repo:                 pgRepo,
		dbWords:              dbWords,
	}
	if err := source.Refresh(ctx); err != nil {
		pgRepo.Close()
		return nil, err
	}
	return source, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Init(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Dependencies
	startupCtx, cancelStartup := context.WithTimeout(ctx, 30*time.Second)
	wordGen, err := buildWordSource(startupCtx, cfg)
	cancelStartup()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up the word source")
	}
	defer wordGen.Close()

	passcodeHasher := crypto.NewArgon2idHasher(3, 1024*64, 32, 16, 1)
	inviteManager := crypto.NewInviteManager(cfg.InviteKey, cfg.InviteTTL)
	tickerGen := game.NewTickerGen()

	roomsWg := &sync.WaitGroup{}
	lobby := game.NewLobby(func(id string) game.Room {
		return game.NewRoom(id, cfg.Room, wordGen, passcodeHasher, tickerGen)
	}, tickerGen, roomsWg)

	lobbyCtx, stopLobby := context.WithCancel(context.Background())
	lobbyStarted := make(chan struct{})
	lobbyDone := make(chan struct{})
	go func() {
		defer close(lobbyDone)
		lobby.LobbyActor(lobbyCtx, lobbyStarted)
	}()
	<-lobbyStarted

	housekeeping, err := game.StartHousekeeping(lobby, cfg.HousekeepingSchedule)
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.HousekeepingSchedule).Msg("invalid housekeeping schedule")
	}
	if wordGen.repo != nil {
		_, err = housekeeping.AddFunc(cfg.WordsRefreshSchedule, func() {
			refreshCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := wordGen.Refresh(refreshCtx); err != nil {
				log.Error().Err(err).Msg("failed to refresh the word list")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.WordsRefreshSchedule).Msg("invalid words refresh schedule")
		}
	}

	r := CreateServer(cfg.AllowedOrigins)
	r.Use(logger.RequestLogger(log.Logger))
	RegisterGameRoutes(r, game.NewGameHandler(lobby, inviteManager, cfg.AllowedOrigins, cfg.PublicURL))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	<-housekeeping.Stop().Done()
	stopLobby()
	<-lobbyDone
	roomsWg.Wait()
	log.Info().Msg("bye")
}
