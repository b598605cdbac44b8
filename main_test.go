package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sketchroom/config"
	"sketchroom/game"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestServerSecurity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := CreateServer([]string{"http://localhost:3000", "https://draw.example.com"})
	r.GET("/testroute", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "success")
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	res := httptest.NewRecorder()

	r.ServeHTTP(res, req)

	assert.Equal(t, bytes.NewBufferString("healthy"), res.Body)

	req = httptest.NewRequest(http.MethodGet, "/testroute", nil)
	req.Header.Add("Origin", "http://evil.com")
	res = httptest.NewRecorder()

	r.ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "forbidden origin", res.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/testroute", nil)
	req.Header.Add("Origin", "https://draw.example.com")
	res = httptest.NewRecorder()

	r.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "success", res.Body.String())
	assert.Equal(t, "https://draw.example.com", res.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/testroute", nil)
	res = httptest.NewRecorder()

	r.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestGameRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	words := game.NewWordPool(game.DefaultWords)
	tickers := game.NewTickerGen()
	wg := &sync.WaitGroup{}
	lobby := game.NewLobby(func(id string) game.Room {
		return game.NewRoom(id, game.DefaultRoomConfigs(), words, nil, tickers)
	}, tickers, wg)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	go lobby.LobbyActor(ctx, started)
	<-started
	defer func() {
		cancel()
		wg.Wait()
	}()

	r := CreateServer([]string{"http://localhost:3000"})
	RegisterGameRoutes(r, game.NewGameHandler(lobby, nil, nil, "http://localhost:3000"))

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/game/rooms", nil))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `[]`, res.Body.String())

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/game/rooms/nope/invites", bytes.NewBufferString(`{"passcode":""}`)))
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/game/rooms/r1/qr", nil))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "image/png", res.Header().Get("Content-Type"))
}

func TestBuildWordSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("kite\n# comment\nboat\n\nKite\nmoon\n"), 0o644))

	cfg := &config.Config{WordsFile: path, Room: game.DefaultRoomConfigs()}
	source, err := buildWordSource(context.Background(), cfg)
	require.NoError(t, err)
	defer source.Close()

	assert.Nil(t, source.repo)
	assert.NoError(t, source.Refresh(context.Background()))
	assert.ElementsMatch(t, []string{"kite", "boat", "moon"}, source.Generate(3))

	cfg.WordsFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = buildWordSource(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuildWordSource_Postgres(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	defer postgresContainer.Terminate(ctx)

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("zeppelin\nquokka\n"), 0o644))

	cfg := &config.Config{PostgresURL: connString, WordsFile: path, Room: game.DefaultRoomConfigs()}
	source, err := buildWordSource(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, source.repo)

	dbWords, err := source.repo.AllWords(ctx)
	require.NoError(t, err)
	assert.Contains(t, dbWords, "zeppelin")
	assert.Equal(t, len(dbWords), source.dbWords.Len())

	// candidates come from the loaded copy, the database is not asked per turn
	source.Close()
	for range 20 {
		words := source.Generate(3)
		require.Len(t, words, 3)
		assert.Subset(t, dbWords, words)
	}

	assert.Error(t, source.Refresh(ctx), "refresh needs the database")
	assert.Equal(t, len(dbWords), source.dbWords.Len(), "a failed refresh keeps the loaded words")
}
