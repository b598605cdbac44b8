package game

import (
	"context"
	"runtime"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// StartHousekeeping logs registry and process stats on the given cron schedule.
func StartHousekeeping(l Lobby, schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() { reportStats(l) })
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

func reportStats(l Lobby) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stats := l.Stats(ctx)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	log.Info().
		Int("rooms", stats.Rooms).
		Int("players", stats.Players).
		Int("goroutines", runtime.NumGoroutine()).
		Uint64("heap_alloc", mem.HeapAlloc).
		Msg("lobby stats")
}
