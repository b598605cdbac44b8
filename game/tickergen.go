package game

import "time"

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

type tickerGen struct{}

func NewTickerGen() *tickerGen {
	return &tickerGen{}
}

func (*tickerGen) NewTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}
