package engine

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openvenue/matchcore/pkg/orderbook"
)

// ReferenceCache mirrors each instrument's last trade price into redis
// for the monitoring side. Writes go through a buffered channel so the
// matching path never waits on redis; under pressure updates are
// dropped, the next trade overwrites them anyway.
type ReferenceCache struct {
	rdb *redis.Client
	log *zap.Logger
	ch  chan *orderbook.Trade
}

func NewReferenceCache(rdb *redis.Client, log *zap.Logger) *ReferenceCache {
	return &ReferenceCache{
		rdb: rdb,
		log: log,
		ch:  make(chan *orderbook.Trade, 8192),
	}
}

func (c *ReferenceCache) Trade(t *orderbook.Trade) {
	select {
	case c.ch <- t:
	default:
	}
}

func referenceKey(instrumentID uint64) string {
	return fmt.Sprintf("reference:%d", instrumentID)
}

// Run writes queued updates until ctx is done.
func (c *ReferenceCache) Run(ctx context.Context) {
	for {
		select {
		case t := <-c.ch:
			if err := c.rdb.Set(ctx, referenceKey(t.Instrument), t.Price, 0).Err(); err != nil {
				c.log.Warn("reference cache write failed",
					zap.Uint64("instrument", t.Instrument),
					zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
