package engine

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openvenue/matchcore/pkg/eventrepo"
	"github.com/openvenue/matchcore/pkg/kafkawrapper"
	"github.com/openvenue/matchcore/pkg/orderbook"
)

// KafkaMirror forwards trades to the persistence topic. The producer
// is async so the lane never blocks on the broker.
type KafkaMirror struct {
	prod  *kafkawrapper.Producer
	topic string
	log   *zap.Logger
}

func NewKafkaMirror(prod *kafkawrapper.Producer, topic string, log *zap.Logger) *KafkaMirror {
	return &KafkaMirror{prod: prod, topic: topic, log: log}
}

func (m *KafkaMirror) Trade(t *orderbook.Trade) {
	ev := eventrepo.TradeEvent{
		Instrument: t.Instrument,
		BidOrderID: t.BidOrderID,
		AskOrderID: t.AskOrderID,
		Price:      t.Price,
		Quantity:   t.Quantity,
		Sequence:   t.Sequence,
		TradedAt:   time.Now(),
	}
	// keyed by instrument so one book's trades stay ordered per partition
	key := strconv.FormatUint(t.Instrument, 10)
	if err := m.prod.PublishJSON(context.Background(), m.topic, key, ev); err != nil {
		m.log.Warn("trade mirror publish failed",
			zap.Uint64("instrument", t.Instrument),
			zap.Error(err))
	}
}
