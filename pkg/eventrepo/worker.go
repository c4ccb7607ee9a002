package eventrepo

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/openvenue/matchcore/pkg/kafkawrapper"
)

// Worker drains the trade-event topic into postgres in batches.
type Worker struct {
	repo ITradeEvent
	log  *zap.Logger
}

func NewWorker(repo ITradeEvent, log *zap.Logger) *Worker {
	return &Worker{repo: repo, log: log}
}

// Run blocks consuming the topic until ctx is done.
func (w *Worker) Run(ctx context.Context, cg *kafkawrapper.ConsumerGroup) error {
	return cg.Run(ctx, w.handleBatch)
}

func (w *Worker) handleBatch(ctx context.Context, msgs []kafkawrapper.Message) error {
	records := make([]*TradeEvent, 0, len(msgs))
	for _, m := range msgs {
		var ev TradeEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			// a malformed event is skipped, not retried forever
			w.log.Warn("dropping malformed trade event",
				zap.Int64("offset", m.Offset),
				zap.Error(err))
			continue
		}
		records = append(records, &ev)
	}
	if _, err := w.repo.BulkCreate(ctx, records); err != nil {
		w.log.Error("trade event bulk insert failed",
			zap.Int("count", len(records)),
			zap.Error(err))
		return err
	}
	return nil
}
