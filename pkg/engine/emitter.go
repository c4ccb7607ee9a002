package engine

import (
	"github.com/openvenue/matchcore/pkg/feed"
	"github.com/openvenue/matchcore/pkg/orderbook"
	"github.com/openvenue/matchcore/pkg/session"
)

// TradeMirror receives every trade after it hits the feed. Mirrors must
// not block; the matching lane calls them inline.
type TradeMirror interface {
	Trade(t *orderbook.Trade)
}

// emitter turns book mutations into feed messages in the order they
// happen and keeps the session tracker in sync with the book.
type emitter struct {
	feed    feed.Disseminator
	tracker *session.Tracker
	mirrors []TradeMirror
}

func sessionKey(o *orderbook.Order) session.Key {
	return session.Key{Participant: o.Participant, Session: o.SessionID, Gateway: o.GatewayID}
}

func (e *emitter) OrderAdded(o *orderbook.Order) {
	e.feed.NewOrder(o)
}

func (e *emitter) OrderModified(o *orderbook.Order) {
	e.feed.Modify(o)
}

func (e *emitter) OrderCanceled(o *orderbook.Order) {
	e.feed.Cancel(o)
	e.tracker.Forget(sessionKey(o), o.ID)
}

func (e *emitter) OrderFilled(o *orderbook.Order) {
	// the trade message already told the feed; only bookkeeping here
	e.tracker.Forget(sessionKey(o), o.ID)
}

func (e *emitter) TradeExecuted(t *orderbook.Trade) {
	e.feed.Trade(t)
	for _, m := range e.mirrors {
		m.Trade(t)
	}
}
