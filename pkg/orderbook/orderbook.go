package orderbook

import (
	"sort"

	"github.com/gammazero/deque"

	"github.com/openvenue/matchcore/pkg/instrument"
)

// Book is the per-instrument bid/ask priority structure. A book is
// owned exclusively by one processing lane, so there is no locking
// here; lanes serialize every operation on their instruments.
//
// Each side is a price-indexed map of FIFO queues plus a heap over the
// occupied prices. Empty queues are pruned from the map on removal;
// the heap drops stale prices lazily when the best level is queried.
type Book struct {
	ins *instrument.Instrument

	bids map[uint64]*deque.Deque[*Order]
	asks map[uint64]*deque.Deque[*Order]

	bidPrices *priceHeap
	askPrices *priceHeap

	// resting orders by engine id
	orders map[uint64]*Order

	arrival  uint64
	tradeSeq uint64

	sink EventSink
}

func New(ins *instrument.Instrument, sink EventSink) *Book {
	return &Book{
		ins:       ins,
		bids:      make(map[uint64]*deque.Deque[*Order]),
		asks:      make(map[uint64]*deque.Deque[*Order]),
		bidPrices: newBidPrices(),
		askPrices: newAskPrices(),
		orders:    make(map[uint64]*Order),
		sink:      sink,
	}
}

func (b *Book) Instrument() *instrument.Instrument {
	return b.ins
}

func (b *Book) side(s Side) (map[uint64]*deque.Deque[*Order], *priceHeap) {
	if s == Bid {
		return b.bids, b.bidPrices
	}
	return b.asks, b.askPrices
}

// rest appends the order at the tail of its price level queue.
func (b *Book) rest(o *Order) {
	book, prices := b.side(o.Side)
	if book[o.Price] == nil {
		book[o.Price] = &deque.Deque[*Order]{}
		prices.Add(o.Price)
	}
	book[o.Price].PushBack(o)
	b.orders[o.ID] = o
}

// bestLevel returns the best price level of a side and its FIFO queue.
func (b *Book) bestLevel(s Side) (uint64, *deque.Deque[*Order], bool) {
	book, prices := b.side(s)
	price, ok := prices.Best(func(p uint64) bool {
		q := book[p]
		return q != nil && q.Len() > 0
	})
	if !ok {
		return 0, nil, false
	}
	return price, book[price], true
}

func (b *Book) BestPrice(s Side) (uint64, bool) {
	price, _, ok := b.bestLevel(s)
	return price, ok
}

// Crossed reports whether any bid price reaches any ask price. Only an
// auction book is allowed to stay in this state.
func (b *Book) Crossed() bool {
	bid, okBid := b.BestPrice(Bid)
	ask, okAsk := b.BestPrice(Ask)
	return okBid && okAsk && bid >= ask
}

func (b *Book) Get(id uint64) (*Order, bool) {
	o, ok := b.orders[id]
	return o, ok
}

func (b *Book) Resting() int {
	return len(b.orders)
}

// removeResting splices the order out of its level queue and prunes the
// level if it became empty.
func (b *Book) removeResting(o *Order) {
	book, _ := b.side(o.Side)
	q := book[o.Price]
	if q != nil {
		for i := 0; i < q.Len(); i++ {
			if q.At(i).ID == o.ID {
				q.Remove(i)
				break
			}
		}
		if q.Len() == 0 {
			delete(book, o.Price)
		}
	}
	delete(b.orders, o.ID)
}

// Remove takes an order out of the book by id regardless of ownership.
// Callers that act on behalf of a participant use CancelOrder instead.
func (b *Book) Remove(id uint64) (*Order, error) {
	o, ok := b.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	b.removeResting(o)
	return o, nil
}

// CancelOrder removes a resting order after verifying it belongs to the
// requesting session. Late cancels racing a fill surface as
// ErrUnknownOrder, reported back as a rejection.
func (b *Book) CancelOrder(id, participant uint64, sessionID uint32, gatewayID uint8) (*Order, error) {
	o, ok := b.orders[id]
	if !ok || o.Participant != participant || o.SessionID != sessionID || o.GatewayID != gatewayID {
		return nil, ErrUnknownOrder
	}
	b.removeResting(o)
	o.Remaining = 0
	b.sink.OrderCanceled(o)
	return o, nil
}

// ReplaceQuantity changes the remaining quantity of a resting order in
// place. The order keeps its queue position either way; price changes
// must go through cancel plus new and lose time priority.
func (b *Book) ReplaceQuantity(id, participant uint64, sessionID uint32, gatewayID uint8, quantity uint64) (Status, error) {
	o, ok := b.orders[id]
	if !ok || o.Participant != participant || o.SessionID != sessionID || o.GatewayID != gatewayID {
		return Rejected, ErrUnknownOrder
	}
	if quantity == 0 {
		return Rejected, ErrInvalidOrder
	}
	o.Remaining = quantity
	if quantity > o.Quantity {
		o.Quantity = quantity
	}
	b.sink.OrderModified(o)
	return Modified, nil
}

// Close cancels every resting order and closes the instrument. Used
// when clearing sends a Closed state edict.
func (b *Book) Close() {
	b.EachResting(func(o *Order) {
		o.Remaining = 0
		b.sink.OrderCanceled(o)
	})
	b.bids = make(map[uint64]*deque.Deque[*Order])
	b.asks = make(map[uint64]*deque.Deque[*Order])
	b.bidPrices = newBidPrices()
	b.askPrices = newAskPrices()
	b.orders = make(map[uint64]*Order)
	b.ins.State = instrument.Closed
}

// EachResting visits bids best-first then asks best-first, FIFO within
// a level. Snapshot publishing relies on this ordering.
func (b *Book) EachResting(fn func(*Order)) {
	b.eachSide(Bid, fn)
	b.eachSide(Ask, fn)
}

func (b *Book) eachSide(s Side, fn func(*Order)) {
	book, _ := b.side(s)
	prices := make([]uint64, 0, len(book))
	for p := range book {
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool {
		if s == Bid {
			return prices[i] > prices[j]
		}
		return prices[i] < prices[j]
	})
	for _, p := range prices {
		q := book[p]
		for i := 0; i < q.Len(); i++ {
			fn(q.At(i))
		}
	}
}
