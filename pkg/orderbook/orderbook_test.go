package orderbook

import (
	"errors"
	"testing"

	"github.com/openvenue/matchcore/pkg/instrument"
)

// recordingSink collects every book event in emission order.
type recordingSink struct {
	added    []*Order
	modified []*Order
	canceled []*Order
	filled   []*Order
	trades   []*Trade
}

func (s *recordingSink) OrderAdded(o *Order) { s.added = append(s.added, o) }
func (s *recordingSink) OrderModified(o *Order) { s.modified = append(s.modified, o) }
func (s *recordingSink) OrderCanceled(o *Order) { s.canceled = append(s.canceled, o) }
func (s *recordingSink) OrderFilled(o *Order) { s.filled = append(s.filled, o) }
func (s *recordingSink) TradeExecuted(t *Trade) { s.trades = append(s.trades, t) }

func testInstrument() *instrument.Instrument {
	return &instrument.Instrument{
		ID:           7,
		Name:         "ACME",
		Kind:         instrument.Share,
		State:        instrument.Trading,
		PctBands:     20,
		PctVariation: 10,
	}
}

func newTestBook() (*Book, *recordingSink) {
	sink := &recordingSink{}
	return New(testInstrument(), sink), sink
}

func TestSimpleMatch(t *testing.T) {
	b, sink := newTestBook()

	sell := &Order{ID: 1, Side: Ask, Price: 99, Quantity: 10, Type: Day}
	buy := &Order{ID: 2, Side: Bid, Price: 100, Quantity: 10, Type: Day}

	if st, err := b.AddOrder(sell); err != nil || st != Inserted {
		t.Fatalf("sell: status=%v err=%v", st, err)
	}
	st, err := b.AddOrder(buy)
	if err != nil || st != Traded {
		t.Fatalf("buy: status=%v err=%v", st, err)
	}

	if len(sink.trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(sink.trades))
	}
	tr := sink.trades[0]
	if tr.BidOrderID != 2 || tr.AskOrderID != 1 {
		t.Errorf("incorrect order IDs in trade: %+v", tr)
	}
	// trade prints at the resting order's price
	if tr.Quantity != 10 || tr.Price != 99 {
		t.Errorf("incorrect qty/price: %+v", tr)
	}
	if b.Resting() != 0 {
		t.Errorf("expected empty book, got %d resting", b.Resting())
	}
}

func TestNoMatchDueToPrice(t *testing.T) {
	b, sink := newTestBook()

	b.AddOrder(&Order{ID: 1, Side: Ask, Price: 100, Quantity: 10, Type: Day})
	b.AddOrder(&Order{ID: 2, Side: Bid, Price: 98, Quantity: 10, Type: Day})

	if len(sink.trades) != 0 {
		t.Fatalf("expected no trade, got %d", len(sink.trades))
	}
	if b.Resting() != 2 {
		t.Errorf("expected both orders resting, got %d", b.Resting())
	}
	if len(sink.added) != 2 {
		t.Errorf("expected 2 add events, got %d", len(sink.added))
	}
}

func TestPartialMatch(t *testing.T) {
	b, sink := newTestBook()

	b.AddOrder(&Order{ID: 1, Side: Ask, Price: 100, Quantity: 5, Type: Day})
	st, err := b.AddOrder(&Order{ID: 2, Side: Bid, Price: 101, Quantity: 10, Type: Day})
	if err != nil || st != PartiallyTraded {
		t.Fatalf("buy: status=%v err=%v", st, err)
	}

	if len(sink.trades) != 1 || sink.trades[0].Quantity != 5 {
		t.Fatalf("expected one 5-lot trade, got %+v", sink.trades)
	}
	o, ok := b.Get(2)
	if !ok || o.Remaining != 5 {
		t.Errorf("expected remainder of 5 resting, got %+v", o)
	}
	// partially traded adds don't hit the feed as adds
	if len(sink.added) != 1 {
		t.Errorf("expected 1 add event, got %d", len(sink.added))
	}
}

func TestFIFOWithinLevel(t *testing.T) {
	b, sink := newTestBook()

	b.AddOrder(&Order{ID: 1, Side: Ask, Price: 100, Quantity: 5, Type: Day})
	b.AddOrder(&Order{ID: 2, Side: Ask, Price: 100, Quantity: 5, Type: Day})
	b.AddOrder(&Order{ID: 3, Side: Bid, Price: 100, Quantity: 10, Type: Day})

	if len(sink.trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(sink.trades))
	}
	if sink.trades[0].AskOrderID != 1 || sink.trades[1].AskOrderID != 2 {
		t.Errorf("expected FIFO match order, got %+v", sink.trades)
	}
}

func TestPricePriorityAcrossLevels(t *testing.T) {
	b, sink := newTestBook()

	b.AddOrder(&Order{ID: 1, Side: Ask, Price: 103, Quantity: 5, Type: Day})
	b.AddOrder(&Order{ID: 2, Side: Ask, Price: 101, Quantity: 5, Type: Day})
	b.AddOrder(&Order{ID: 3, Side: Ask, Price: 102, Quantity: 5, Type: Day})
	b.AddOrder(&Order{ID: 4, Side: Bid, Price: 105, Quantity: 15, Type: Day})

	if len(sink.trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(sink.trades))
	}
	if sink.trades[0].Price != 101 || sink.trades[1].Price != 102 || sink.trades[2].Price != 103 {
		t.Errorf("expected matching from best price, got %+v", sink.trades)
	}
}

func TestQuantityConservation(t *testing.T) {
	b, sink := newTestBook()

	b.AddOrder(&Order{ID: 1, Side: Ask, Price: 100, Quantity: 7, Type: Day})
	b.AddOrder(&Order{ID: 2, Side: Ask, Price: 100, Quantity: 8, Type: Day})
	b.AddOrder(&Order{ID: 3, Side: Bid, Price: 100, Quantity: 12, Type: Day})

	var traded uint64
	for _, tr := range sink.trades {
		traded += tr.Quantity
	}
	o1, _ := b.Get(1)
	o2, ok2 := b.Get(2)
	if o1 != nil {
		t.Errorf("order 1 should be fully filled")
	}
	if !ok2 {
		t.Fatalf("order 2 should still rest")
	}
	if traded+o2.Remaining != 15 {
		t.Errorf("quantity not conserved: traded=%d remaining=%d", traded, o2.Remaining)
	}
}

func TestDuplicateOrderRejected(t *testing.T) {
	b, _ := newTestBook()

	b.AddOrder(&Order{ID: 1, Side: Bid, Price: 100, Quantity: 10, Type: Day})
	st, err := b.AddOrder(&Order{ID: 1, Side: Bid, Price: 100, Quantity: 10, Type: Day})
	if !errors.Is(err, ErrDuplicateOrder) || st != Rejected {
		t.Fatalf("expected duplicate rejection, got status=%v err=%v", st, err)
	}
}

func TestZeroQuantityRejected(t *testing.T) {
	b, _ := newTestBook()

	if _, err := b.AddOrder(&Order{ID: 1, Side: Bid, Price: 100, Quantity: 0, Type: Day}); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected invalid order, got %v", err)
	}
	if _, err := b.AddOrder(&Order{ID: 2, Side: Bid, Price: 0, Quantity: 10, Type: Day}); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected invalid order for zero price, got %v", err)
	}
}

func TestClosedInstrumentRejects(t *testing.T) {
	b, _ := newTestBook()
	b.Instrument().State = instrument.Closed

	st, err := b.AddOrder(&Order{ID: 1, Side: Bid, Price: 100, Quantity: 10, Type: Day})
	if !errors.Is(err, ErrInstrumentClosed) || st != Rejected {
		t.Fatalf("expected closed rejection, got status=%v err=%v", st, err)
	}
}

func TestBandRejection(t *testing.T) {
	b, sink := newTestBook()

	// establish a reference price of 100
	b.AddOrder(&Order{ID: 1, Side: Ask, Price: 100, Quantity: 10, Type: Day})
	b.AddOrder(&Order{ID: 2, Side: Bid, Price: 100, Quantity: 10, Type: Day})
	if len(sink.trades) != 1 {
		t.Fatalf("setup trade missing")
	}

	// 20% band around 100: [80, 120]
	if _, err := b.AddOrder(&Order{ID: 3, Side: Bid, Price: 121, Quantity: 1, Type: Day}); !errors.Is(err, ErrPriceOutOfBand) {
		t.Errorf("expected band rejection at 121, got %v", err)
	}
	if _, err := b.AddOrder(&Order{ID: 4, Side: Ask, Price: 79, Quantity: 1, Type: Day}); !errors.Is(err, ErrPriceOutOfBand) {
		t.Errorf("expected band rejection at 79, got %v", err)
	}
	if st, err := b.AddOrder(&Order{ID: 5, Side: Bid, Price: 120, Quantity: 1, Type: Day}); err != nil || st != Inserted {
		t.Errorf("expected 120 accepted on the edge, got status=%v err=%v", st, err)
	}
}

func TestNoReferenceAdmitsAnyPrice(t *testing.T) {
	b, _ := newTestBook()

	if st, err := b.AddOrder(&Order{ID: 1, Side: Bid, Price: 1_000_000, Quantity: 1, Type: Day}); err != nil || st != Inserted {
		t.Fatalf("expected any price before first trade, got status=%v err=%v", st, err)
	}
}

func TestVariationBreachTriggersAuction(t *testing.T) {
	b, sink := newTestBook()

	// reference at 100
	b.AddOrder(&Order{ID: 1, Side: Ask, Price: 100, Quantity: 1, Type: Day})
	b.AddOrder(&Order{ID: 2, Side: Bid, Price: 100, Quantity: 1, Type: Day})

	// resting asks at 115, outside the 10% variation limit but inside
	// the 20% acceptance band
	b.AddOrder(&Order{ID: 3, Side: Ask, Price: 115, Quantity: 5, Type: Day})
	b.AddOrder(&Order{ID: 5, Side: Ask, Price: 115, Quantity: 5, Type: Day})
	st, err := b.AddOrder(&Order{ID: 4, Side: Bid, Price: 115, Quantity: 8, Type: Day})
	if err != nil || st != PartiallyTraded {
		t.Fatalf("aggressor: status=%v err=%v", st, err)
	}

	// the deviating print executes, then matching halts
	if len(sink.trades) != 2 {
		t.Fatalf("expected the breaching print to execute, trades=%+v", sink.trades)
	}
	if tr := sink.trades[1]; tr.Price != 115 || tr.Quantity != 5 {
		t.Errorf("expected 5 lots at 115, got %+v", tr)
	}
	if b.Instrument().State != instrument.Auction {
		t.Fatalf("expected auction state, got %v", b.Instrument().State)
	}
	if b.Instrument().Reference != 115 {
		t.Errorf("reference must follow the print, got %d", b.Instrument().Reference)
	}
	if o, ok := b.Get(5); !ok || o.Remaining != 5 {
		t.Errorf("no matching past the halt, got %+v", o)
	}
	if o, ok := b.Get(4); !ok || o.Remaining != 3 {
		t.Errorf("aggressor remainder queues for the uncross, got %+v", o)
	}
	if !b.Crossed() {
		t.Errorf("auction book should hold the crossed orders")
	}
}

func TestCancel(t *testing.T) {
	b, sink := newTestBook()

	o := &Order{ID: 1, Participant: 9, SessionID: 3, GatewayID: 1, Side: Bid, Price: 100, Quantity: 10, Type: Day}
	b.AddOrder(o)

	if _, err := b.CancelOrder(1, 9, 3, 2); !errors.Is(err, ErrUnknownOrder) {
		t.Fatalf("wrong gateway must not cancel, got %v", err)
	}
	if _, err := b.CancelOrder(1, 9, 3, 1); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if b.Resting() != 0 || len(sink.canceled) != 1 {
		t.Errorf("expected empty book and one cancel event")
	}
	if _, err := b.CancelOrder(1, 9, 3, 1); !errors.Is(err, ErrUnknownOrder) {
		t.Errorf("second cancel must report unknown order, got %v", err)
	}
}

func TestModifyKeepsQueuePosition(t *testing.T) {
	b, sink := newTestBook()

	b.AddOrder(&Order{ID: 1, Participant: 9, Side: Ask, Price: 100, Quantity: 5, Type: Day})
	b.AddOrder(&Order{ID: 2, Participant: 9, Side: Ask, Price: 100, Quantity: 5, Type: Day})

	if st, err := b.ReplaceQuantity(1, 9, 0, 0, 8); err != nil || st != Modified {
		t.Fatalf("modify: status=%v err=%v", st, err)
	}
	if len(sink.modified) != 1 {
		t.Fatalf("expected modify event")
	}

	b.AddOrder(&Order{ID: 3, Side: Bid, Price: 100, Quantity: 8, Type: Day})
	if len(sink.trades) != 1 || sink.trades[0].AskOrderID != 1 {
		t.Errorf("modified order lost its queue position: %+v", sink.trades)
	}
}

func TestModifyIdempotent(t *testing.T) {
	b, sink := newTestBook()

	b.AddOrder(&Order{ID: 1, Participant: 9, Side: Ask, Price: 100, Quantity: 5, Type: Day})
	b.AddOrder(&Order{ID: 2, Participant: 9, Side: Ask, Price: 100, Quantity: 5, Type: Day})

	// applying the identical modify twice leaves the book where one
	// application left it
	for i := 0; i < 2; i++ {
		if st, err := b.ReplaceQuantity(1, 9, 0, 0, 3); err != nil || st != Modified {
			t.Fatalf("modify %d: status=%v err=%v", i, st, err)
		}
	}

	o, ok := b.Get(1)
	if !ok || o.Remaining != 3 || o.Quantity != 5 {
		t.Fatalf("expected remaining 3 of 5, got %+v", o)
	}
	if b.Resting() != 2 || len(sink.modified) != 2 {
		t.Errorf("expected 2 resting and 2 modify events, got %d and %d", b.Resting(), len(sink.modified))
	}

	b.AddOrder(&Order{ID: 3, Side: Bid, Price: 100, Quantity: 3, Type: Day})
	if len(sink.trades) != 1 || sink.trades[0].AskOrderID != 1 {
		t.Errorf("repeated modify moved the order: %+v", sink.trades)
	}
}

func TestModifyUnknownOrder(t *testing.T) {
	b, _ := newTestBook()

	if _, err := b.ReplaceQuantity(42, 1, 0, 0, 5); !errors.Is(err, ErrUnknownOrder) {
		t.Fatalf("expected unknown order, got %v", err)
	}
}

func TestMarketOrderNeverRests(t *testing.T) {
	b, sink := newTestBook()

	st, err := b.AddOrder(&Order{ID: 1, Side: Bid, Quantity: 10, Type: Market})
	if err != nil || st != Cancelled {
		t.Fatalf("market into empty book: status=%v err=%v", st, err)
	}

	b.AddOrder(&Order{ID: 2, Side: Ask, Price: 100, Quantity: 5, Type: Day})
	st, err = b.AddOrder(&Order{ID: 3, Side: Bid, Quantity: 10, Type: Market})
	if err != nil || st != PartiallyTraded {
		t.Fatalf("market with partial liquidity: status=%v err=%v", st, err)
	}
	if b.Resting() != 0 {
		t.Errorf("market remainder must not rest")
	}
	if len(sink.trades) != 1 || sink.trades[0].Price != 100 {
		t.Errorf("market trades at resting price, got %+v", sink.trades)
	}
}

func TestFillAndKill(t *testing.T) {
	b, _ := newTestBook()

	b.AddOrder(&Order{ID: 1, Side: Ask, Price: 100, Quantity: 5, Type: Day})
	st, err := b.AddOrder(&Order{ID: 2, Side: Bid, Price: 100, Quantity: 8, Type: FillAndKill})
	if err != nil || st != PartiallyTraded {
		t.Fatalf("fak: status=%v err=%v", st, err)
	}
	if b.Resting() != 0 {
		t.Errorf("fak remainder must not rest")
	}
}

func TestFillOrKill(t *testing.T) {
	b, sink := newTestBook()

	b.AddOrder(&Order{ID: 1, Side: Ask, Price: 100, Quantity: 5, Type: Day})

	// not fully fillable: no trade at all
	st, err := b.AddOrder(&Order{ID: 2, Side: Bid, Price: 100, Quantity: 8, Type: FillOrKill})
	if err != nil || st != Cancelled {
		t.Fatalf("fok short: status=%v err=%v", st, err)
	}
	if len(sink.trades) != 0 {
		t.Fatalf("fok must not trade partially, got %+v", sink.trades)
	}

	// fully fillable: executes completely
	st, err = b.AddOrder(&Order{ID: 3, Side: Bid, Price: 100, Quantity: 5, Type: FillOrKill})
	if err != nil || st != Traded {
		t.Fatalf("fok exact: status=%v err=%v", st, err)
	}
	if len(sink.trades) != 1 {
		t.Errorf("expected 1 trade, got %d", len(sink.trades))
	}
}

func TestCloseCancelsAll(t *testing.T) {
	b, sink := newTestBook()

	b.AddOrder(&Order{ID: 1, Side: Bid, Price: 99, Quantity: 10, Type: Day})
	b.AddOrder(&Order{ID: 2, Side: Ask, Price: 101, Quantity: 10, Type: Day})

	b.Close()

	if b.Instrument().State != instrument.Closed {
		t.Fatalf("expected closed state")
	}
	if len(sink.canceled) != 2 || b.Resting() != 0 {
		t.Errorf("expected all resting orders canceled, got %d events %d resting", len(sink.canceled), b.Resting())
	}
}

func BenchmarkAddOrder(b *testing.B) {
	book, _ := newTestBook()

	for i := 0; i < 10_000; i++ {
		book.AddOrder(&Order{
			ID:       uint64(i) + 1,
			Side:     Ask,
			Price:    100 + uint64(i%5),
			Quantity: 10,
			Type:     Day,
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		book.AddOrder(&Order{
			ID:       uint64(i) + 1_000_000,
			Side:     Bid,
			Price:    101,
			Quantity: 10,
			Type:     Day,
		})
	}
}
