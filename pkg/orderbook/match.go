package orderbook

import (
	"math/big"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/openvenue/matchcore/pkg/instrument"
)

// AddOrder validates an incoming order, matches it against the
// opposite side and rests the remainder when the type allows. The
// returned status is what the execution report carries back to the
// gateway.
func (b *Book) AddOrder(o *Order) (Status, error) {
	if b.ins.State == instrument.Closed {
		return Rejected, ErrInstrumentClosed
	}
	if o.Quantity == 0 {
		return Rejected, ErrInvalidOrder
	}
	if o.Type != Market && o.Price == 0 {
		return Rejected, ErrInvalidOrder
	}
	if _, ok := b.orders[o.ID]; ok {
		return Rejected, ErrDuplicateOrder
	}
	if o.Type != Market && !b.withinBands(o.Price) {
		return Rejected, ErrPriceOutOfBand
	}

	o.Remaining = o.Quantity
	b.arrival++
	o.Arrival = b.arrival

	if b.ins.State == instrument.Auction {
		// no matching during an auction; standing orders queue up
		// for the uncross, the rest cannot execute at all
		if o.Type != Day {
			return Rejected, ErrInvalidOrder
		}
		b.rest(o)
		b.sink.OrderAdded(o)
		return Inserted, nil
	}

	// a never-rested remainder is not a book mutation; the status byte
	// tells the owner, the feed hears nothing
	if o.Type == FillOrKill && !b.fullyFillable(o) {
		o.Remaining = 0
		return Cancelled, nil
	}

	filled := b.matchLoop(o)

	if o.Remaining == 0 {
		return Traded, nil
	}
	if o.Type != Day {
		o.Remaining = 0
		if filled > 0 {
			return PartiallyTraded, nil
		}
		return Cancelled, nil
	}
	b.rest(o)
	if filled == 0 {
		// the add only hits the feed when nothing traded; fills
		// already tell the full story
		b.sink.OrderAdded(o)
		return Inserted, nil
	}
	return PartiallyTraded, nil
}

// matchLoop sweeps the opposite side in price-time priority. Trades
// print at the resting order's price. A print that breaches the
// variation limit still executes; after it, the instrument flips into
// auction and the sweep halts. Returns the quantity filled.
func (b *Book) matchLoop(o *Order) uint64 {
	var filled uint64
	for o.Remaining > 0 {
		price, q, ok := b.bestLevel(o.Side.Opposite())
		if !ok {
			break
		}
		if !o.crosses(price) {
			break
		}
		// judged against the reference before this print moves it
		breach := b.variationBreached(price)
		resting := q.Front()
		qty := min(o.Remaining, resting.Remaining)
		o.Remaining -= qty
		resting.Remaining -= qty
		filled += qty

		b.tradeSeq++
		t := &Trade{
			Instrument: b.ins.ID,
			Price:      price,
			Quantity:   qty,
			Sequence:   b.tradeSeq,
		}
		if o.Side == Bid {
			t.BidOrderID, t.AskOrderID = o.ID, resting.ID
		} else {
			t.BidOrderID, t.AskOrderID = resting.ID, o.ID
		}
		b.ins.Reference = price
		b.sink.TradeExecuted(t)

		if resting.Remaining == 0 {
			q.PopFront()
			if q.Len() == 0 {
				book, _ := b.side(resting.Side)
				delete(book, price)
			}
			delete(b.orders, resting.ID)
			b.sink.OrderFilled(resting)
		}

		if breach {
			b.ins.Transition(instrument.Auction)
			break
		}
	}
	return filled
}

func (o *Order) crosses(price uint64) bool {
	if o.Type == Market {
		return true
	}
	if o.Side == Bid {
		return o.Price >= price
	}
	return o.Price <= price
}

// fullyFillable walks opposite levels best-first without mutating
// anything to decide whether the whole quantity can print right now.
// It stops where the sweep itself would stop.
func (b *Book) fullyFillable(o *Order) bool {
	book, prices := b.side(o.Side.Opposite())
	sorted := make([]uint64, 0, len(book))
	for p, q := range book {
		if q != nil && q.Len() > 0 {
			sorted = append(sorted, p)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return prices.better(sorted[i], sorted[j]) })

	// prints move the reference as the sweep descends
	reference := b.ins.Reference
	var available uint64
	for _, price := range sorted {
		if !o.crosses(price) {
			return false
		}
		q := book[price]
		if !withinPct(price, reference, b.ins.PctVariation) {
			// only the front order prints before the auction halt
			available += q.Front().Remaining
			return available >= o.Quantity
		}
		for i := 0; i < q.Len(); i++ {
			available += q.At(i).Remaining
			if available >= o.Quantity {
				return true
			}
		}
		reference = price
	}
	return false
}

// withinBands accepts a limit price inside the percentage band around
// the reference. An unset reference admits any price.
func (b *Book) withinBands(price uint64) bool {
	return withinPct(price, b.ins.Reference, b.ins.PctBands)
}

// variationBreached reports whether printing at price would move too
// far from the reference.
func (b *Book) variationBreached(price uint64) bool {
	return !withinPct(price, b.ins.Reference, b.ins.PctVariation)
}

func withinPct(price, reference uint64, pct uint8) bool {
	if reference == 0 {
		return true
	}
	p := decimal.NewFromBigInt(new(big.Int).SetUint64(price), 0)
	ref := decimal.NewFromBigInt(new(big.Int).SetUint64(reference), 0)
	limit := ref.Mul(decimal.New(int64(pct), -2))
	return p.Sub(ref).Abs().LessThanOrEqual(limit)
}
