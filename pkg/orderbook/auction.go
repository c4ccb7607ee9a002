package orderbook

import (
	"sort"

	"github.com/openvenue/matchcore/pkg/instrument"
)

// Uncross ends an auction: it computes the clearing price, executes
// the crossed volume at that single price and moves the instrument
// back to continuous trading. A book with no crossed volume simply
// reopens.
func (b *Book) Uncross() ([]*Trade, error) {
	if b.ins.State != instrument.Auction {
		return nil, ErrNotInAuction
	}

	price, volume := b.clearingPrice()
	if volume == 0 {
		b.ins.Transition(instrument.Trading)
		return nil, nil
	}

	var trades []*Trade
	remaining := volume
	for remaining > 0 {
		_, bidQ, okBid := b.bestLevel(Bid)
		_, askQ, okAsk := b.bestLevel(Ask)
		if !okBid || !okAsk {
			break
		}
		bid := bidQ.Front()
		ask := askQ.Front()
		qty := min(bid.Remaining, ask.Remaining)
		if qty > remaining {
			qty = remaining
		}
		bid.Remaining -= qty
		ask.Remaining -= qty
		remaining -= qty

		b.tradeSeq++
		t := &Trade{
			Instrument: b.ins.ID,
			BidOrderID: bid.ID,
			AskOrderID: ask.ID,
			Price:      price,
			Quantity:   qty,
			Sequence:   b.tradeSeq,
		}
		trades = append(trades, t)
		b.sink.TradeExecuted(t)

		for _, o := range []*Order{bid, ask} {
			if o.Remaining == 0 {
				b.removeResting(o)
				b.sink.OrderFilled(o)
			}
		}
	}

	b.ins.Reference = price
	b.ins.Transition(instrument.Trading)
	return trades, nil
}

// clearingPrice picks the price that maximizes executable volume. Ties
// break toward the price closest to the reference, then the lower
// price.
func (b *Book) clearingPrice() (uint64, uint64) {
	candidates := make(map[uint64]bool)
	for p := range b.bids {
		candidates[p] = true
	}
	for p := range b.asks {
		candidates[p] = true
	}
	prices := make([]uint64, 0, len(candidates))
	for p := range candidates {
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })

	var bestPrice, bestVolume uint64
	for _, p := range prices {
		v := min(b.demandAt(p), b.supplyAt(p))
		if v == 0 {
			continue
		}
		if v > bestVolume || (v == bestVolume && closer(p, bestPrice, b.ins.Reference)) {
			bestPrice, bestVolume = p, v
		}
	}
	return bestPrice, bestVolume
}

// demandAt is the total bid quantity willing to buy at p or better.
func (b *Book) demandAt(p uint64) uint64 {
	var total uint64
	for price, q := range b.bids {
		if price < p {
			continue
		}
		for i := 0; i < q.Len(); i++ {
			total += q.At(i).Remaining
		}
	}
	return total
}

// supplyAt is the total ask quantity willing to sell at p or better.
func (b *Book) supplyAt(p uint64) uint64 {
	var total uint64
	for price, q := range b.asks {
		if price > p {
			continue
		}
		for i := 0; i < q.Len(); i++ {
			total += q.At(i).Remaining
		}
	}
	return total
}

// closer reports whether a beats the incumbent price, judging distance
// to the reference first and preferring the lower price on a draw.
func closer(a, incumbent, reference uint64) bool {
	da, di := dist(a, reference), dist(incumbent, reference)
	if da != di {
		return da < di
	}
	return a < incumbent
}

func dist(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
