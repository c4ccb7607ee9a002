package orderbook

import "container/heap"

// priceHeap orders the occupied price levels of one book side. Add
// dedups, so a price appears once no matter how many orders rest at
// it. Levels that empty out are not evicted eagerly; Best discards
// them the next time the side is queried.
type priceHeap struct {
	prices []uint64
	member map[uint64]struct{}
	better func(a, b uint64) bool
}

func newBidPrices() *priceHeap {
	return newPriceHeap(func(a, b uint64) bool { return a > b })
}

func newAskPrices() *priceHeap {
	return newPriceHeap(func(a, b uint64) bool { return a < b })
}

func newPriceHeap(better func(a, b uint64) bool) *priceHeap {
	return &priceHeap{
		member: make(map[uint64]struct{}),
		better: better,
	}
}

// Add records a price level. Re-adding an occupied price is a no-op.
func (h *priceHeap) Add(price uint64) {
	if _, ok := h.member[price]; ok {
		return
	}
	heap.Push(h, price)
}

// Best returns the top price for which live reports a populated level,
// dropping stale entries on the way down.
func (h *priceHeap) Best(live func(price uint64) bool) (uint64, bool) {
	for len(h.prices) > 0 {
		price := h.prices[0]
		if live(price) {
			return price, true
		}
		heap.Pop(h)
	}
	return 0, false
}

// heap.Interface; callers go through Add and Best.

func (h *priceHeap) Len() int { return len(h.prices) }
func (h *priceHeap) Less(i, j int) bool { return h.better(h.prices[i], h.prices[j]) }
func (h *priceHeap) Swap(i, j int) { h.prices[i], h.prices[j] = h.prices[j], h.prices[i] }

func (h *priceHeap) Push(x any) {
	price := x.(uint64)
	h.member[price] = struct{}{}
	h.prices = append(h.prices, price)
}

func (h *priceHeap) Pop() any {
	n := len(h.prices)
	price := h.prices[n-1]
	h.prices = h.prices[:n-1]
	delete(h.member, price)
	return price
}
