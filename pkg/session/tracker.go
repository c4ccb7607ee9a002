// Package session tracks which live orders belong to which gateway
// session so a disconnect can purge everything that session left
// behind. Each processing lane owns one tracker; no locking.
package session

// Key identifies a gateway session. The same participant may hold
// several sessions across gateways, each purged independently.
type Key struct {
	Participant uint64
	Session     uint32
	Gateway     uint8
}

// OrderRef locates a live order for the purge path.
type OrderRef struct {
	OrderID    uint64
	Instrument uint64
}

type Tracker struct {
	orders map[Key]map[uint64]OrderRef
}

func NewTracker() *Tracker {
	return &Tracker{orders: make(map[Key]map[uint64]OrderRef)}
}

// Record remembers a resting order under its session.
func (t *Tracker) Record(k Key, ref OrderRef) {
	m := t.orders[k]
	if m == nil {
		m = make(map[uint64]OrderRef)
		t.orders[k] = m
	}
	m[ref.OrderID] = ref
}

// Forget drops a single order, called when it fills out, cancels or is
// removed by an instrument close. Unknown ids are ignored.
func (t *Tracker) Forget(k Key, orderID uint64) {
	m := t.orders[k]
	if m == nil {
		return
	}
	delete(m, orderID)
	if len(m) == 0 {
		delete(t.orders, k)
	}
}

// Purge removes the whole session and returns its orders. A second
// purge of the same session returns nothing.
func (t *Tracker) Purge(k Key) []OrderRef {
	m := t.orders[k]
	if m == nil {
		return nil
	}
	delete(t.orders, k)
	refs := make([]OrderRef, 0, len(m))
	for _, ref := range m {
		refs = append(refs, ref)
	}
	return refs
}

// Live reports the number of tracked orders for a session.
func (t *Tracker) Live(k Key) int {
	return len(t.orders[k])
}
