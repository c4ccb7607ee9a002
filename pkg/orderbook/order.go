package orderbook

type Side uint8

const (
	Bid Side = iota
	Ask
)

func SideFromByte(b byte) Side {
	if b == 0 {
		return Bid
	}
	return Ask
}

func (s Side) Byte() byte {
	return byte(s)
}

func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

func (s Side) String() string {
	if s == Bid {
		return "Bid"
	}
	return "Ask"
}

type OrdType uint16

const (
	// standing day limit order
	Day OrdType = iota
	// fill as much as possible at any price, never rests
	Market
	// fill as much as possible against the book, cancel the rest
	FillAndKill
	// fill completely or cancel without trading
	FillOrKill
)

func OrdTypeFromWire(v uint16) OrdType {
	if v > uint16(FillOrKill) {
		return Day
	}
	return OrdType(v)
}

// Status is the outcome of a book operation, reported back to the
// gateway in the execution report state byte.
type Status uint8

const (
	Inserted Status = iota
	Modified
	Cancelled
	Rejected
	Traded
	PartiallyTraded
)

func (s Status) Byte() byte {
	return byte(s)
}

func (s Status) String() string {
	switch s {
	case Inserted:
		return "Inserted"
	case Modified:
		return "Modified"
	case Cancelled:
		return "Cancelled"
	case Rejected:
		return "Rejected"
	case Traded:
		return "Traded"
	case PartiallyTraded:
		return "PartiallyTraded"
	}
	return "Unknown"
}

type Order struct {
	// engine-assigned, unique across the whole engine
	ID            uint64
	ClientOrderID uint64
	Participant   uint64
	SessionID     uint32
	GatewayID     uint8
	Instrument    uint64
	Side          Side
	Type          OrdType
	Price         uint64
	Quantity      uint64
	Remaining     uint64

	// lane-local monotonic counter, the time-priority tie-break
	// within a price level
	Arrival uint64
}

// Trade is immutable once emitted. Quantity is the minimum of the two
// participating orders' remaining quantities at match time.
type Trade struct {
	Instrument uint64
	BidOrderID uint64
	AskOrderID uint64
	Price      uint64
	Quantity   uint64
	Sequence   uint64
}

// EventSink receives book mutations in the exact order they occur
// inside a matching pass. Emission order is the order-of-truth for
// downstream consumers.
type EventSink interface {
	OrderAdded(o *Order)
	OrderModified(o *Order)
	OrderCanceled(o *Order)
	// a resting order removed because its remaining hit zero; the
	// trade message already carries the fact
	OrderFilled(o *Order)
	TradeExecuted(t *Trade)
}
