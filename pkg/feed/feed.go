// Package feed publishes the market-by-order stream: one message per
// book mutation, in the exact order the mutations happened. The stream
// carries the only sequence numbers in the system, so consumers detect
// gaps here and nowhere else.
package feed

import (
	"encoding/binary"

	"github.com/openvenue/matchcore/pkg/instrument"
	"github.com/openvenue/matchcore/pkg/oep"
	"github.com/openvenue/matchcore/pkg/orderbook"
)

const headerSize = 9

const (
	TypeHeartbeat uint8 = iota
	TypeInstrument
	// snapshot image of an order already resting in the book
	TypeMarket
	TypeTrade
	TypeNewOrder
	TypeModify
	TypeCancel
)

// Disseminator is the sink the matching lanes publish through. Calls
// happen on lane goroutines; implementations must be safe for
// concurrent use and must assign sequence numbers atomically.
type Disseminator interface {
	Heartbeat()
	Instrument(ins *instrument.Instrument)
	Snapshot(o *orderbook.Order)
	Trade(t *orderbook.Trade)
	NewOrder(o *orderbook.Order)
	Modify(o *orderbook.Order)
	Cancel(o *orderbook.Order)
}

// Frame prepends the sequence and type header to a payload.
func Frame(sequence uint64, typeID uint8, value []byte) []byte {
	buf := make([]byte, headerSize+len(value))
	binary.LittleEndian.PutUint64(buf[0:8], sequence)
	buf[8] = typeID
	copy(buf[headerSize:], value)
	return buf
}

// DecodeFrame splits a datagram back into its header and payload.
func DecodeFrame(buf []byte) (sequence uint64, typeID uint8, value []byte, err error) {
	if len(buf) < headerSize {
		return 0, 0, nil, oep.ErrShortBuffer
	}
	return binary.LittleEndian.Uint64(buf[0:8]), buf[8], buf[headerSize:], nil
}

// orderPayload is the value of market, new-order and modify messages.
// It reuses the order-entry layout with the engine order id in the
// correlation slot and the session fields zeroed; the public stream
// must not leak who is behind an order.
func orderPayload(o *orderbook.Order) []byte {
	return oep.NewOrder{
		ClientOrderID: o.ID,
		BookID:        o.Instrument,
		Quantity:      o.Remaining,
		Price:         o.Price,
		OrderType:     uint16(o.Type),
		Side:          o.Side.Byte(),
	}.Encode()
}

func cancelPayload(o *orderbook.Order) []byte {
	return oep.Cancel{
		OrderID: o.ID,
		BookID:  o.Instrument,
		Side:    o.Side.Byte(),
	}.Encode()
}

func tradePayload(t *orderbook.Trade) []byte {
	return oep.Trade{
		BidOrderID: t.BidOrderID,
		AskOrderID: t.AskOrderID,
		Price:      t.Price,
		Quantity:   t.Quantity,
	}.Encode()
}
