package feed

import (
	"sync"
	"sync/atomic"

	"github.com/openvenue/matchcore/pkg/instrument"
	"github.com/openvenue/matchcore/pkg/orderbook"
)

// Recorded is one captured feed message.
type Recorded struct {
	Sequence uint64
	TypeID   uint8
	Value    []byte
}

// Recorder is an in-memory Disseminator for tests.
type Recorder struct {
	mu       sync.Mutex
	seq      atomic.Uint64
	Messages []Recorded
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(typeID uint8, value []byte) {
	seq := r.seq.Add(1)
	r.mu.Lock()
	r.Messages = append(r.Messages, Recorded{Sequence: seq, TypeID: typeID, Value: value})
	r.mu.Unlock()
}

func (r *Recorder) ByType(typeID uint8) []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Recorded
	for _, m := range r.Messages {
		if m.TypeID == typeID {
			out = append(out, m)
		}
	}
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Messages)
}

func (r *Recorder) Heartbeat() { r.record(TypeHeartbeat, nil) }
func (r *Recorder) Instrument(ins *instrument.Instrument) { r.record(TypeInstrument, ins.Encode()) }
func (r *Recorder) Snapshot(o *orderbook.Order) { r.record(TypeMarket, orderPayload(o)) }
func (r *Recorder) Trade(t *orderbook.Trade) { r.record(TypeTrade, tradePayload(t)) }
func (r *Recorder) NewOrder(o *orderbook.Order) { r.record(TypeNewOrder, orderPayload(o)) }
func (r *Recorder) Modify(o *orderbook.Order) { r.record(TypeModify, orderPayload(o)) }
func (r *Recorder) Cancel(o *orderbook.Order) { r.record(TypeCancel, cancelPayload(o)) }
