package feed

import (
	"net"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/openvenue/matchcore/pkg/oep"
	"github.com/openvenue/matchcore/pkg/orderbook"
)

func TestFrameRoundTrip(t *testing.T) {
	buf := Frame(42, TypeTrade, []byte{1, 2, 3})
	seq, typeID, value, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if seq != 42 || typeID != TypeTrade || len(value) != 3 {
		t.Errorf("mangled frame: seq=%d type=%d value=%v", seq, typeID, value)
	}
}

func TestOrderPayloadHidesSession(t *testing.T) {
	o := &orderbook.Order{
		ID:          9,
		Participant: 77,
		SessionID:   5,
		GatewayID:   2,
		Instrument:  3,
		Side:        orderbook.Bid,
		Price:       100,
		Quantity:    10,
		Remaining:   4,
	}
	msg, err := oep.DecodeNewOrder(orderPayload(o))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.ClientOrderID != 9 || msg.BookID != 3 || msg.Quantity != 4 || msg.Price != 100 {
		t.Errorf("wrong payload: %+v", msg)
	}
	if msg.Participant != 0 || msg.SessionID != 0 || msg.GatewayID != 0 {
		t.Errorf("session identity leaked into the public stream: %+v", msg)
	}
}

func TestRecorderSequencesMonotonically(t *testing.T) {
	r := NewRecorder()
	o := &orderbook.Order{ID: 1, Instrument: 2, Price: 10, Remaining: 5}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.NewOrder(o)
			r.Cancel(o)
		}()
	}
	wg.Wait()

	if r.Len() != 100 {
		t.Fatalf("expected 100 messages, got %d", r.Len())
	}
	seen := make(map[uint64]bool)
	for _, m := range r.Messages {
		if m.Sequence == 0 || seen[m.Sequence] {
			t.Fatalf("sequence %d reused or zero", m.Sequence)
		}
		seen[m.Sequence] = true
	}
}

func TestUDPDelivery(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close()

	u, err := NewUDP(UDPConfig{Addr: pc.LocalAddr().String()}, zap.NewNop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer u.Close()

	u.Trade(&orderbook.Trade{BidOrderID: 1, AskOrderID: 2, Price: 100, Quantity: 5})
	u.Heartbeat()

	pc.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1500)

	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	seq, typeID, value, err := DecodeFrame(buf[:n])
	if err != nil || seq != 1 || typeID != TypeTrade {
		t.Fatalf("first datagram: seq=%d type=%d err=%v", seq, typeID, err)
	}
	tr, err := oep.DecodeTrade(value)
	if err != nil || tr.Price != 100 || tr.Quantity != 5 {
		t.Fatalf("trade payload: %+v err=%v", tr, err)
	}

	n, _, err = pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read heartbeat: %v", err)
	}
	seq, typeID, _, _ = DecodeFrame(buf[:n])
	if seq != 2 || typeID != TypeHeartbeat {
		t.Errorf("second datagram: seq=%d type=%d", seq, typeID)
	}
}
