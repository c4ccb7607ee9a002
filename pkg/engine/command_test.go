package engine

import (
	"errors"
	"testing"

	"github.com/openvenue/matchcore/pkg/oep"
)

func TestCommandRoundTrip(t *testing.T) {
	cases := []Command{
		{Kind: KindNew, New: oep.NewOrder{ClientOrderID: 1, Participant: 2, BookID: 3, Quantity: 4, Price: 5, Side: 1, GatewayID: 6, SessionID: 7}},
		{Kind: KindModify, Modify: oep.Modify{Participant: 2, OrderID: 8, BookID: 3, Quantity: 9, Price: 5}},
		{Kind: KindCancel, Cancel: oep.Cancel{Participant: 2, OrderID: 8, BookID: 3}},
		{Kind: KindSession, Session: oep.SessionInfo{Participant: 2, SessionID: 7, GatewayID: 6}},
	}
	for _, want := range cases {
		got, err := DecodeCommand(EncodeCommand(want))
		if err != nil {
			t.Fatalf("kind %d: %v", want.Kind, err)
		}
		if got != want {
			t.Errorf("kind %d: got %+v want %+v", want.Kind, got, want)
		}
	}
}

func TestDecodeCommandDropsGarbage(t *testing.T) {
	if _, err := DecodeCommand(nil); !errors.Is(err, ErrShortMessage) {
		t.Errorf("nil: %v", err)
	}
	if _, err := DecodeCommand([]byte{9, 0, 0, 0}); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("unknown type: %v", err)
	}
	// truncated body
	buf := EncodeCommand(Command{Kind: KindNew, New: oep.NewOrder{BookID: 1}})
	if _, err := DecodeCommand(buf[:len(buf)-1]); !errors.Is(err, oep.ErrShortBuffer) {
		t.Errorf("truncated: %v", err)
	}
}

func TestCommandInstrumentRouting(t *testing.T) {
	c := Command{Kind: KindNew, New: oep.NewOrder{BookID: 42}}
	if id, ok := c.Instrument(); !ok || id != 42 {
		t.Errorf("new: id=%d ok=%v", id, ok)
	}
	c = Command{Kind: KindSession}
	if _, ok := c.Instrument(); ok {
		t.Errorf("session notify must broadcast, not route")
	}
}
