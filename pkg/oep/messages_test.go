package oep

import (
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Version: Version, Type: uint16(MsgExecutionReport), Length: 57}
	buf := h.Encode()
	if len(buf) != HeaderSize {
		t.Fatalf("header size %d", len(buf))
	}
	got, err := DecodeHeader(buf)
	if err != nil || got != h {
		t.Fatalf("got %+v err=%v", got, err)
	}
	if got.MessageType() != MsgExecutionReport {
		t.Errorf("message type %v", got.MessageType())
	}
	if (Header{Type: 9}).MessageType() != MsgUnknown {
		t.Errorf("out-of-range type must map to MsgUnknown")
	}
}

func TestNewOrderWireLayout(t *testing.T) {
	m := NewOrder{
		ClientOrderID: 0x0102030405060708,
		Participant:   9,
		BookID:        10,
		Quantity:      11,
		Price:         12,
		OrderType:     2,
		Side:          1,
		GatewayID:     3,
		SessionID:     0xAABBCCDD,
	}
	buf := m.Encode()
	if len(buf) != NewOrderSize {
		t.Fatalf("size %d", len(buf))
	}
	// little-endian: lowest byte first
	if buf[0] != 0x08 || buf[7] != 0x01 {
		t.Errorf("client order id not little-endian: % x", buf[0:8])
	}
	if buf[42] != 1 || buf[43] != 3 {
		t.Errorf("side/gateway misplaced: % x", buf[40:48])
	}
	got, err := DecodeNewOrder(buf)
	if err != nil || got != m {
		t.Fatalf("got %+v err=%v", got, err)
	}
}

func TestExecutionReportRoundTrip(t *testing.T) {
	m := ExecutionReport{
		Participant:      1,
		OrderID:          2,
		SubmittedOrderID: 3,
		Book:             4,
		Quantity:         5,
		Price:            6,
		Flags:            FlagPriceOutOfBand,
		Side:             1,
		State:            3,
		SessionID:        7,
		GatewayID:        8,
	}
	buf := m.Encode()
	if len(buf) != ExecutionReportSize {
		t.Fatalf("size %d", len(buf))
	}
	got, err := DecodeExecutionReport(buf)
	if err != nil || got != m {
		t.Fatalf("got %+v err=%v", got, err)
	}
}

func TestLoginPadding(t *testing.T) {
	m := Login{Participant: 1, SessionID: 2, GatewayID: 3}
	copy(m.User[:], "alice")
	copy(m.Password[:], "digest")

	buf := m.Encode()
	if len(buf) != LoginSize {
		t.Fatalf("size %d", len(buf))
	}
	if buf[13] != 0 || buf[14] != 0 || buf[15] != 0 {
		t.Errorf("padding bytes not zero: % x", buf[12:16])
	}
	got, err := DecodeLogin(buf)
	if err != nil || got != m {
		t.Fatalf("got %+v err=%v", got, err)
	}
}

func TestShortBuffers(t *testing.T) {
	if _, err := DecodeNewOrder(make([]byte, NewOrderSize-1)); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("new order: %v", err)
	}
	if _, err := DecodeCancel(make([]byte, CancelSize-1)); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("cancel: %v", err)
	}
	if _, err := DecodeSessionInfo(nil); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("session info: %v", err)
	}
}
