package clearing

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/openvenue/matchcore/pkg/instrument"
)

func TestClientReceivesInstrumentUpdates(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		frame, _ := EncodeFrame([]Entry{
			InstrumentUpdateEntry(instrument.Instrument{ID: 5, Name: "ACME", PctBands: 20, PctVariation: 10}),
			{Type: EntryHeartbeat},
		})
		// two writes so the client has to reassemble
		conn.Write(frame[:5])
		time.Sleep(10 * time.Millisecond)
		conn.Write(frame[5:])
		time.Sleep(time.Second)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c := NewClient(ClientConfig{Addr: ln.Addr().String()}, zap.NewNop())
	go c.Run(ctx)

	select {
	case ins := <-c.Updates():
		if ins.ID != 5 || ins.Name != "ACME" {
			t.Errorf("wrong update: %+v", ins)
		}
	case <-ctx.Done():
		t.Fatal("no update before timeout")
	}
}

func TestClientDropsSilentConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepts := make(chan net.Conn, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			// never send anything; the client must give up on us
			accepts <- conn
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg := ClientConfig{Addr: ln.Addr().String(), LivenessTimeout: 100 * time.Millisecond}
	c := NewClient(cfg, zap.NewNop())
	go c.Run(ctx)

	// a reconnect after the liveness timeout shows the teardown happened
	for i := 0; i < 2; i++ {
		select {
		case <-accepts:
		case <-ctx.Done():
			t.Fatalf("expected connection attempt %d before timeout", i+1)
		}
	}
}
