package clearing

import (
	"bytes"
	"errors"
	"testing"

	"github.com/openvenue/matchcore/pkg/instrument"
)

func TestFrameRoundTrip(t *testing.T) {
	ins := instrument.Instrument{
		ID:           42,
		Name:         "ACME",
		Kind:         instrument.Share,
		State:        instrument.Trading,
		PctBands:     20,
		PctVariation: 10,
	}
	frame, err := EncodeFrame([]Entry{
		{Type: EntryHeartbeat},
		InstrumentUpdateEntry(ins),
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	entries, consumed, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != len(frame) {
		t.Errorf("expected %d consumed, got %d", len(frame), consumed)
	}
	if len(entries) != 2 || entries[0].Type != EntryHeartbeat {
		t.Fatalf("wrong entries: %+v", entries)
	}

	got, err := instrument.Decode(entries[1].Value)
	if err != nil {
		t.Fatalf("instrument decode: %v", err)
	}
	if got.ID != 42 || got.Name != "ACME" || got.PctBands != 20 || got.PctVariation != 10 {
		t.Errorf("instrument mangled: %+v", got)
	}
}

func TestDecodeFragmented(t *testing.T) {
	frame, _ := EncodeFrame([]Entry{InstrumentUpdateEntry(instrument.Instrument{ID: 1, Name: "X"})})

	for cut := 0; cut < len(frame); cut++ {
		if _, _, err := DecodeFrame(frame[:cut]); !errors.Is(err, ErrShortFrame) {
			t.Fatalf("cut at %d: expected ErrShortFrame, got %v", cut, err)
		}
	}
}

func TestDecodeTwoFramesBackToBack(t *testing.T) {
	a, _ := EncodeFrame([]Entry{{Type: EntryHeartbeat}})
	b, _ := EncodeFrame([]Entry{InstrumentUpdateEntry(instrument.Instrument{ID: 9, Name: "Y"})})
	stream := append(append([]byte{}, a...), b...)

	entries, consumed, err := DecodeFrame(stream)
	if err != nil || len(entries) != 1 || entries[0].Type != EntryHeartbeat {
		t.Fatalf("first frame: %+v %v", entries, err)
	}
	stream = stream[consumed:]

	entries, consumed, err = DecodeFrame(stream)
	if err != nil || len(entries) != 1 || entries[0].Type != EntryInstrumentUpdate {
		t.Fatalf("second frame: %+v %v", entries, err)
	}
	if consumed != len(stream) {
		t.Errorf("trailing bytes left: %d", len(stream)-consumed)
	}
}

func TestDecodeRejectsBadHeader(t *testing.T) {
	if _, _, err := DecodeFrame([]byte{'X', 'P', 1, 0}); !errors.Is(err, ErrBadMagic) {
		t.Errorf("expected ErrBadMagic, got %v", err)
	}
	if _, _, err := DecodeFrame([]byte{'C', 'P', 9, 0}); !errors.Is(err, ErrBadVersion) {
		t.Errorf("expected ErrBadVersion, got %v", err)
	}
}

func TestEncodeRejectsOversizedFrame(t *testing.T) {
	big := Entry{Type: EntryInstrumentUpdate, Value: bytes.Repeat([]byte{0}, 6000)}
	if _, err := EncodeFrame([]Entry{big, big}); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestRequestFrames(t *testing.T) {
	entries, _, err := DecodeFrame(InstrumentRequestFrame(77))
	if err != nil || len(entries) != 1 {
		t.Fatalf("decode: %v", err)
	}
	if entries[0].Type != EntryInstrumentRequest || len(entries[0].Value) != 8 || entries[0].Value[0] != 77 {
		t.Errorf("wrong request entry: %+v", entries[0])
	}

	entries, _, err = DecodeFrame(AllInstrumentsFrame())
	if err != nil || len(entries) != 1 || entries[0].Type != EntryAllInstruments {
		t.Fatalf("all-instruments frame: %+v %v", entries, err)
	}
}
