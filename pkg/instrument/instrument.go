package instrument

import (
	"encoding/binary"
	"errors"
)

type Kind uint8

const (
	Share Kind = iota
	OptionCall
	OptionPut
	Future
	Warrant
)

func KindFromByte(b byte) Kind {
	if b > byte(Warrant) {
		return Share
	}
	return Kind(b)
}

type State uint8

const (
	Trading State = iota
	Closed
	Auction
)

func StateFromByte(b byte) State {
	if b > byte(Auction) {
		return Closed
	}
	return State(b)
}

func (s State) String() string {
	switch s {
	case Trading:
		return "Trading"
	case Closed:
		return "Closed"
	case Auction:
		return "Auction"
	}
	return "Unknown"
}

// transitions the engine may perform on its own; clearing updates
// override the state unconditionally
var transitions = map[State][]State{
	Trading: {Closed, Auction},
	Auction: {Trading},
	Closed:  {},
}

func (s State) CanTransition(to State) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Transition applies an engine-originated state change, refusing moves
// the table above does not allow. Clearing edicts set State directly.
func (i *Instrument) Transition(to State) bool {
	if !i.State.CanTransition(to) {
		return false
	}
	i.State = to
	return true
}

// Instrument is the per-book master data record. Only clearing updates
// create or mutate it, with two exceptions owned by the matching lane:
// State (variation breach flips Trading to Auction) and Reference
// (updated to the last trade price).
type Instrument struct {
	ID           uint64
	Name         string
	Kind         Kind
	State        State
	PctBands     uint8
	PctVariation uint8

	// last trade price in ticks, 0 until the first trade or an
	// uncross seeds it
	Reference uint64
}

const encodedFixedSize = 12

var errShortBuffer = errors.New("instrument: short buffer")

// Encode serializes the record in the feed/clearing value layout:
// ID(8) | Kind(1) | State(1) | PctBands(1) | PctVariation(1) | Name.
func (i *Instrument) Encode() []byte {
	buf := make([]byte, encodedFixedSize+len(i.Name))
	binary.LittleEndian.PutUint64(buf[0:8], i.ID)
	buf[8] = byte(i.Kind)
	buf[9] = byte(i.State)
	buf[10] = i.PctBands
	buf[11] = i.PctVariation
	copy(buf[encodedFixedSize:], i.Name)
	return buf
}

func Decode(buf []byte) (*Instrument, error) {
	if len(buf) < encodedFixedSize {
		return nil, errShortBuffer
	}
	return &Instrument{
		ID:           binary.LittleEndian.Uint64(buf[0:8]),
		Kind:         KindFromByte(buf[8]),
		State:        StateFromByte(buf[9]),
		PctBands:     buf[10],
		PctVariation: buf[11],
		Name:         string(buf[encodedFixedSize:]),
	}, nil
}
