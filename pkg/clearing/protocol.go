// Package clearing speaks the TLV protocol of the clearing component,
// which distributes instrument master data and trading-state edicts.
package clearing

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/openvenue/matchcore/pkg/instrument"
)

const (
	Version = 1

	// frame header: magic "CP" | version | entry count
	headerSize = 4
	// entry header: type(2) | length(2)
	entryHeaderSize = 4

	MaxPacketSize = 10 * 1024
)

const (
	EntryHeartbeat uint16 = iota
	EntryInstrumentUpdate
	EntryInstrumentRequest
	EntryAllInstruments
)

var (
	ErrBadMagic      = errors.New("clearing: bad magic")
	ErrBadVersion    = errors.New("clearing: unsupported version")
	ErrShortFrame    = errors.New("clearing: short frame")
	ErrFrameTooLarge = errors.New("clearing: frame exceeds max packet size")
)

// Entry is one TLV element of a frame.
type Entry struct {
	Type  uint16
	Value []byte
}

// EncodeFrame packs entries behind the frame header.
func EncodeFrame(entries []Entry) ([]byte, error) {
	if len(entries) > 255 {
		return nil, fmt.Errorf("clearing: %d entries exceed count byte", len(entries))
	}
	size := headerSize
	for _, e := range entries {
		size += entryHeaderSize + len(e.Value)
	}
	if size > MaxPacketSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, size)
	buf[0], buf[1] = 'C', 'P'
	buf[2] = Version
	buf[3] = byte(len(entries))
	off := headerSize
	for _, e := range entries {
		binary.LittleEndian.PutUint16(buf[off:], e.Type)
		binary.LittleEndian.PutUint16(buf[off+2:], uint16(len(e.Value)))
		copy(buf[off+entryHeaderSize:], e.Value)
		off += entryHeaderSize + len(e.Value)
	}
	return buf, nil
}

// DecodeFrame parses one frame from the head of buf and returns its
// entries plus the number of bytes consumed. ErrShortFrame means the
// stream has not delivered the whole frame yet; callers keep the bytes
// and retry with more data.
func DecodeFrame(buf []byte) ([]Entry, int, error) {
	if len(buf) < headerSize {
		return nil, 0, ErrShortFrame
	}
	if buf[0] != 'C' || buf[1] != 'P' {
		return nil, 0, ErrBadMagic
	}
	if buf[2] != Version {
		return nil, 0, ErrBadVersion
	}
	count := int(buf[3])
	entries := make([]Entry, 0, count)
	off := headerSize
	for i := 0; i < count; i++ {
		if off > MaxPacketSize {
			return nil, 0, ErrFrameTooLarge
		}
		if len(buf) < off+entryHeaderSize {
			return nil, 0, ErrShortFrame
		}
		typ := binary.LittleEndian.Uint16(buf[off:])
		length := int(binary.LittleEndian.Uint16(buf[off+2:]))
		off += entryHeaderSize
		if len(buf) < off+length {
			return nil, 0, ErrShortFrame
		}
		value := make([]byte, length)
		copy(value, buf[off:off+length])
		entries = append(entries, Entry{Type: typ, Value: value})
		off += length
	}
	return entries, off, nil
}

// HeartbeatFrame is the canonical single-heartbeat frame.
func HeartbeatFrame() []byte {
	frame, _ := EncodeFrame([]Entry{{Type: EntryHeartbeat}})
	return frame
}

// AllInstrumentsFrame requests a full master-data snapshot.
func AllInstrumentsFrame() []byte {
	frame, _ := EncodeFrame([]Entry{{Type: EntryAllInstruments}})
	return frame
}

// InstrumentRequestFrame asks for one instrument by id.
func InstrumentRequestFrame(id uint64) []byte {
	value := make([]byte, 8)
	binary.LittleEndian.PutUint64(value, id)
	frame, _ := EncodeFrame([]Entry{{Type: EntryInstrumentRequest, Value: value}})
	return frame
}

// InstrumentUpdateEntry encodes an instrument as a TLV entry, used by
// test doubles standing in for the clearing component.
func InstrumentUpdateEntry(ins instrument.Instrument) Entry {
	return Entry{Type: EntryInstrumentUpdate, Value: ins.Encode()}
}
