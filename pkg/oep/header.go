// Package oep implements the binary order-entry protocol spoken between
// the gateway, the participants and the matching engine. All multi-byte
// fields are little-endian and the structs are packed on the wire.
package oep

import "encoding/binary"

type MsgType uint16

const (
	MsgNewOrder MsgType = iota
	MsgModify
	MsgCancel
	MsgExecutionReport
	MsgLogin
	MsgUnknown MsgType = 0xffff
)

const Version uint16 = 1

const HeaderSize = 8

// Header precedes every OEP message on a TCP stream:
// Version(2) | Type(2) | Length(4).
type Header struct {
	Version uint16
	Type    uint16
	Length  uint32
}

func (h Header) MessageType() MsgType {
	if h.Type > uint16(MsgLogin) {
		return MsgUnknown
	}
	return MsgType(h.Type)
}

func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.Version)
	binary.LittleEndian.PutUint16(buf[2:4], h.Type)
	binary.LittleEndian.PutUint32(buf[4:8], h.Length)
	return buf
}

func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrShortBuffer
	}
	return Header{
		Version: binary.LittleEndian.Uint16(buf[0:2]),
		Type:    binary.LittleEndian.Uint16(buf[2:4]),
		Length:  binary.LittleEndian.Uint32(buf[4:8]),
	}, nil
}
