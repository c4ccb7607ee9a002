package engine

import (
	"errors"

	"github.com/openvenue/matchcore/pkg/oep"
)

// ingress message-type byte, ahead of three padding bytes
const (
	msgNew     uint8 = 0
	msgModify  uint8 = 1
	msgCancel  uint8 = 2
	msgSession uint8 = 6
)

const ingressHeaderSize = 4

var (
	ErrUnknownMessage = errors.New("engine: unknown ingress message type")
	ErrShortMessage   = errors.New("engine: short ingress message")
)

type CommandKind uint8

const (
	KindNew CommandKind = iota
	KindModify
	KindCancel
	KindSession
)

// Command is one decoded ingress datagram.
type Command struct {
	Kind    CommandKind
	New     oep.NewOrder
	Modify  oep.Modify
	Cancel  oep.Cancel
	Session oep.SessionInfo
}

// Instrument returns the book id the command targets; session
// notifications target every lane and report false.
func (c Command) Instrument() (uint64, bool) {
	switch c.Kind {
	case KindNew:
		return c.New.BookID, true
	case KindModify:
		return c.Modify.BookID, true
	case KindCancel:
		return c.Cancel.BookID, true
	}
	return 0, false
}

// DecodeCommand parses a gateway ingress datagram. Anything malformed
// comes back as an error and the caller drops the whole datagram; no
// partial processing.
func DecodeCommand(buf []byte) (Command, error) {
	if len(buf) < ingressHeaderSize {
		return Command{}, ErrShortMessage
	}
	body := buf[ingressHeaderSize:]
	switch buf[0] {
	case msgNew:
		m, err := oep.DecodeNewOrder(body)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindNew, New: m}, nil
	case msgModify:
		m, err := oep.DecodeModify(body)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindModify, Modify: m}, nil
	case msgCancel:
		m, err := oep.DecodeCancel(body)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindCancel, Cancel: m}, nil
	case msgSession:
		m, err := oep.DecodeSessionInfo(body)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindSession, Session: m}, nil
	}
	return Command{}, ErrUnknownMessage
}

// EncodeCommand builds an ingress datagram, used by the gateway side
// and by tests.
func EncodeCommand(c Command) []byte {
	var msgType uint8
	var body []byte
	switch c.Kind {
	case KindNew:
		msgType, body = msgNew, c.New.Encode()
	case KindModify:
		msgType, body = msgModify, c.Modify.Encode()
	case KindCancel:
		msgType, body = msgCancel, c.Cancel.Encode()
	case KindSession:
		msgType, body = msgSession, c.Session.Encode()
	}
	buf := make([]byte, ingressHeaderSize+len(body))
	buf[0] = msgType
	copy(buf[ingressHeaderSize:], body)
	return buf
}
