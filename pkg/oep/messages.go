package oep

import (
	"encoding/binary"
	"errors"
)

var ErrShortBuffer = errors.New("oep: short buffer")

const (
	NewOrderSize        = 48
	ModifySize          = 46
	CancelSize          = 30
	ExecutionReportSize = 57
	SessionInfoSize     = 13
	LoginSize           = 144
	TradeSize           = 32
)

type NewOrder struct {
	ClientOrderID uint64
	Participant   uint64
	BookID        uint64
	Quantity      uint64
	Price         uint64
	OrderType     uint16
	Side          uint8
	GatewayID     uint8
	SessionID     uint32
}

func (m NewOrder) Encode() []byte {
	buf := make([]byte, NewOrderSize)
	binary.LittleEndian.PutUint64(buf[0:8], m.ClientOrderID)
	binary.LittleEndian.PutUint64(buf[8:16], m.Participant)
	binary.LittleEndian.PutUint64(buf[16:24], m.BookID)
	binary.LittleEndian.PutUint64(buf[24:32], m.Quantity)
	binary.LittleEndian.PutUint64(buf[32:40], m.Price)
	binary.LittleEndian.PutUint16(buf[40:42], m.OrderType)
	buf[42] = m.Side
	buf[43] = m.GatewayID
	binary.LittleEndian.PutUint32(buf[44:48], m.SessionID)
	return buf
}

func DecodeNewOrder(buf []byte) (NewOrder, error) {
	if len(buf) < NewOrderSize {
		return NewOrder{}, ErrShortBuffer
	}
	return NewOrder{
		ClientOrderID: binary.LittleEndian.Uint64(buf[0:8]),
		Participant:   binary.LittleEndian.Uint64(buf[8:16]),
		BookID:        binary.LittleEndian.Uint64(buf[16:24]),
		Quantity:      binary.LittleEndian.Uint64(buf[24:32]),
		Price:         binary.LittleEndian.Uint64(buf[32:40]),
		OrderType:     binary.LittleEndian.Uint16(buf[40:42]),
		Side:          buf[42],
		GatewayID:     buf[43],
		SessionID:     binary.LittleEndian.Uint32(buf[44:48]),
	}, nil
}

type Modify struct {
	Participant uint64
	OrderID     uint64
	BookID      uint64
	Quantity    uint64
	Price       uint64
	Side        uint8
	GatewayID   uint8
	SessionID   uint32
}

func (m Modify) Encode() []byte {
	buf := make([]byte, ModifySize)
	binary.LittleEndian.PutUint64(buf[0:8], m.Participant)
	binary.LittleEndian.PutUint64(buf[8:16], m.OrderID)
	binary.LittleEndian.PutUint64(buf[16:24], m.BookID)
	binary.LittleEndian.PutUint64(buf[24:32], m.Quantity)
	binary.LittleEndian.PutUint64(buf[32:40], m.Price)
	buf[40] = m.Side
	buf[41] = m.GatewayID
	binary.LittleEndian.PutUint32(buf[42:46], m.SessionID)
	return buf
}

func DecodeModify(buf []byte) (Modify, error) {
	if len(buf) < ModifySize {
		return Modify{}, ErrShortBuffer
	}
	return Modify{
		Participant: binary.LittleEndian.Uint64(buf[0:8]),
		OrderID:     binary.LittleEndian.Uint64(buf[8:16]),
		BookID:      binary.LittleEndian.Uint64(buf[16:24]),
		Quantity:    binary.LittleEndian.Uint64(buf[24:32]),
		Price:       binary.LittleEndian.Uint64(buf[32:40]),
		Side:        buf[40],
		GatewayID:   buf[41],
		SessionID:   binary.LittleEndian.Uint32(buf[42:46]),
	}, nil
}

type Cancel struct {
	Participant uint64
	OrderID     uint64
	BookID      uint64
	Side        uint8
	GatewayID   uint8
	SessionID   uint32
}

func (m Cancel) Encode() []byte {
	buf := make([]byte, CancelSize)
	binary.LittleEndian.PutUint64(buf[0:8], m.Participant)
	binary.LittleEndian.PutUint64(buf[8:16], m.OrderID)
	binary.LittleEndian.PutUint64(buf[16:24], m.BookID)
	buf[24] = m.Side
	buf[25] = m.GatewayID
	binary.LittleEndian.PutUint32(buf[26:30], m.SessionID)
	return buf
}

func DecodeCancel(buf []byte) (Cancel, error) {
	if len(buf) < CancelSize {
		return Cancel{}, ErrShortBuffer
	}
	return Cancel{
		Participant: binary.LittleEndian.Uint64(buf[0:8]),
		OrderID:     binary.LittleEndian.Uint64(buf[8:16]),
		BookID:      binary.LittleEndian.Uint64(buf[16:24]),
		Side:        buf[24],
		GatewayID:   buf[25],
		SessionID:   binary.LittleEndian.Uint32(buf[26:30]),
	}, nil
}

// ExecutionReport flag values. The flags field reports the rejection
// reason back to the gateway; zero means no rejection.
const (
	FlagNone uint16 = iota
	FlagUnknownInstrument
	FlagPriceOutOfBand
	FlagUnknownOrder
	FlagDuplicateOrder
	FlagInstrumentClosed
	FlagInvalidOrder
)

type ExecutionReport struct {
	Participant uint64
	OrderID     uint64
	// client order id for new orders, exchange order id for
	// modifies and cancels
	SubmittedOrderID uint64
	Book             uint64
	Quantity         uint64
	Price            uint64
	Flags            uint16
	Side             uint8
	State            uint8
	SessionID        uint32
	GatewayID        uint8
}

func (m ExecutionReport) Encode() []byte {
	buf := make([]byte, ExecutionReportSize)
	binary.LittleEndian.PutUint64(buf[0:8], m.Participant)
	binary.LittleEndian.PutUint64(buf[8:16], m.OrderID)
	binary.LittleEndian.PutUint64(buf[16:24], m.SubmittedOrderID)
	binary.LittleEndian.PutUint64(buf[24:32], m.Book)
	binary.LittleEndian.PutUint64(buf[32:40], m.Quantity)
	binary.LittleEndian.PutUint64(buf[40:48], m.Price)
	binary.LittleEndian.PutUint16(buf[48:50], m.Flags)
	buf[50] = m.Side
	buf[51] = m.State
	binary.LittleEndian.PutUint32(buf[52:56], m.SessionID)
	buf[56] = m.GatewayID
	return buf
}

func DecodeExecutionReport(buf []byte) (ExecutionReport, error) {
	if len(buf) < ExecutionReportSize {
		return ExecutionReport{}, ErrShortBuffer
	}
	return ExecutionReport{
		Participant:      binary.LittleEndian.Uint64(buf[0:8]),
		OrderID:          binary.LittleEndian.Uint64(buf[8:16]),
		SubmittedOrderID: binary.LittleEndian.Uint64(buf[16:24]),
		Book:             binary.LittleEndian.Uint64(buf[24:32]),
		Quantity:         binary.LittleEndian.Uint64(buf[32:40]),
		Price:            binary.LittleEndian.Uint64(buf[40:48]),
		Flags:            binary.LittleEndian.Uint16(buf[48:50]),
		Side:             buf[50],
		State:            buf[51],
		SessionID:        binary.LittleEndian.Uint32(buf[52:56]),
		GatewayID:        buf[56],
	}, nil
}

// SessionInfo is not a participant-facing OEP message; the gateway
// sends it to the engine when a session disconnects so the engine can
// purge that session's resting orders.
type SessionInfo struct {
	Participant uint64
	SessionID   uint32
	GatewayID   uint8
}

func (m SessionInfo) Encode() []byte {
	buf := make([]byte, SessionInfoSize)
	binary.LittleEndian.PutUint64(buf[0:8], m.Participant)
	binary.LittleEndian.PutUint32(buf[8:12], m.SessionID)
	buf[12] = m.GatewayID
	return buf
}

func DecodeSessionInfo(buf []byte) (SessionInfo, error) {
	if len(buf) < SessionInfoSize {
		return SessionInfo{}, ErrShortBuffer
	}
	return SessionInfo{
		Participant: binary.LittleEndian.Uint64(buf[0:8]),
		SessionID:   binary.LittleEndian.Uint32(buf[8:12]),
		GatewayID:   buf[12],
	}, nil
}

// Trade only travels on the market data feed, never on order entry.
type Trade struct {
	BidOrderID uint64
	AskOrderID uint64
	Price      uint64
	Quantity   uint64
}

func (m Trade) Encode() []byte {
	buf := make([]byte, TradeSize)
	binary.LittleEndian.PutUint64(buf[0:8], m.BidOrderID)
	binary.LittleEndian.PutUint64(buf[8:16], m.AskOrderID)
	binary.LittleEndian.PutUint64(buf[16:24], m.Price)
	binary.LittleEndian.PutUint64(buf[24:32], m.Quantity)
	return buf
}

func DecodeTrade(buf []byte) (Trade, error) {
	if len(buf) < TradeSize {
		return Trade{}, ErrShortBuffer
	}
	return Trade{
		BidOrderID: binary.LittleEndian.Uint64(buf[0:8]),
		AskOrderID: binary.LittleEndian.Uint64(buf[8:16]),
		Price:      binary.LittleEndian.Uint64(buf[16:24]),
		Quantity:   binary.LittleEndian.Uint64(buf[24:32]),
	}, nil
}

// Login authenticates a session at the gateway; the engine only sees it
// when relayed for audit. Password is a SHA-512 digest, user a NUL
// padded string.
type Login struct {
	Participant uint64
	SessionID   uint32
	GatewayID   uint8
	User        [64]byte
	Password    [64]byte
}

func (m Login) Encode() []byte {
	buf := make([]byte, LoginSize)
	binary.LittleEndian.PutUint64(buf[0:8], m.Participant)
	binary.LittleEndian.PutUint32(buf[8:12], m.SessionID)
	buf[12] = m.GatewayID
	// 3 bytes padding
	copy(buf[16:80], m.User[:])
	copy(buf[80:144], m.Password[:])
	return buf
}

func DecodeLogin(buf []byte) (Login, error) {
	if len(buf) < LoginSize {
		return Login{}, ErrShortBuffer
	}
	m := Login{
		Participant: binary.LittleEndian.Uint64(buf[0:8]),
		SessionID:   binary.LittleEndian.Uint32(buf[8:12]),
		GatewayID:   buf[12],
	}
	copy(m.User[:], buf[16:80])
	copy(m.Password[:], buf[80:144])
	return m, nil
}
