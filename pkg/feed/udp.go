package feed

import (
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/openvenue/matchcore/pkg/instrument"
	"github.com/openvenue/matchcore/pkg/orderbook"
)

type UDPConfig struct {
	// unicast or multicast group address, e.g. "239.1.1.1:7000"
	Addr string `yaml:"addr"`
}

// UDP sends one datagram per feed message. Sends are fire and forget;
// a failed send is logged and the sequence number it consumed is a gap
// the consumer will see.
type UDP struct {
	conn net.Conn
	log  *zap.Logger
	seq  atomic.Uint64
}

func NewUDP(cfg UDPConfig, log *zap.Logger) (*UDP, error) {
	conn, err := net.Dial("udp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	return &UDP{conn: conn, log: log}, nil
}

func (u *UDP) Close() error {
	return u.conn.Close()
}

// Sequence returns the last assigned sequence number.
func (u *UDP) Sequence() uint64 {
	return u.seq.Load()
}

func (u *UDP) send(typeID uint8, value []byte) {
	seq := u.seq.Add(1)
	if _, err := u.conn.Write(Frame(seq, typeID, value)); err != nil {
		u.log.Warn("feed send failed",
			zap.Uint64("sequence", seq),
			zap.Uint8("type", typeID),
			zap.Error(err))
	}
}

func (u *UDP) Heartbeat() { u.send(TypeHeartbeat, nil) }
func (u *UDP) Instrument(ins *instrument.Instrument) { u.send(TypeInstrument, ins.Encode()) }
func (u *UDP) Snapshot(o *orderbook.Order) { u.send(TypeMarket, orderPayload(o)) }
func (u *UDP) Trade(t *orderbook.Trade) { u.send(TypeTrade, tradePayload(t)) }
func (u *UDP) NewOrder(o *orderbook.Order) { u.send(TypeNewOrder, orderPayload(o)) }
func (u *UDP) Modify(o *orderbook.Order) { u.send(TypeModify, orderPayload(o)) }
func (u *UDP) Cancel(o *orderbook.Order) { u.send(TypeCancel, cancelPayload(o)) }

// RunHeartbeat emits a heartbeat every interval until stop is closed,
// keeping consumers' gap detectors alive through quiet markets.
func (u *UDP) RunHeartbeat(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			u.Heartbeat()
		case <-stop:
			return
		}
	}
}
