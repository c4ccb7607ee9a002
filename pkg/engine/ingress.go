package engine

import (
	"context"
	"net"

	"go.uber.org/zap"
)

type IngressConfig struct {
	// multicast group or unicast listen address
	Addr string `yaml:"addr"`
}

// Ingress receives gateway command datagrams and feeds the dispatcher.
// The link carries no sequence numbers; a dropped datagram is simply a
// command that never happened.
type Ingress struct {
	pc  net.PacketConn
	d   *Dispatcher
	log *zap.Logger
}

func NewIngress(cfg IngressConfig, d *Dispatcher, log *zap.Logger) (*Ingress, error) {
	addr, err := net.ResolveUDPAddr("udp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	var pc net.PacketConn
	if addr.IP != nil && addr.IP.IsMulticast() {
		pc, err = net.ListenMulticastUDP("udp", nil, addr)
	} else {
		pc, err = net.ListenUDP("udp", addr)
	}
	if err != nil {
		return nil, err
	}
	return &Ingress{pc: pc, d: d, log: log}, nil
}

func (in *Ingress) LocalAddr() net.Addr {
	return in.pc.LocalAddr()
}

// Run reads datagrams until ctx is done. Malformed datagrams are
// dropped whole, never partially processed.
func (in *Ingress) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		in.pc.Close()
	}()

	buf := make([]byte, 64*1024)
	for {
		n, _, err := in.pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			in.log.Warn("ingress read failed", zap.Error(err))
			continue
		}
		cmd, err := DecodeCommand(buf[:n])
		if err != nil {
			in.log.Debug("dropping malformed ingress datagram",
				zap.Int("bytes", n),
				zap.Error(err))
			continue
		}
		in.d.Submit(ctx, cmd)
	}
}
