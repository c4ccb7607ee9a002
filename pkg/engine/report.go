package engine

import (
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/openvenue/matchcore/pkg/oep"
)

// ReportPublisher relays execution reports back toward the gateway,
// which forwards them to the owning session.
type ReportPublisher interface {
	Publish(r oep.ExecutionReport)
}

type UDPReportsConfig struct {
	Addr string `yaml:"addr"`
}

// UDPReports sends each report as one datagram wrapped in the OEP
// header so the gateway can demultiplex by message type.
type UDPReports struct {
	conn net.Conn
	log  *zap.Logger
}

func NewUDPReports(cfg UDPReportsConfig, log *zap.Logger) (*UDPReports, error) {
	conn, err := net.Dial("udp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	return &UDPReports{conn: conn, log: log}, nil
}

func (p *UDPReports) Close() error {
	return p.conn.Close()
}

func (p *UDPReports) Publish(r oep.ExecutionReport) {
	body := r.Encode()
	h := oep.Header{
		Version: oep.Version,
		Type:    uint16(oep.MsgExecutionReport),
		Length:  uint32(len(body)),
	}
	buf := append(h.Encode(), body...)
	if _, err := p.conn.Write(buf); err != nil {
		p.log.Warn("report send failed",
			zap.Uint64("order_id", r.OrderID),
			zap.Error(err))
	}
}

// ReportRecorder captures reports for tests.
type ReportRecorder struct {
	mu      sync.Mutex
	Reports []oep.ExecutionReport
}

func (p *ReportRecorder) Publish(r oep.ExecutionReport) {
	p.mu.Lock()
	p.Reports = append(p.Reports, r)
	p.mu.Unlock()
}

func (p *ReportRecorder) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Reports)
}

func (p *ReportRecorder) Last() oep.ExecutionReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Reports[len(p.Reports)-1]
}
