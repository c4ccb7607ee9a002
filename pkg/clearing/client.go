package clearing

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/openvenue/matchcore/pkg/instrument"
)

type ClientConfig struct {
	Addr string `yaml:"addr"`
	// connection is torn down when no entry arrives for this long
	LivenessTimeout   time.Duration `yaml:"liveness_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	DialTimeout       time.Duration `yaml:"dial_timeout"`
}

func (c *ClientConfig) defaults() {
	if c.LivenessTimeout == 0 {
		c.LivenessTimeout = 3 * time.Second
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = time.Second
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
}

// Client maintains the TCP link to the clearing component. Instrument
// updates flow out on Updates; the link reconnects with exponential
// backoff and re-requests the full master-data snapshot each time, so
// consumers must treat updates as idempotent upserts.
type Client struct {
	cfg     ClientConfig
	log     *zap.Logger
	updates chan instrument.Instrument
}

func NewClient(cfg ClientConfig, log *zap.Logger) *Client {
	cfg.defaults()
	return &Client{
		cfg:     cfg,
		log:     log,
		updates: make(chan instrument.Instrument, 1024),
	}
}

func (c *Client) Updates() <-chan instrument.Instrument {
	return c.updates
}

// Run drives the connect/serve/reconnect loop until ctx is done.
func (c *Client) Run(ctx context.Context) {
	boff := backoff.NewExponentialBackOff()
	boff.MaxElapsedTime = 0
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.serveOnce(ctx); err != nil && ctx.Err() == nil {
			wait := boff.NextBackOff()
			c.log.Warn("clearing link lost",
				zap.String("addr", c.cfg.Addr),
				zap.Duration("retry_in", wait),
				zap.Error(err))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}
			continue
		}
		boff.Reset()
	}
}

func (c *Client) serveOnce(ctx context.Context) error {
	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.log.Info("clearing link up", zap.String("addr", c.cfg.Addr))

	if _, err := conn.Write(AllInstrumentsFrame()); err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go c.heartbeatLoop(ctx, conn, stop)

	buf := make([]byte, 0, 2*MaxPacketSize)
	chunk := make([]byte, MaxPacketSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.LivenessTimeout)); err != nil {
			return err
		}
		n, err := conn.Read(chunk)
		if err != nil {
			return err
		}
		buf = append(buf, chunk[:n]...)
		for {
			entries, consumed, err := DecodeFrame(buf)
			if errors.Is(err, ErrShortFrame) {
				break
			}
			if err != nil {
				// corrupt stream; drop the connection rather than
				// resynchronize on garbage
				return err
			}
			buf = buf[consumed:]
			c.handle(ctx, entries)
		}
	}
}

func (c *Client) heartbeatLoop(ctx context.Context, conn net.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := conn.Write(HeartbeatFrame()); err != nil {
				return
			}
		case <-stop:
			return
		case <-ctx.Done():
			conn.Close()
			return
		}
	}
}

func (c *Client) handle(ctx context.Context, entries []Entry) {
	for _, e := range entries {
		switch e.Type {
		case EntryHeartbeat:
			// read deadline already refreshed by the arrival
		case EntryInstrumentUpdate:
			ins, err := instrument.Decode(e.Value)
			if err != nil {
				c.log.Warn("bad instrument update", zap.Error(err))
				continue
			}
			select {
			case c.updates <- *ins:
			case <-ctx.Done():
				return
			}
		default:
			c.log.Debug("ignoring clearing entry", zap.Uint16("type", e.Type))
		}
	}
}
