package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/openvenue/matchcore/pkg/feed"
	"github.com/openvenue/matchcore/pkg/instrument"
	"github.com/openvenue/matchcore/pkg/oep"
	"github.com/openvenue/matchcore/pkg/orderbook"
	"github.com/openvenue/matchcore/pkg/session"
)

type Config struct {
	Lanes            int           `yaml:"lanes"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	QueueDepth       int           `yaml:"queue_depth"`
}

func (c *Config) defaults() {
	if c.Lanes <= 0 {
		c.Lanes = 4
	}
	if c.SnapshotInterval == 0 {
		c.SnapshotInterval = 20 * time.Second
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = 4096
	}
}

// Dispatcher assigns each instrument to exactly one lane by id modulo
// lane count and routes commands to the owning lane. Session
// notifications fan out to every lane, since one session may rest
// orders across several lanes.
type Dispatcher struct {
	cfg   Config
	lanes []*lane
	log   *zap.Logger
}

func NewDispatcher(cfg Config, fd feed.Disseminator, reports ReportPublisher, mirrors []TradeMirror, log *zap.Logger) *Dispatcher {
	cfg.defaults()
	d := &Dispatcher{cfg: cfg, log: log}
	for i := 0; i < cfg.Lanes; i++ {
		d.lanes = append(d.lanes, newLane(uint8(i), cfg.QueueDepth, fd, reports, mirrors, log))
	}
	return d
}

// Run blocks until ctx is done, driving all lanes plus the periodic
// book snapshot.
func (d *Dispatcher) Run(ctx context.Context) {
	for _, l := range d.lanes {
		go l.run(ctx)
	}
	ticker := time.NewTicker(d.cfg.SnapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, l := range d.lanes {
				l.post(ctx, laneMsg{kind: laneSnapshot})
			}
		case <-ctx.Done():
			return
		}
	}
}

// Submit routes one decoded ingress command.
func (d *Dispatcher) Submit(ctx context.Context, cmd Command) {
	if id, ok := cmd.Instrument(); ok {
		d.lanes[id%uint64(len(d.lanes))].post(ctx, laneMsg{kind: laneCommand, cmd: cmd})
		return
	}
	// session notify: every lane purges its own slice
	for _, l := range d.lanes {
		l.post(ctx, laneMsg{kind: laneCommand, cmd: cmd})
	}
}

// ApplyInstrument routes a clearing update to the owning lane.
func (d *Dispatcher) ApplyInstrument(ctx context.Context, ins instrument.Instrument) {
	d.lanes[ins.ID%uint64(len(d.lanes))].post(ctx, laneMsg{kind: laneInstrument, ins: ins})
}

// ConsumeUpdates drains the clearing update channel until ctx is done.
func (d *Dispatcher) ConsumeUpdates(ctx context.Context, updates <-chan instrument.Instrument) {
	for {
		select {
		case ins := <-updates:
			d.ApplyInstrument(ctx, ins)
		case <-ctx.Done():
			return
		}
	}
}

type laneMsgKind uint8

const (
	laneCommand laneMsgKind = iota
	laneInstrument
	laneSnapshot
)

type laneMsg struct {
	kind laneMsgKind
	cmd  Command
	ins  instrument.Instrument
}

// lane exclusively owns a disjoint subset of instruments: their books,
// registry records and session-tracker slice. All state below is only
// ever touched from the lane goroutine.
type lane struct {
	id       uint8
	ch       chan laneMsg
	registry *instrument.Registry
	books    map[uint64]*orderbook.Book
	tracker  *session.Tracker
	sink     *emitter
	feed     feed.Disseminator
	reports  ReportPublisher
	log      *zap.Logger

	orderSeq uint64
}

func newLane(id uint8, depth int, fd feed.Disseminator, reports ReportPublisher, mirrors []TradeMirror, log *zap.Logger) *lane {
	tracker := session.NewTracker()
	return &lane{
		id:       id,
		ch:       make(chan laneMsg, depth),
		registry: instrument.NewRegistry(),
		books:    make(map[uint64]*orderbook.Book),
		tracker:  tracker,
		sink:     &emitter{feed: fd, tracker: tracker, mirrors: mirrors},
		feed:     fd,
		reports:  reports,
		log:      log.With(zap.Uint8("lane", id)),
	}
}

func (l *lane) post(ctx context.Context, m laneMsg) {
	select {
	case l.ch <- m:
	case <-ctx.Done():
	}
}

func (l *lane) run(ctx context.Context) {
	for {
		select {
		case m := <-l.ch:
			switch m.kind {
			case laneCommand:
				l.handleCommand(m.cmd)
			case laneInstrument:
				l.handleInstrument(m.ins)
			case laneSnapshot:
				l.snapshot()
			}
		case <-ctx.Done():
			return
		}
	}
}

// nextOrderID yields engine-unique ids: lane id in the top byte, a
// lane-local counter below. Monotonic per lane, disjoint across lanes.
func (l *lane) nextOrderID() uint64 {
	l.orderSeq++
	return uint64(l.id)<<56 | l.orderSeq
}

func (l *lane) handleCommand(cmd Command) {
	switch cmd.Kind {
	case KindNew:
		l.handleNew(cmd.New)
	case KindModify:
		l.handleModify(cmd.Modify)
	case KindCancel:
		l.handleCancel(cmd.Cancel)
	case KindSession:
		l.handleSession(cmd.Session)
	}
}

func (l *lane) handleInstrument(upd instrument.Instrument) {
	prev, known := l.registry.State(upd.ID)
	ins := l.registry.Apply(&upd)

	if !known {
		l.books[ins.ID] = orderbook.New(ins, l.sink)
		l.feed.Instrument(ins)
		l.log.Info("instrument listed",
			zap.Uint64("id", ins.ID),
			zap.String("name", ins.Name),
			zap.String("state", ins.State.String()))
		return
	}

	book := l.books[ins.ID]
	switch {
	case prev == instrument.Auction && upd.State == instrument.Trading:
		// the edict ends the auction; uncross performs the actual
		// state flip so the clearing-price execution happens first
		ins.State = instrument.Auction
		if _, err := book.Uncross(); err != nil {
			l.log.Error("uncross failed", zap.Uint64("id", ins.ID), zap.Error(err))
		}
	case upd.State == instrument.Closed && prev != instrument.Closed:
		book.Close()
	}
	l.feed.Instrument(ins)
}

func (l *lane) handleNew(m oep.NewOrder) {
	report := oep.ExecutionReport{
		Participant:      m.Participant,
		SubmittedOrderID: m.ClientOrderID,
		Book:             m.BookID,
		Quantity:         m.Quantity,
		Price:            m.Price,
		Side:             m.Side,
		SessionID:        m.SessionID,
		GatewayID:        m.GatewayID,
	}

	book, ok := l.books[m.BookID]
	if !ok {
		report.Flags = FlagFor(ErrUnknownInstrument)
		report.State = orderbook.Rejected.Byte()
		l.reports.Publish(report)
		return
	}

	o := &orderbook.Order{
		ID:            l.nextOrderID(),
		ClientOrderID: m.ClientOrderID,
		Participant:   m.Participant,
		SessionID:     m.SessionID,
		GatewayID:     m.GatewayID,
		Instrument:    m.BookID,
		Side:          orderbook.SideFromByte(m.Side),
		Type:          orderbook.OrdTypeFromWire(m.OrderType),
		Price:         m.Price,
		Quantity:      m.Quantity,
	}
	st, err := book.AddOrder(o)
	if err == nil {
		report.OrderID = o.ID
		report.Quantity = o.Remaining
		if _, resting := book.Get(o.ID); resting {
			l.tracker.Record(sessionKey(o), session.OrderRef{OrderID: o.ID, Instrument: o.Instrument})
		}
	}
	report.Flags = FlagFor(err)
	report.State = st.Byte()
	l.reports.Publish(report)
}

func (l *lane) handleModify(m oep.Modify) {
	report := oep.ExecutionReport{
		Participant:      m.Participant,
		OrderID:          m.OrderID,
		SubmittedOrderID: m.OrderID,
		Book:             m.BookID,
		Quantity:         m.Quantity,
		Price:            m.Price,
		Side:             m.Side,
		SessionID:        m.SessionID,
		GatewayID:        m.GatewayID,
	}

	book, ok := l.books[m.BookID]
	if !ok {
		report.Flags = FlagFor(ErrUnknownInstrument)
		report.State = orderbook.Rejected.Byte()
		l.reports.Publish(report)
		return
	}

	// only the quantity is modifiable in place; a price change means
	// losing time priority, which is cancel plus new
	if o, resting := book.Get(m.OrderID); resting && o.Price != m.Price {
		report.Flags = FlagFor(orderbook.ErrInvalidOrder)
		report.State = orderbook.Rejected.Byte()
		l.reports.Publish(report)
		return
	}

	st, err := book.ReplaceQuantity(m.OrderID, m.Participant, m.SessionID, m.GatewayID, m.Quantity)
	report.Flags = FlagFor(err)
	report.State = st.Byte()
	l.reports.Publish(report)
}

func (l *lane) handleCancel(m oep.Cancel) {
	report := oep.ExecutionReport{
		Participant:      m.Participant,
		OrderID:          m.OrderID,
		SubmittedOrderID: m.OrderID,
		Book:             m.BookID,
		Side:             m.Side,
		SessionID:        m.SessionID,
		GatewayID:        m.GatewayID,
	}

	book, ok := l.books[m.BookID]
	if !ok {
		report.Flags = FlagFor(ErrUnknownInstrument)
		report.State = orderbook.Rejected.Byte()
		l.reports.Publish(report)
		return
	}

	o, err := book.CancelOrder(m.OrderID, m.Participant, m.SessionID, m.GatewayID)
	if err != nil {
		report.Flags = FlagFor(err)
		report.State = orderbook.Rejected.Byte()
		l.reports.Publish(report)
		return
	}
	report.Quantity = o.Quantity
	report.Price = o.Price
	report.State = orderbook.Cancelled.Byte()
	l.reports.Publish(report)
}

// handleSession purges everything the disconnected session left on
// this lane. Cancels hit the feed but no execution reports go back;
// there is no session to receive them.
func (l *lane) handleSession(m oep.SessionInfo) {
	key := session.Key{Participant: m.Participant, Session: m.SessionID, Gateway: m.GatewayID}
	refs := l.tracker.Purge(key)
	for _, ref := range refs {
		book, ok := l.books[ref.Instrument]
		if !ok {
			continue
		}
		o, err := book.Remove(ref.OrderID)
		if err != nil {
			continue
		}
		o.Remaining = 0
		l.feed.Cancel(o)
	}
	if len(refs) > 0 {
		l.log.Info("session purged",
			zap.Uint64("participant", m.Participant),
			zap.Uint32("session", m.SessionID),
			zap.Int("orders", len(refs)))
	}
}

// snapshot re-publishes every instrument and its resting orders so
// late-joining feed consumers can build state without a recovery
// channel.
func (l *lane) snapshot() {
	l.registry.Each(func(ins *instrument.Instrument) {
		l.feed.Instrument(ins)
		if book, ok := l.books[ins.ID]; ok {
			book.EachResting(func(o *orderbook.Order) {
				l.feed.Snapshot(o)
			})
		}
	})
}

// FlagFor maps a book rejection to the wire flag reported back.
func FlagFor(err error) uint16 {
	switch {
	case err == nil:
		return oep.FlagNone
	case errors.Is(err, ErrUnknownInstrument):
		return oep.FlagUnknownInstrument
	case errors.Is(err, orderbook.ErrPriceOutOfBand):
		return oep.FlagPriceOutOfBand
	case errors.Is(err, orderbook.ErrUnknownOrder):
		return oep.FlagUnknownOrder
	case errors.Is(err, orderbook.ErrDuplicateOrder):
		return oep.FlagDuplicateOrder
	case errors.Is(err, orderbook.ErrInstrumentClosed):
		return oep.FlagInstrumentClosed
	default:
		return oep.FlagInvalidOrder
	}
}
