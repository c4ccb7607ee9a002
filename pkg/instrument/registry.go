package instrument

// Registry holds the instruments owned by a single processing lane.
// Lanes never share a registry, so there is no locking here.
type Registry struct {
	byID map[uint64]*Instrument
}

func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[uint64]*Instrument),
	}
}

// Apply upserts a clearing-originated update keyed by instrument id.
// The stored record keeps its reference price across updates; the
// clearing protocol does not carry one. Returns the stored record.
func (r *Registry) Apply(upd *Instrument) *Instrument {
	if existing, ok := r.byID[upd.ID]; ok {
		existing.Name = upd.Name
		existing.Kind = upd.Kind
		existing.State = upd.State
		existing.PctBands = upd.PctBands
		existing.PctVariation = upd.PctVariation
		return existing
	}

	ins := *upd
	r.byID[upd.ID] = &ins
	return &ins
}

func (r *Registry) Get(id uint64) (*Instrument, bool) {
	ins, ok := r.byID[id]
	return ins, ok
}

// State is the read-only matching gate.
func (r *Registry) State(id uint64) (State, bool) {
	ins, ok := r.byID[id]
	if !ok {
		return Closed, false
	}
	return ins.State, true
}

func (r *Registry) Len() int {
	return len(r.byID)
}

func (r *Registry) Each(fn func(*Instrument)) {
	for _, ins := range r.byID {
		fn(ins)
	}
}
