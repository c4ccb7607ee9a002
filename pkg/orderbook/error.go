package orderbook

import "errors"

var (
	ErrPriceOutOfBand   = errors.New("price out of band")
	ErrUnknownOrder     = errors.New("unknown order")
	ErrDuplicateOrder   = errors.New("duplicate order")
	ErrInstrumentClosed = errors.New("instrument closed")
	ErrInvalidOrder     = errors.New("invalid order")
	ErrNotInAuction     = errors.New("instrument not in auction")
)
