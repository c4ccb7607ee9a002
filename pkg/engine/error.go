package engine

import "errors"

var ErrUnknownInstrument = errors.New("unknown instrument")
