package contract

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrGateway    = errors.New("completion gateway failed")
	ErrStore      = errors.New("conversation store failed")
)
