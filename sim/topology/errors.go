package topology

import "errors"

// Mutation errors. Store methods wrap these with context; test with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateDevice     = errors.New("duplicate device")
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrPortExhausted       = errors.New("port exhausted")
	ErrSelfConnection      = errors.New("device cannot connect to itself")
	ErrDeviceConnected     = errors.New("device still has connections")
	ErrUnknownDeviceType   = errors.New("unknown device type")
	ErrInvalidStatus       = errors.New("invalid connection status")
)
