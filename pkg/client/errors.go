package client

import "errors"

// Controller and transport errors.
var (
	ErrNotConnected    = errors.New("not connected")
	ErrAlreadyStarted  = errors.New("transport already started")
	ErrTransportClosed = errors.New("transport closed")
)
