package model

import (
	"context"
	"net"
)

// Server represents a network server lifecycle.
type Server interface {
	Start(sl SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}

// SecurityLayer produces a network listener, either plain or TLS.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}
