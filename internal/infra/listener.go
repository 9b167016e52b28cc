package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"syscall"
)

const DefaultMaxPortAttempts = 10

// ErrNoAvailablePort means every port in the fallback range was in use
var ErrNoAvailablePort = errors.New("no available port")

// ListenFunc opens a listener; net.Listen in production
type ListenFunc func(network, address string) (net.Listener, error)

// PortBinder binds a TCP listener starting at Port, moving to the next port
// while the current one is in use.
type PortBinder struct {
	Host        string
	Port        int
	MaxAttempts int
	Listen      ListenFunc
	Logger      *slog.Logger
}

// Bind returns the listener and the port it ended up on. Any bind error other
// than "address in use" is returned immediately without trying further ports.
func (b *PortBinder) Bind() (net.Listener, int, error) {
	listen := b.Listen
	if listen == nil {
		listen = net.Listen
	}
	attempts := b.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxPortAttempts
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	port := b.Port
	for i := 0; i < attempts; i++ {
		addr := net.JoinHostPort(b.Host, strconv.Itoa(port))
		ln, err := listen("tcp", addr)
		if err == nil {
			return ln, port, nil
		}
		if !IsAddrInUse(err) {
			return nil, port, fmt.Errorf("failed to bind %s: %w", addr, err)
		}
		logger.Warn("port is in use, trying next port", "port", port)
		port++
	}

	return nil, port, fmt.Errorf("%w after %d attempts starting at %d", ErrNoAvailablePort, attempts, b.Port)
}

// IsAddrInUse reports whether err is an "address already in use" bind failure
func IsAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}
