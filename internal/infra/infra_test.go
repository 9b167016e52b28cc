package infra

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt-forge/server/internal/config"
)

func inUseErr() error {
	return &net.OpError{Op: "listen", Net: "tcp", Err: os.NewSyscallError("bind", syscall.EADDRINUSE)}
}

type fakeListener struct{ net.Listener }

func TestBindFallsBackWhilePortInUse(t *testing.T) {
	var tried []string
	b := &PortBinder{
		Host:        "",
		Port:        8000,
		MaxAttempts: 10,
		Listen: func(network, addr string) (net.Listener, error) {
			tried = append(tried, addr)
			if len(tried) < 3 {
				return nil, inUseErr()
			}
			return fakeListener{}, nil
		},
	}

	ln, port, err := b.Bind()
	require.NoError(t, err)
	assert.NotNil(t, ln)
	assert.Equal(t, 8002, port)
	assert.Equal(t, []string{":8000", ":8001", ":8002"}, tried)
}

func TestBindGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	b := &PortBinder{
		Port:        9000,
		MaxAttempts: 10,
		Listen: func(network, addr string) (net.Listener, error) {
			calls++
			return nil, inUseErr()
		},
	}

	_, _, err := b.Bind()
	assert.ErrorIs(t, err, ErrNoAvailablePort)
	assert.Equal(t, 10, calls, "no binds beyond the attempt limit")
}

func TestBindOtherErrorsAreFatal(t *testing.T) {
	calls := 0
	permission := &net.OpError{Op: "listen", Net: "tcp", Err: os.NewSyscallError("bind", syscall.EACCES)}
	b := &PortBinder{
		Port: 80,
		Listen: func(network, addr string) (net.Listener, error) {
			calls++
			return nil, permission
		},
	}

	_, _, err := b.Bind()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoAvailablePort)
	assert.ErrorIs(t, err, syscall.EACCES)
	assert.Equal(t, 1, calls)
}

func TestBindDetectsRealPortInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	b := &PortBinder{Host: "127.0.0.1", Port: port, MaxAttempts: 1}
	_, _, err = b.Bind()
	assert.ErrorIs(t, err, ErrNoAvailablePort)
}

func TestServerRunStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	})
	srv := NewServer(handler, config.ServerConfig{ShutdownTimeout: time.Second}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ln) }()

	url := "http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(ln.Addr().(*net.TCPAddr).Port))
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerRunReturnsServeError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ln.Close()

	srv := NewServer(http.NotFoundHandler(), config.ServerConfig{}, nil)
	err = srv.Run(context.Background(), ln)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, http.ErrServerClosed))
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	logger, closeFn, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Debug("hello", "component", "test")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestNewLoggerRejectsBadConfig(t *testing.T) {
	_, _, err := NewLogger(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)

	_, _, err = NewLogger(config.LoggingConfig{Format: "xml"})
	assert.Error(t, err)
}
