package instance

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/codelaunch/codelaunch/internal/config"
)

// ErrAlreadyRunning means another live primary holds the instance socket.
var ErrAlreadyRunning = errors.New("instance: already running")

// Coordinator enforces the single-instance contract. The first process to
// bind the socket becomes the primary and serves show requests; later
// processes get ErrAlreadyRunning from Acquire and should signal the primary
// instead.
type Coordinator struct {
	socketPath string
	pidPath    string
	logger     zerolog.Logger

	mu          sync.Mutex
	listener    net.Listener
	showHandler func()

	closing atomic.Bool
	wg      sync.WaitGroup
}

func NewCoordinator(cfg config.InstanceConfig, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		socketPath: cfg.Socket,
		pidPath:    cfg.PidFile,
		logger:     logger.With().Str("component", "instance").Logger(),
	}
}

// SetShowHandler registers the callback invoked when a secondary sends show.
// Requests arriving before a handler is set are acknowledged and dropped.
func (c *Coordinator) SetShowHandler(fn func()) {
	c.mu.Lock()
	c.showHandler = fn
	c.mu.Unlock()
}

// Acquire attempts to become the primary instance. A leftover socket from a
// crashed process is probed first: if nothing answers a ping, it is removed
// and the bind retried.
func (c *Coordinator) Acquire() error {
	if c.socketPath == "" {
		return errors.New("instance: socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(c.socketPath), 0o700); err != nil {
		return fmt.Errorf("instance: create socket dir: %w", err)
	}
	if err := c.removeStaleSocket(); err != nil {
		return err
	}

	listener, err := net.Listen("unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("instance: listen on %s: %w", c.socketPath, err)
	}
	if err := os.Chmod(c.socketPath, 0o700); err != nil {
		_ = listener.Close()
		return fmt.Errorf("instance: chmod socket: %w", err)
	}
	if err := c.writePidFile(); err != nil {
		_ = listener.Close()
		return err
	}

	c.mu.Lock()
	c.listener = listener
	c.mu.Unlock()

	c.wg.Add(1)
	go c.acceptLoop(listener)

	c.logger.Info().Str("socket", c.socketPath).Msg("primary instance acquired")
	return nil
}

// Release closes the socket and removes the endpoint files. Safe to call
// multiple times.
func (c *Coordinator) Release() {
	if c.closing.Swap(true) {
		return
	}
	c.mu.Lock()
	listener := c.listener
	c.listener = nil
	c.mu.Unlock()

	if listener != nil {
		_ = listener.Close()
	}
	c.wg.Wait()

	_ = os.Remove(c.socketPath)
	if c.pidPath != "" {
		_ = os.Remove(c.pidPath)
	}
	c.logger.Debug().Msg("instance endpoint released")
}

func (c *Coordinator) acceptLoop(listener net.Listener) {
	defer c.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if c.closing.Load() {
				return
			}
			c.logger.Warn().Err(err).Msg("accept failed")
			continue
		}
		c.wg.Add(1)
		go c.handleConn(conn)
	}
}

// handleConn serves exactly one request. Malformed frames are dropped without
// disturbing the primary.
func (c *Coordinator) handleConn(conn net.Conn) {
	defer c.wg.Done()
	defer conn.Close()

	env, err := readEnvelope(conn)
	if err != nil {
		c.logger.Debug().Err(err).Msg("dropping malformed instance request")
		return
	}
	if env.Kind != KindRequest {
		_ = writeEnvelope(conn, Envelope{Kind: KindResponse, Op: env.Op, Error: "expected request"})
		return
	}

	switch env.Op {
	case OpPing:
		_ = writeEnvelope(conn, Envelope{Kind: KindResponse, Op: OpPing, OK: true})
	case OpShow:
		c.mu.Lock()
		handler := c.showHandler
		c.mu.Unlock()
		if handler != nil {
			handler()
		}
		c.logger.Info().Msg("show requested by secondary instance")
		_ = writeEnvelope(conn, Envelope{Kind: KindResponse, Op: OpShow, OK: true})
	default:
		_ = writeEnvelope(conn, Envelope{Kind: KindResponse, Op: env.Op, Error: "unknown op"})
	}
}

// removeStaleSocket probes an existing socket file. A live primary answers
// the ping and wins; a dead socket is cleaned up so the bind can proceed.
func (c *Coordinator) removeStaleSocket() error {
	if _, err := os.Stat(c.socketPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("instance: stat socket: %w", err)
	}
	if err := Ping(c.socketPath); err == nil {
		return ErrAlreadyRunning
	}
	c.logger.Warn().Str("socket", c.socketPath).Msg("removing stale instance socket")
	if err := os.Remove(c.socketPath); err != nil {
		return fmt.Errorf("instance: remove stale socket: %w", err)
	}
	return nil
}

func (c *Coordinator) writePidFile() error {
	if c.pidPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.pidPath), 0o700); err != nil {
		return fmt.Errorf("instance: create pid dir: %w", err)
	}
	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(c.pidPath, []byte(pid), 0o600); err != nil {
		return fmt.Errorf("instance: write pid file: %w", err)
	}
	return nil
}
