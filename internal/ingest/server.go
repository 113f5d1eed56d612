package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/noisewatch/noisewatch-core/internal/infrastructure/config"
)

// writeControlTimeout bounds ping frame writes during the liveness sweep.
const writeControlTimeout = 5 * time.Second

// producerConn is one live producer WebSocket with its liveness flag.
//
// The flag is set true on accept, on any payload, and on pong receipt; the
// sweep clears it immediately before sending a ping. A connection found
// with the flag still false at the next sweep went a full interval without
// traffic or a pong and is forcibly terminated.
type producerConn struct {
	id   string
	conn *websocket.Conn

	mu    sync.Mutex
	alive bool
}

func (pc *producerConn) markAlive() {
	pc.mu.Lock()
	pc.alive = true
	pc.mu.Unlock()
}

// checkAndClear reports the current flag and clears it in one step.
func (pc *producerConn) checkAndClear() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	alive := pc.alive
	pc.alive = false
	return alive
}

// Server is the producer-facing WebSocket ingest endpoint.
//
// Each accepted connection gets a read goroutine feeding raw payloads into
// the shared Pipeline. Malformed payloads are logged and skipped without
// closing the connection; read errors close only the affected connection.
// A periodic sweep terminates connections that stop answering pings.
//
// Thread Safety: all public methods are safe for concurrent use.
type Server struct {
	cfg           config.IngestConfig
	sweepInterval time.Duration
	pipeline      *Pipeline
	logger        Logger

	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener
	port     int

	conns  map[string]*producerConn
	connMu sync.RWMutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates the ingest server.
//
// Parameters:
//   - cfg: Listener and payload settings
//   - sweepInterval: Period of the connection liveness sweep
//   - pipeline: Shared message processing pipeline
//   - logger: Logger instance (nil for no logging)
func NewServer(cfg config.IngestConfig, sweepInterval time.Duration, pipeline *Pipeline, logger Logger) *Server {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Server{
		cfg:           cfg,
		sweepInterval: sweepInterval,
		pipeline:      pipeline,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Producers are headless devices, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[string]*producerConn),
	}
}

// Start binds the listener and begins accepting producer connections.
//
// If the configured port is taken, successive ports are tried up to
// MaxPortAttempts; exhausting them returns ErrNoAvailablePort, which is
// fatal at startup. The actual bound port is available via Port().
func (s *Server) Start(ctx context.Context) error {
	listener, port, err := s.acquireListener()
	if err != nil {
		return err
	}
	s.listener = listener
	s.port = port

	router := chi.NewRouter()
	router.Get(s.cfg.Path, s.handleWS)

	s.server = &http.Server{
		Handler:     router,
		ReadTimeout: 0, // WebSocket connections are long-lived
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ingest server error", "error", err)
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.livenessSweep(runCtx)
	}()

	s.logger.Info("ingest server started",
		"host", s.cfg.Host,
		"port", port,
		"path", s.cfg.Path,
	)
	return nil
}

// acquireListener binds the first free port starting at the configured one.
func (s *Server) acquireListener() (net.Listener, int, error) {
	for attempt := 0; attempt < s.cfg.MaxPortAttempts; attempt++ {
		port := s.cfg.Port + attempt
		addr := fmt.Sprintf("%s:%d", s.cfg.Host, port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			// With a configured port of 0 the kernel picks the port, so
			// report the one actually bound.
			port = listener.Addr().(*net.TCPAddr).Port
			if attempt > 0 {
				s.logger.Warn("configured ingest port taken, using fallback",
					"configured", s.cfg.Port,
					"bound", port,
				)
			}
			return listener, port, nil
		}
		s.logger.Debug("ingest port unavailable", "port", port, "error", err)
	}
	return nil, 0, fmt.Errorf("%w: tried ports %d-%d",
		ErrNoAvailablePort, s.cfg.Port, s.cfg.Port+s.cfg.MaxPortAttempts-1)
}

// Port returns the actual bound port. Valid after Start.
func (s *Server) Port() int {
	return s.port
}

// ConnectionCount returns the number of live producer connections.
func (s *Server) ConnectionCount() int {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return len(s.conns)
}

// handleWS upgrades one producer connection and runs its read loop.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ingest upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	pc := &producerConn{
		id:    uuid.NewString(),
		conn:  conn,
		alive: true,
	}

	conn.SetReadLimit(int64(s.cfg.MaxMessageSize))
	conn.SetPongHandler(func(string) error {
		pc.markAlive()
		return nil
	})

	s.connMu.Lock()
	s.conns[pc.id] = pc
	s.connMu.Unlock()

	s.logger.Info("producer connected",
		"connection_id", pc.id,
		"remote", r.RemoteAddr,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.readLoop(pc)
	}()
}

// readLoop consumes payloads from one producer until the connection dies.
//
// Per-message errors (malformed JSON, missing device ID) are logged and
// skipped; only transport errors end the loop.
func (s *Server) readLoop(pc *producerConn) {
	defer s.dropConn(pc)

	for {
		msgType, data, err := pc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("producer read error", "connection_id", pc.id, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		pc.markAlive()

		if _, err := s.pipeline.Process(data, pc.id); err != nil {
			s.logger.Warn("ingest payload rejected",
				"connection_id", pc.id,
				"error", err,
			)
		}
	}
}

// dropConn unregisters and closes one producer connection. The device
// registry entry it carried traffic for stays intact.
func (s *Server) dropConn(pc *producerConn) {
	s.connMu.Lock()
	_, present := s.conns[pc.id]
	delete(s.conns, pc.id)
	s.connMu.Unlock()

	pc.conn.Close()

	if present {
		s.logger.Info("producer disconnected", "connection_id", pc.id)
	}
}

// livenessSweep periodically probes every live connection.
//
// Connections whose flag is still false from the previous sweep are
// terminated; the rest have the flag cleared and a ping sent, restarting
// the cycle.
func (s *Server) livenessSweep(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepConnections()
		}
	}
}

func (s *Server) sweepConnections() {
	s.connMu.RLock()
	snapshot := make([]*producerConn, 0, len(s.conns))
	for _, pc := range s.conns {
		snapshot = append(snapshot, pc)
	}
	s.connMu.RUnlock()

	for _, pc := range snapshot {
		if !pc.checkAndClear() {
			s.logger.Warn("producer unresponsive, terminating", "connection_id", pc.id)
			// Close unblocks the read loop, which unregisters the entry.
			pc.conn.Close()
			continue
		}
		deadline := time.Now().Add(writeControlTimeout)
		if err := pc.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			s.logger.Warn("producer ping failed, terminating",
				"connection_id", pc.id,
				"error", err,
			)
			pc.conn.Close()
		}
	}
}

// Close shuts the ingest server down: stops the sweep, closes the listener
// and every live connection, and waits for the read loops to drain.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}

	var err error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.server.Shutdown(ctx)
	}

	s.connMu.Lock()
	for _, pc := range s.conns {
		pc.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	s.logger.Info("ingest server stopped")
	return err
}
