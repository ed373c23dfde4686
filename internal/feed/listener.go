// Package feed decodes a historical event stream off TCP connections and
// drains it onto a replay harness through a single writer goroutine, so the
// matching engine underneath is never touched from more than one goroutine
// even while many connections are being read concurrently.
package feed

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/common"
	"fenrir/internal/replay"
)

const (
	defaultConnTimeout = time.Second
	eventsBufferSize   = 256
)

// sessionEvent links a decoded event to the connection session that
// produced it, purely for log correlation; the harness itself is
// session-agnostic.
type sessionEvent struct {
	sessionID uuid.UUID
	event     common.HistoricalEvent
}

// Listener accepts TCP connections, decodes fixed-header event records off
// each one concurrently, and feeds every decoded event to a shared harness
// through one single-writer drain loop.
type Listener struct {
	address string
	port    int
	harness *replay.Harness

	pool   *connPool
	events chan sessionEvent
	cancel context.CancelFunc

	sessionsLock sync.Mutex
	sessions     map[string]uuid.UUID

	ready chan struct{}
	addr  net.Addr
}

// New builds a Listener that will drain decoded events into harness.
func New(address string, port int, harness *replay.Harness) *Listener {
	return &Listener{
		address:  address,
		port:     port,
		harness:  harness,
		pool:     newConnPool(defaultNWorkers),
		events:   make(chan sessionEvent, eventsBufferSize),
		sessions: make(map[string]uuid.UUID),
		ready:    make(chan struct{}),
	}
}

// Addr blocks until the listener has bound a socket, then returns it. Used
// by callers (and tests) that start a Listener with port 0 and need the
// OS-assigned port back.
func (l *Listener) Addr() net.Addr {
	<-l.ready
	return l.addr
}

// Shutdown cancels the listener's context, unwinding the accept loop, the
// worker pool, and the drain loop.
func (l *Listener) Shutdown() {
	log.Info().Msg("feed: listener shutting down")
	if l.cancel != nil {
		l.cancel()
	}
}

// Run blocks until ctx is cancelled or a fatal listener error occurs.
func (l *Listener) Run(ctx context.Context) {
	defer l.Shutdown()

	ctx, l.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", l.address, l.port))
	if err != nil {
		log.Error().Err(err).Msg("feed: unable to start listener")
		return
	}
	// Closing the listener on cancellation unblocks a pending Accept.
	go func() {
		<-ctx.Done()
		if err := ln.Close(); err != nil {
			log.Error().Err(err).Msg("feed: unable to close listener")
		}
	}()

	l.addr = ln.Addr()
	close(l.ready)

	t.Go(func() error {
		l.pool.Setup(t, defaultNWorkers, l.handleConnection)
		return nil
	})

	t.Go(func() error {
		return l.drainLoop(t)
	})

	log.Info().Str("address", l.address).Int("port", l.port).Msg("feed: listening")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Msg("feed: error accepting connection")
				continue
			}

			sessionID := uuid.New()
			l.addSession(conn.RemoteAddr().String(), sessionID)
			log.Info().
				Str("address", conn.RemoteAddr().String()).
				Str("sessionId", sessionID.String()).
				Msg("feed: new connection")

			l.pool.AddTask(conn)
		}
	}
}

// drainLoop is the single writer into the harness: every decoded event,
// regardless of which connection produced it, is applied here and here
// alone, so the matching engine underneath never observes concurrent
// callers.
func (l *Listener) drainLoop(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case se := <-l.events:
			log.Debug().
				Str("sessionId", se.sessionID.String()).
				Uint64("eventId", uint64(se.event.EventID)).
				Msg("feed: applying event")
			l.harness.FeedEvents([]common.HistoricalEvent{se.event})
		}
	}
}

// handleConnection reads one fixed-header record off conn, decodes it, and
// hands it to the drain loop. On success the connection is requeued so the
// same worker set can keep serving it for the next record; on error or EOF
// the connection is closed and its session forgotten.
func (l *Listener) handleConnection(t *tomb.Tomb, conn net.Conn) error {
	sessionID, ok := l.sessionFor(conn.RemoteAddr().String())
	if !ok {
		sessionID = uuid.New()
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("sessionId", sessionID.String()).Msg("feed: failed setting deadline")
		l.closeConn(conn)
		return nil
	}

	header := make([]byte, eventHeaderLen)
	if _, err := io.ReadFull(conn, header); err != nil {
		if err != io.EOF {
			log.Error().Err(err).Str("sessionId", sessionID.String()).Msg("feed: error reading connection")
		}
		l.closeConn(conn)
		return nil
	}

	evt, err := decodeEvent(header)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID.String()).Msg("feed: error decoding event")
		l.closeConn(conn)
		return nil
	}

	select {
	case <-t.Dying():
		l.closeConn(conn)
		return nil
	case l.events <- sessionEvent{sessionID: sessionID, event: evt}:
	}

	l.pool.AddTask(conn)
	return nil
}

func (l *Listener) closeConn(conn net.Conn) {
	l.removeSession(conn.RemoteAddr().String())
	if err := conn.Close(); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("feed: error closing connection")
	}
}

func (l *Listener) addSession(address string, id uuid.UUID) {
	l.sessionsLock.Lock()
	defer l.sessionsLock.Unlock()
	l.sessions[address] = id
}

func (l *Listener) sessionFor(address string) (uuid.UUID, bool) {
	l.sessionsLock.Lock()
	defer l.sessionsLock.Unlock()
	id, ok := l.sessions[address]
	return id, ok
}

func (l *Listener) removeSession(address string) {
	l.sessionsLock.Lock()
	defer l.sessionsLock.Unlock()
	delete(l.sessions, address)
}
