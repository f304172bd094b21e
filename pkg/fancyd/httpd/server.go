//go:build linux
// +build linux

// Package httpd wires the arena, buffer, connection pool, and reactor
// packages together into the per-connection state machine and static-
// file responder: the incremental request parser, the URI
// canonicalizer, and the accept -> read -> process -> write_headers ->
// {write_body|finalize} -> {read|pool-return} handler chain.
package httpd

import (
	"log"
	"os"

	"golang.org/x/sys/unix"

	"github.com/yourusername/fancyd/pkg/fancyd/arena"
	"github.com/yourusername/fancyd/pkg/fancyd/buffer"
	"github.com/yourusername/fancyd/pkg/fancyd/connpool"
	"github.com/yourusername/fancyd/pkg/fancyd/reactor"
	"github.com/yourusername/fancyd/pkg/fancyd/socket"
)

// Server owns every process-wide singleton the reactor core needs:
// the connection pool, the reactor itself, the header-buffer pools, and
// the listening socket. Its lifecycle mirrors the source's own
// create-pool -> init-reactor -> loop -> destroy sequence, minus the
// arena (per-request arenas are scoped to a Request, not the process).
type Server struct {
	cfg Config
	log *log.Logger

	listenFd int
	reactor  *reactor.Reactor
	pool     *connpool.Pool
	headerIn *buffer.Pool
	headerOut *buffer.Pool
	arenas   *arena.Pool

	tune socket.Config
}

// New constructs a Server bound to cfg but does not yet open the
// listening socket or start the reactor loop; call Run for that.
func New(cfg Config, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "fancyd: ", log.LstdFlags)
	}

	r, err := reactor.New(cfg.MaxEvents)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:       cfg,
		log:       logger,
		reactor:   r,
		pool:      connpool.New(cfg.MaxConnections),
		headerIn:  buffer.NewPool(cfg.HeaderInSize),
		headerOut: buffer.NewPool(cfg.HeaderOutSize),
		arenas:    arena.NewPool(arena.DefaultBlockSize),
		tune:      socket.DefaultConfig(),
	}, nil
}

// Run opens the listening socket, registers it with the reactor, and
// blocks running reactor ticks until stop is closed.
func (s *Server) Run(stop <-chan struct{}) error {
	fd, err := socket.Listen(socket.ListenConfig{Port: s.cfg.Port, Backlog: 1024})
	if err != nil {
		return err
	}
	s.listenFd = fd
	defer func() {
		s.reactor.UnregisterListener(fd)
		unix.Close(fd)
	}()

	if err := s.reactor.RegisterListener(fd, s.onAcceptable); err != nil {
		return err
	}

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		budget := s.reactor.TimerRecent(nowMs())
		if budget == reactor.Forever {
			budget = 1000 // wake periodically to observe stop
		}
		if err := s.reactor.RunOnce(budget); err != nil {
			return err
		}
	}
}

// Close releases the reactor's epoll fd. Call after Run returns.
func (s *Server) Close() error {
	s.arenas.Close()
	return s.reactor.Close()
}

// Stats reports a snapshot of pool occupancy across the connection pool
// and the arena/header-buffer pools, for the optional metrics exporter.
type Stats struct {
	ConnsInUse int
	ConnsCap   int
	Arenas     arena.PoolStats
	HeaderIn   buffer.PoolStats
	HeaderOut  buffer.PoolStats
}

// Stats returns a point-in-time snapshot. The pools it reads are touched
// by the reactor goroutine on every Get/Put/Free; in the default build
// Stats is only ever called from that same goroutine, so no
// synchronization is needed. Built with -tags prometheus, the metrics
// poller calls this from a second goroutine, and each pool's guard
// (poolsync.Guard) becomes a real mutex to make that access race-free.
func (s *Server) Stats() Stats {
	return Stats{
		ConnsInUse: s.pool.InUse(),
		ConnsCap:   s.pool.Cap(),
		Arenas:     s.arenas.Stats(),
		HeaderIn:   s.headerIn.Stats(),
		HeaderOut:  s.headerOut.Stats(),
	}
}
