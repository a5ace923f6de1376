// Package masterserver owns the TCP session listener and the UDP
// hole-punch echo endpoint, wiring them to a shared handler.Dispatcher the
// way the teacher's frontend/controller pair wires a Backend to an accept
// loop.
package masterserver

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pellius-net/masterd/internal/codec"
	"github.com/pellius-net/masterd/internal/conn"
	"github.com/pellius-net/masterd/internal/dump"
	"github.com/pellius-net/masterd/internal/handler"
	"github.com/pellius-net/masterd/internal/registry"
)

// Server owns the TCP listener, the UDP hole-punch socket, and the
// connection accept loop. One Server per process; Start blocks until ctx
// is canceled, then waits for in-flight connections to close.
type Server struct {
	Address       string
	HolepunchAddr string

	Dispatcher *handler.Dispatcher
	Registry   *registry.Registry
	Dumper     *dump.Dumper
	Logger     *logrus.Logger

	listener  net.Listener
	holepunch *net.UDPConn
	wg        sync.WaitGroup
}

// Start opens the TCP and UDP sockets and spins off their accept loops in
// their own goroutines. It does not return once they are listening: it
// blocks the caller until ctx is canceled and both loops have exited.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Address)
	if err != nil {
		return fmt.Errorf("masterserver: listening on %s: %w", s.Address, err)
	}
	s.listener = listener

	udpAddr, err := net.ResolveUDPAddr("udp", s.HolepunchAddr)
	if err != nil {
		return fmt.Errorf("masterserver: resolving holepunch address %s: %w", s.HolepunchAddr, err)
	}
	holepunch, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("masterserver: listening on %s: %w", s.HolepunchAddr, err)
	}
	s.holepunch = holepunch

	s.wg.Add(2)
	go s.acceptLoop(ctx)
	go s.holepunchLoop(ctx)

	s.Logger.Infof("masterserver: listening on %s (tcp) and %s (udp holepunch)", s.Address, s.HolepunchAddr)

	<-ctx.Done()
	s.Stop()
	s.wg.Wait()
	return nil
}

// Stop closes both sockets, unblocking their accept loops. Safe to call
// more than once.
func (s *Server) Stop() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.holepunch != nil {
		_ = s.holepunch.Close()
	}
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	clientWg := &sync.WaitGroup{}
	for {
		sock, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				s.Logger.Warnf("masterserver: accept failed: %s", err)
			}
			break
		}

		clientWg.Add(1)
		go s.handleConnection(ctx, sock, clientWg)
	}

	s.Logger.Info("masterserver: tcp listener shutting down, waiting for connections to close")
	clientWg.Wait()
}

func (s *Server) handleConnection(ctx context.Context, sock net.Conn, wg *sync.WaitGroup) {
	defer wg.Done()

	c := conn.New(sock, s.Dumper)
	s.Logger.Infof("masterserver: accepted connection %s from %s", c.UUID(), c.RemoteAddr())

	defer s.closeConnection(c)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := codec.ReadFrame(c)
		if err == io.EOF {
			return
		}
		if err != nil {
			s.Logger.Warnf("masterserver: bad frame from %s: %s", c.UUID(), err)
			return
		}

		c.NextInboundSequence()
		if s.Dumper != nil {
			body := make([]byte, len(frame.Body)+1)
			body[0] = frame.PacketID
			copy(body[1:], frame.Body)
			s.Dumper.Send(c.UUID(), dump.Inbound, c.InboundReal(), frame.PacketID, body)
		}

		if err := s.Dispatcher.Dispatch(ctx, c, frame); err != nil {
			s.Logger.Warnf("masterserver: handling packet %#x from %s: %s", frame.PacketID, c.UUID(), err)
			return
		}
	}
}

// closeConnection tears down a connection that's going away, whether it
// sent a clean disconnect or simply dropped: it migrates host or closes
// the session's room with the same broadcasts an explicit LeaveRoomRequest
// produces (without its room-list update), clears
// it from its channel lobby, unregisters it, and closes the socket.
func (s *Server) closeConnection(c *conn.Conn) {
	if sess := c.Session(); sess != nil {
		s.Dispatcher.Disconnect(c)
		s.Registry.Remove(c)
	}
	if err := c.Close(); err != nil {
		s.Logger.Warnf("masterserver: closing connection %s: %s", c.UUID(), err)
	}
	s.Logger.Infof("masterserver: disconnected %s", c.UUID())
}
