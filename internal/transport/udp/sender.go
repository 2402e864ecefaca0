// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	applog "spectrum/internal/log"
)

// MaxPacketSize is the largest UDP payload over IPv4.
const MaxPacketSize = 65507

var (
	ErrSenderClosed   = errors.New("UDP sender is closed")
	ErrPacketTooLarge = errors.New("packet exceeds UDP payload limit")
)

// SenderStats counts datagrams since the sender was created.
type SenderStats struct {
	Packets uint64
	Bytes   uint64
	Errors  uint64
}

// UDPSender writes band packets to one connected UDP peer.
type UDPSender struct {
	conn   *net.UDPConn
	target string

	mu     sync.Mutex // Serializes writes against Close.
	closed bool

	packets atomic.Uint64
	bytes   atomic.Uint64
	errors  atomic.Uint64
}

// NewUDPSender resolves and connects to targetAddress ("host:port").
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	applog.Infof("UDPSender: Sending to %s from %s", udpAddr, conn.LocalAddr())
	return &UDPSender{conn: conn, target: udpAddr.String()}, nil
}

// Send writes data as one datagram. Write failures are counted and returned
// but never retried; the next packet supersedes this one anyway.
func (s *UDPSender) Send(data []byte) error {
	if len(data) > MaxPacketSize {
		s.errors.Add(1)
		return fmt.Errorf("%w: %d bytes", ErrPacketTooLarge, len(data))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSenderClosed
	}
	n, err := s.conn.Write(data)
	s.mu.Unlock()

	if err != nil {
		s.errors.Add(1)
		applog.Warnf("UDPSender: Error sending packet: %v", err)
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	s.packets.Add(1)
	s.bytes.Add(uint64(n))
	return nil
}

func (s *UDPSender) Stats() SenderStats {
	return SenderStats{
		Packets: s.packets.Load(),
		Bytes:   s.bytes.Load(),
		Errors:  s.errors.Load(),
	}
}

// Close closes the connection. Later calls are no-ops.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	st := s.Stats()
	applog.Infof("UDPSender: Closing connection to %s (%d packets, %d bytes, %d errors)", s.target, st.Packets, st.Bytes, st.Errors)
	if err := s.conn.Close(); err != nil {
		applog.Errorf("UDPSender: Error closing connection: %v", err)
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}

var _ interface{ Close() error } = (*UDPSender)(nil)
