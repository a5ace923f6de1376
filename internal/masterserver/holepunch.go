package masterserver

import (
	"context"
	"net"
)

// holepunchLoop implements the NAT hole-punch echo endpoint: any datagram
// received triggers a reply containing the sender's observed public
// address, a 4-byte IPv4 address followed by a 2-byte little-endian port.
// IPv6 senders are dropped; the protocol has no room for a wider address.
func (s *Server) holepunchLoop(ctx context.Context) {
	defer s.wg.Done()

	buf := make([]byte, 16)
	for {
		_, addr, err := s.holepunch.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				s.Logger.Warnf("masterserver: holepunch read failed: %s", err)
			}
			return
		}

		reply, ok := encodeObservedAddr(addr)
		if !ok {
			continue
		}

		if _, err := s.holepunch.WriteToUDP(reply, addr); err != nil {
			s.Logger.Warnf("masterserver: holepunch reply to %s failed: %s", addr, err)
		}
	}
}

func encodeObservedAddr(addr *net.UDPAddr) ([]byte, bool) {
	ip4 := addr.IP.To4()
	if ip4 == nil {
		return nil, false
	}

	out := make([]byte, 6)
	copy(out[:4], ip4)
	out[4] = byte(addr.Port)
	out[5] = byte(addr.Port >> 8)
	return out, true
}
