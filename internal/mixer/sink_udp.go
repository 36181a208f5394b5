package mixer

import (
	"encoding/binary"
	"net"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/logging"
)

// udpSamplesPerPacket is the packetization unit: 100 int16 samples
// (200 bytes) per datagram, no framing header.
const udpSamplesPerPacket = 100

// udpSink streams raw little-endian int16 samples over UDP, batched at
// udpSamplesPerPacket per datagram. UDP has no connection to lose, so
// "reconnect" just redials on the next packet after a send failure.
type udpSink struct {
	out  config.Output
	log  *logging.Logger
	conn *net.UDPConn
	buf  []int16
}

func newUDPSink(out config.Output, log *logging.Logger) *udpSink {
	s := &udpSink{out: out, log: log}
	s.dial()
	return s
}

func (s *udpSink) dial() {
	addr := &net.UDPAddr{IP: net.ParseIP(s.out.Host), Port: s.out.Port}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		s.log.Warn("udp sink dial failed", "err", err)
		s.conn = nil
		return
	}
	s.conn = conn
}

func (s *udpSink) Write(samples []int16) {
	s.buf = append(s.buf, samples...)
	for len(s.buf) >= udpSamplesPerPacket {
		s.sendPacket(s.buf[:udpSamplesPerPacket])
		s.buf = s.buf[udpSamplesPerPacket:]
	}
}

func (s *udpSink) sendPacket(chunk []int16) {
	if s.conn == nil {
		s.dial()
		if s.conn == nil {
			return
		}
	}

	packet := make([]byte, 2*len(chunk))
	for i, v := range chunk {
		binary.LittleEndian.PutUint16(packet[i*2:], uint16(v))
	}

	if _, err := s.conn.Write(packet); err != nil {
		s.log.Warn("udp sink write failed, reconnecting", "err", err)
		_ = s.conn.Close()
		s.conn = nil // reconnect happens lazily on the next Write
	}
}

func (s *udpSink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
