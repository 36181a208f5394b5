package mixer

import (
	"encoding/binary"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/viert/lame"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/logging"
)

// icecastReconnectDelay is the fixed wait before re-dialing a lost
// Icecast connection.
const icecastReconnectDelay = 30 * time.Second

// icecastSink MP3-encodes the mixed stream with github.com/viert/lame
// and PUTs it to an Icecast mount over HTTP Basic auth, reconnecting
// with a fixed backoff on any transport error.
type icecastSink struct {
	out       config.Output
	audioRate float64
	log       *logging.Logger

	mu      sync.Mutex
	enc     *lame.LameWriter
	pw      *io.PipeWriter
	connErr chan error
	closed  bool
}

func newIcecastSink(out config.Output, audioRate float64, log *logging.Logger) *icecastSink {
	s := &icecastSink{out: out, audioRate: audioRate, log: log}
	s.connect(audioRate)
	return s
}

func (s *icecastSink) connect(audioRate float64) {
	pr, pw := io.Pipe()
	enc := lame.NewWriter(pw)
	enc.Encoder.SetInSamplerate(int(audioRate))
	enc.Encoder.SetNumChannels(1)
	enc.Encoder.SetBitrate(s.out.BitrateKbps)
	enc.Encoder.InitParams()

	url := strings.TrimSuffix(s.out.IcecastURL, "/") + "/" + strings.TrimPrefix(s.out.IcecastMount, "/")
	req, err := http.NewRequest(http.MethodPut, url, pr)
	if err != nil {
		s.log.Error("icecast request build failed", "err", err)
		return
	}
	req.SetBasicAuth(s.out.IcecastUser, s.out.IcecastPassword)
	req.Header.Set("Content-Type", "audio/mpeg")
	req.ContentLength = -1

	s.enc = enc
	s.pw = pw
	s.connErr = make(chan error, 1)

	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
		}
		s.connErr <- err
	}()
}

func (s *icecastSink) Write(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.enc == nil {
		return
	}

	select {
	case err := <-s.connErr:
		s.log.Warn("icecast connection dropped, retrying", "err", err)
		_ = s.pw.Close()
		s.enc = nil
		go s.reconnectAfterDelay()
		return
	default:
	}

	raw := make([]byte, 2*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(v))
	}
	if _, err := s.enc.Write(raw); err != nil {
		s.log.Warn("icecast encode/write failed, retrying", "err", err)
		_ = s.pw.Close()
		s.enc = nil
		go s.reconnectAfterDelay()
	}
}

func (s *icecastSink) reconnectAfterDelay() {
	time.Sleep(icecastReconnectDelay)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.connect(s.audioRate)
}

func (s *icecastSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.enc != nil {
		_ = s.enc.Close()
		_ = s.pw.Close()
	}
	return nil
}
