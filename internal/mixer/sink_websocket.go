package mixer

import (
	"context"
	"encoding/binary"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/logging"
)

// wsShutdownTimeout bounds how long Close waits for the listener to
// drain.
const wsShutdownTimeout = time.Second

// wsUpgrader accepts any origin; the control surface already gates
// access at the supervisor's control websocket, not here.
var wsUpgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// websocketSink serves the mixed audio stream as binary frames to any
// number of connected browser clients, framed at audioRate/4 samples
// each (four frames per second). Delivery is best-effort; dropped
// clients are silently discarded.
type websocketSink struct {
	log            *logging.Logger
	samplesPerFrame int

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	buf     []int16

	srv *http.Server
}

func newWebsocketSink(out config.Output, audioRate float64, log *logging.Logger) *websocketSink {
	s := &websocketSink{
		log:             log,
		samplesPerFrame: int(audioRate / 4),
		clients:         make(map[*websocket.Conn]chan []byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(out.WebSocketPath, s.handleConn)
	addr := out.Host
	if out.Port != 0 {
		addr = out.Host + ":" + strconv.Itoa(out.Port)
	}
	s.srv = &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("websocket sink server exited", "err", err)
		}
	}()

	return s
}

func (s *websocketSink) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	ch := make(chan []byte, 64)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for frame := range ch {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}
	}
}

func (s *websocketSink) Write(samples []int16) {
	s.mu.Lock()
	s.buf = append(s.buf, samples...)
	var frames [][]byte
	for len(s.buf) >= s.samplesPerFrame {
		chunk := s.buf[:s.samplesPerFrame]
		raw := make([]byte, 2*len(chunk))
		for i, v := range chunk {
			binary.LittleEndian.PutUint16(raw[i*2:], uint16(v))
		}
		frames = append(frames, raw)
		s.buf = s.buf[s.samplesPerFrame:]
	}
	clients := make([]chan []byte, 0, len(s.clients))
	for _, ch := range s.clients {
		clients = append(clients, ch)
	}
	s.mu.Unlock()

	for _, frame := range frames {
		for _, ch := range clients {
			select {
			case ch <- frame:
			default: // slow client; drop this frame rather than block the mixer
			}
		}
	}
}

func (s *websocketSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), wsShutdownTimeout)
	defer cancel()
	s.mu.Lock()
	for conn, ch := range s.clients {
		close(ch)
		_ = conn.Close()
	}
	s.mu.Unlock()
	return s.srv.Shutdown(ctx)
}
