// Package controlws exposes the supervisor's command/event message set
// over a single WebSocket endpoint: every connected client gets its own
// event subscription, commands flow back over the same socket, and dead
// clients are dropped without stalling anyone else.
package controlws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/kb9vy/sdrscan/internal/events"
	"github.com/kb9vy/sdrscan/internal/logging"
)

// subscriberDepth is how many buffered events a slow WebSocket client
// may lag behind before events.Bus starts dropping for it.
const subscriberDepth = 256

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Server is the control WebSocket bridge: one endpoint, any number of
// connected UIs/remote-control clients, each independently subscribed
// to the supervisor's event bus and able to push commands back.
type Server struct {
	bus      *events.Bus
	commands chan<- events.Command
	log      *logging.Logger
	path     string

	httpSrv *http.Server
}

// New builds (but does not start) a control WebSocket server bound to
// host:port, forwarding commands decoded from client messages onto
// commands and broadcasting every event published on bus to every
// connected client.
func New(bus *events.Bus, commands chan<- events.Command, host string, port int, log *logging.Logger) *Server {
	s := &Server{bus: bus, commands: commands, log: log, path: "/control_ws"}

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleConn)

	s.httpSrv = &http.Server{Addr: host + ":" + strconv.Itoa(port), Handler: mux}
	return s
}

// ListenAndServe blocks serving the control endpoint until the server
// is shut down.
func (s *Server) ListenAndServe() error {
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("control websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sub, subID := s.bus.Subscribe(subscriberDepth)
	defer s.bus.Unsubscribe(subID)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for ev := range sub {
			msg, err := encodeEvent(ev)
			if err != nil {
				s.log.Warn("encode event", "err", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		cmd, err := decodeCommand(raw)
		if err != nil {
			s.log.Warn("control websocket protocol error", "err", err)
			continue // unknown message: logged and ignored
		}
		s.commands <- cmd
	}

	_ = conn.Close()
	<-writeDone
}

// envelope is the `{type, data}` wire shape every message uses in both
// directions.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}
