// sdrscanctl talks to a running sdrscand over its control WebSocket.
// It can stream the scanner's event feed to stdout, or send a single
// channel command and exit. Might also serve as the starting point for
// an application that drives the scanner remotely.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
)

func main() {
	var host = pflag.StringP("hostname", "h", "localhost", "Hostname of the scanner's control WebSocket.")
	var port = pflag.IntP("port", "p", 8765, "Port of the scanner's control WebSocket.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sdrscanctl [options] <command> [args]

Commands:
  watch                                  Stream scanner events to stdout.
  enable <channelId> <true|false>        Enable or disable a channel.
  disable-until <channelId> <unixSecs>   Disable a channel until the given time.
  mute <channelId> <true|false>          Mute or unmute a channel.
  solo <channelId> <true|false|clear>    Solo a channel, or clear solo.
  hold <channelId> <true|false>          Hold a channel.
  force-active <channelId> <true|false>  Force a channel's squelch open.

Options:
`)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help || pflag.NArg() == 0 {
		pflag.Usage()
		if *help {
			os.Exit(0)
		}
		os.Exit(1)
	}

	url := fmt.Sprintf("ws://%s:%d/control_ws", *host, *port)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sdrscanctl: dial %s: %v\n", url, err)
		os.Exit(1)
	}
	defer conn.Close()

	args := pflag.Args()
	switch args[0] {
	case "watch":
		watch(conn)
	case "enable", "mute", "hold", "force-active":
		sendBoolCommand(conn, args)
	case "solo":
		sendSolo(conn, args)
	case "disable-until":
		sendDisableUntil(conn, args)
	default:
		fmt.Fprintf(os.Stderr, "sdrscanctl: unknown command %q\n", args[0])
		os.Exit(1)
	}
}

// watch prints every event the scanner publishes, one JSON object per
// line, until the connection drops.
func watch(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			fmt.Fprintf(os.Stderr, "sdrscanctl: connection closed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(raw))
	}
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func send(conn *websocket.Conn, env envelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sdrscanctl: %v\n", err)
		os.Exit(1)
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		fmt.Fprintf(os.Stderr, "sdrscanctl: send: %v\n", err)
		os.Exit(1)
	}
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sdrscanctl: expected true or false, got %q\n", s)
		os.Exit(1)
	}
	return v
}

func requireArgs(args []string, n int) {
	if len(args) != n {
		fmt.Fprintf(os.Stderr, "sdrscanctl: %s takes %d argument(s)\n", args[0], n-1)
		os.Exit(1)
	}
}

func sendBoolCommand(conn *websocket.Conn, args []string) {
	requireArgs(args, 3)
	id, val := args[1], parseBool(args[2])

	var env envelope
	switch args[0] {
	case "enable":
		env = envelope{Type: "ChannelEnable", Data: map[string]any{"id": id, "enabled": val}}
	case "mute":
		env = envelope{Type: "ChannelMute", Data: map[string]any{"id": id, "mute": val}}
	case "hold":
		env = envelope{Type: "ChannelHold", Data: map[string]any{"id": id, "hold": val}}
	case "force-active":
		env = envelope{Type: "ChannelForceActive", Data: map[string]any{"id": id, "forceActive": val}}
	}
	send(conn, env)
}

func sendSolo(conn *websocket.Conn, args []string) {
	requireArgs(args, 3)
	id := args[1]

	var solo any
	if args[2] == "clear" {
		solo = nil
	} else {
		solo = parseBool(args[2])
	}
	send(conn, envelope{Type: "ChannelSolo", Data: map[string]any{"id": id, "solo": solo}})
}

func sendDisableUntil(conn *websocket.Conn, args []string) {
	requireArgs(args, 3)
	id := args[1]
	until, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sdrscanctl: expected unix seconds, got %q\n", args[2])
		os.Exit(1)
	}
	send(conn, envelope{Type: "ChannelDisableUntil", Data: map[string]any{"id": id, "disableUntil": until}})
}
