package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CALL_SERVER_ADDR,default=localhost:8080"`
	MeetingID     string `env:"CALL_MEETING_ID,default=demo"`
	UserName      string `env:"CALL_USER_NAME,default=probe"`
	LogLevel      string `env:"LOG_LEVEL,required=true"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v", err)
	}
	os.Exit(code)
}

// run handles the websocket client lifecycle: configuration loading,
// joining the room, and printing every event the coordinator sends back.
// Useful to watch a room's admission flow from the outside.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect to the signaling server.
	endpoint := url.URL{Scheme: "ws", Host: config.ServerAddress, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	// 4. Join the room.
	join := map[string]string{
		"typeof":    "join-room",
		"meetingId": config.MeetingID,
		"name":      config.UserName,
	}
	if err := conn.WriteJSON(join); err != nil {
		return exitRuntime, fmt.Errorf("join failed: %w", err)
	}

	log.Info("Connected, waiting for events (Ctrl+C to quit)",
		"server", config.ServerAddress, "meeting", config.MeetingID)

	// Unblock the read loop when the user asks to stop.
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	// 5. Event reception loop.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// Normal exit if the user triggered a shutdown.
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("read error: %w", err)
		}
		printEvent(raw)
	}
}

// printEvent renders one server event with its typeof highlighted.
func printEvent(raw []byte) {
	var decoded struct {
		Typeof string `json:"typeof"`
	}
	_ = json.Unmarshal(raw, &decoded)

	tag := decoded.Typeof
	if tag == "" {
		tag = "unknown"
	}

	header := color.New(color.BgBlack, color.FgGreen).Render(fmt.Sprintf("[%s]", tag))
	fmt.Printf("%s %s %s\n", time.Now().Format(time.TimeOnly), header, string(raw))
}
