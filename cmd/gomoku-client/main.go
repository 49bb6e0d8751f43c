// Command gomoku-client plays one game from the terminal: create a room or join one by code,
// then type "row col" to place a stone.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/channel"
	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/pkg"
	"github.com/rocketscienceinc/gomoku-backend/internal/presence"
	"github.com/rocketscienceinc/gomoku-backend/internal/pubsub"
	"github.com/rocketscienceinc/gomoku-backend/internal/session"
	"github.com/rocketscienceinc/gomoku-backend/transport/rest"
)

type options struct {
	configPath string
	host       string
	join       string
	logLevel   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config.yml with ports and session timeouts")
	flag.StringVar(&opts.host, "host", "localhost", "server host")
	flag.StringVar(&opts.join, "join", "", "room code to join; empty creates a room")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	if path != "" {
		return config.MustLoad(path)
	}

	return &config.Config{
		HTTPPort:   "9090",
		SocketPort: "9091",
		Session:    config.Session{PublishTimeout: 5 * time.Second},
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func run(ctx context.Context, opts options) error {
	conf := loadConfig(opts.configPath)
	logger := newLogger(opts.logLevel)

	api := rest.NewClient(fmt.Sprintf("http://%s:%s", opts.host, conf.HTTPPort))
	selfID := pkg.GenerateParticipantID()

	room, role, err := enterRoom(ctx, api, opts.join, selfID)
	if err != nil {
		return err
	}

	if role == entity.PlayerHost {
		fmt.Printf("room code: %s (share it with your opponent)\n", room.Code)
	}

	bus, err := pubsub.DialWebSocket(ctx, fmt.Sprintf("ws://%s:%s/ws", opts.host, conf.SocketPort), nil)
	if err != nil {
		return err
	}

	self := entity.Participant{ID: selfID, Role: role, RoomID: room.ID}
	screen := newScreen(os.Stdout, role)

	sess, err := session.New(session.Config{
		Room:           room,
		Self:           self,
		Moves:          channel.New(logger, bus, self),
		Presence:       presence.NewTracker(logger, bus, api, room.ID),
		Lobby:          channel.NewLobby(logger, bus),
		Directory:      api,
		Conn:           bus,
		Logger:         logger,
		PublishTimeout: conf.Session.PublishTimeout,
		TurnTimeout:    conf.Session.TurnTimeout,
		OnState:        screen.render,
		OnFinished:     screen.finished,
		OnNotice:       screen.notice,
	})
	if err != nil {
		_ = bus.Close()
		return fmt.Errorf("failed to open session: %w", err)
	}

	if err = sess.Start(ctx); err != nil {
		_ = bus.Close()
		return fmt.Errorf("failed to start session: %w", err)
	}

	defer func() {
		leaveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := sess.Leave(leaveCtx); err != nil {
			logger.Warn("failed to leave cleanly", "error", err)
		}
	}()

	input := readCommands(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-bus.Done():
			return errors.New("connection to the relay was lost")
		case line, ok := <-input:
			if !ok {
				return nil
			}
			if quit := handleCommand(ctx, sess, screen, line); quit {
				return nil
			}
		}
	}
}

func enterRoom(ctx context.Context, api *rest.Client, code, selfID string) (*entity.Room, string, error) {
	if code == "" {
		room, err := api.CreateRoom(ctx, selfID)
		if err != nil {
			return nil, "", err
		}
		return room, entity.PlayerHost, nil
	}

	room, err := api.JoinRoom(ctx, code, selfID)
	if err != nil {
		return nil, "", err
	}
	return room, entity.PlayerGuest, nil
}

func readCommands(file *os.File) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	return lines
}

func handleCommand(ctx context.Context, sess *session.Session, screen *screen, line string) bool {
	switch line {
	case "":
		return false
	case "q", "quit":
		return true
	case "r", "resync":
		if err := sess.Resync(ctx); err != nil {
			screen.message("resync: %v", err)
		}
		return false
	}

	var row, col int
	if _, err := fmt.Sscanf(line, "%d %d", &row, &col); err != nil {
		screen.message("type \"row col\", \"resync\" or \"quit\"")
		return false
	}

	err := sess.MakeMove(ctx, row, col)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrSendFailed):
		screen.message("move was not delivered and has been undone, try again")
	default:
		screen.message("%v", err)
	}

	return false
}
