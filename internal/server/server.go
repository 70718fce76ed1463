// Package server exposes the game engine over websockets: one JSON message
// per engine operation, session handling, and the inactivity sweeper that
// keeps stalled tables moving.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/DecentPokerLabs/DecentPoker/internal/game"
	"github.com/DecentPokerLabs/DecentPoker/internal/ledger"
	"github.com/DecentPokerLabs/DecentPoker/internal/lobby"
	"github.com/DecentPokerLabs/DecentPoker/internal/shuffle"
)

// Server is the websocket front end over the engine and lobby.
type Server struct {
	addr          string
	engine        *game.Engine
	lobby         *lobby.Registry
	clock         quartz.Clock
	sweepInterval time.Duration
	upgrader      websocket.Upgrader
	logger        *log.Logger

	mu          sync.Mutex
	connections map[*Connection]bool
	unregister  chan *Connection
}

// New creates a server for the given engine and lobby.
func New(addr string, engine *game.Engine, registry *lobby.Registry, clock quartz.Clock, sweepInterval time.Duration, logger *log.Logger) *Server {
	return &Server{
		addr:          addr,
		engine:        engine,
		lobby:         registry,
		clock:         clock,
		sweepInterval: sweepInterval,
		upgrader: websocket.Upgrader{
			// Browsers are not the threat model here; commitments are.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		connections: make(map[*Connection]bool),
		unregister:  make(chan *Connection, 16),
	}
}

// Run serves websocket clients and drives the inactivity sweeper until ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	httpServer := &http.Server{Addr: s.addr, Handler: mux}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("listening", "addr", s.addr)
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		s.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		return s.sweep(ctx)
	})
	group.Go(func() error {
		s.reap(ctx)
		return nil
	})
	return group.Wait()
}

// sweep periodically forces progress on games whose turn holder went quiet.
func (s *Server) sweep(ctx context.Context) error {
	ticker := s.clock.TickerFunc(ctx, s.sweepInterval, func() error {
		for _, gameID := range s.engine.Stale() {
			if err := s.engine.AutoFold(gameID); err != nil {
				s.logger.Debug("sweep skipped game", "game", gameID, "reason", err)
			} else {
				s.logger.Info("swept stalled game", "game", gameID)
			}
		}
		return nil
	}, "sweeper")
	err := ticker.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// reap drops closed connections from the registry.
func (s *Server) reap(ctx context.Context) {
	for {
		select {
		case conn := <-s.unregister:
			s.mu.Lock()
			delete(s.connections, conn)
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client disconnected", "total", total)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	conn := NewConnection(ws, s, s.logger)
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("client connected", "total", total)

	conn.Start()

	welcome, err := NewMessage(MessageTypeWelcome, WelcomeData{SessionID: conn.sessionID})
	if err == nil {
		_ = conn.SendMessage(welcome)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// dispatch routes one client message to the matching engine or lobby call
// and builds the reply.
func (s *Server) dispatch(c *Connection, msg *Message) (*Message, error) {
	switch msg.Type {
	case MessageTypeHello:
		var data HelloData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		if data.PlayerName != "" {
			c.SetIdentity(data.PlayerName)
		}
		return NewMessage(MessageTypeWelcome, WelcomeData{SessionID: c.Identity()})

	case MessageTypeCreateGame:
		var data CreateGameData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		invite, err := parseCommitment(data.InviteCommitment)
		if err != nil {
			return nil, err
		}
		gameID, err := s.engine.CreateGame(data.MaxPlayers, data.BigBlind, invite)
		if err != nil {
			return nil, err
		}
		return NewMessage(MessageTypeOK, OKData{GameID: gameID})

	case MessageTypeJoinGame:
		var data JoinGameData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		commitment, err := parseCommitment(data.HoleCommitment)
		if err != nil {
			return nil, err
		}
		invite, err := parseSecret(data.InviteSecret)
		if err != nil {
			return nil, err
		}
		if err := s.engine.JoinGame(data.GameID, data.Seat, c.Identity(), commitment, invite); err != nil {
			return nil, err
		}
		return NewMessage(MessageTypeOK, OKData{GameID: data.GameID})

	case MessageTypeDealHand:
		var data DealHandData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		if err := s.engine.DealHand(data.GameID); err != nil {
			return nil, err
		}
		return s.stateReply(data.GameID)

	case MessageTypeAction:
		var data ActionData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		if err := s.engine.PlayerAction(data.GameID, c.Identity(), game.ActionKind(data.Kind), data.Amount); err != nil {
			return nil, err
		}
		return s.stateReply(data.GameID)

	case MessageTypeReveal:
		var data RevealData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		secret, err := parseSecret(data.Secret)
		if err != nil {
			return nil, err
		}
		commitment, err := parseCommitment(data.NextCommitment)
		if err != nil {
			return nil, err
		}
		if err := s.engine.RevealHand(data.GameID, c.Identity(), secret, commitment); err != nil {
			return nil, err
		}
		return s.stateReply(data.GameID)

	case MessageTypeAutoFold:
		var data GameRefData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		if err := s.engine.AutoFold(data.GameID); err != nil {
			return nil, err
		}
		return s.stateReply(data.GameID)

	case MessageTypeCloseHand:
		var data GameRefData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		if err := s.engine.CloseHand(data.GameID); err != nil {
			return nil, err
		}
		return s.stateReply(data.GameID)

	case MessageTypeLeaveGame:
		var data GameRefData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		if err := s.engine.LeaveGame(data.GameID, c.Identity()); err != nil {
			return nil, err
		}
		return NewMessage(MessageTypeOK, OKData{GameID: data.GameID})

	case MessageTypeGameState:
		var data GameRefData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		return s.stateReply(data.GameID)

	case MessageTypeCreateSitNGo:
		var data CreateSitNGoData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		eventID, err := s.lobby.Create(data.Seats, data.BuyIn)
		if err != nil {
			return nil, err
		}
		return NewMessage(MessageTypeOK, OKData{EventID: eventID})

	case MessageTypeRegisterSeat:
		var data RegisterSeatData
		if err := decode(msg, &data); err != nil {
			return nil, err
		}
		if err := s.lobby.RegisterSeat(data.EventID, c.Identity()); err != nil {
			return nil, err
		}
		return NewMessage(MessageTypeOK, OKData{EventID: data.EventID})

	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (s *Server) stateReply(gameID uint64) (*Message, error) {
	view, err := s.engine.Snapshot(gameID)
	if err != nil {
		return nil, err
	}
	return NewMessage(MessageTypeState, StateData{Game: view})
}

// errorCode maps engine errors onto stable wire codes clients can switch on.
func errorCode(err error) string {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	var pe *protocolError
	if errors.As(err, &pe) {
		return "invalid_message"
	}
	return "internal"
}

var errorCodes = []struct {
	err  error
	code string
}{
	{game.ErrGameNotFound, "game_not_found"},
	{game.ErrSeatTaken, "seat_taken"},
	{game.ErrAlreadyInGame, "already_in_game"},
	{game.ErrNotEnoughPlayers, "not_enough_players"},
	{game.ErrNotYourTurn, "not_your_turn"},
	{game.ErrInvalidAction, "invalid_action"},
	{game.ErrRaiseTooHigh, "raise_too_high"},
	{game.ErrNotInShowdown, "not_in_showdown"},
	{game.ErrStateViolation, "state_violation"},
	{game.ErrInviteInvalid, "invite_invalid"},
	{game.ErrInvalidCommitment, "invalid_commitment"},
	{shuffle.ErrEntropyNotReady, "entropy_not_ready"},
	{shuffle.ErrAlreadyRevealed, "already_revealed"},
	{shuffle.ErrSecretInvalid, "secret_invalid"},
	{ledger.ErrInsufficientFunds, "insufficient_funds"},
	{lobby.ErrEventNotFound, "event_not_found"},
	{lobby.ErrEventFull, "event_full"},
	{lobby.ErrAlreadyRegistered, "already_registered"},
	{lobby.ErrNotRunning, "event_not_running"},
}
