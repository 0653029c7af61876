package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/benbeisheim/clickchess-backend/internal/model"
	"github.com/benbeisheim/clickchess-backend/internal/service"
	"github.com/benbeisheim/clickchess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// lockedConn serializes writes; the game broadcasts from other goroutines
// while this handler may be replying on the same connection.
type lockedConn struct {
	conn model.Conn
	mu   sync.Mutex
}

func (l *lockedConn) WriteJSON(v interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteJSON(v)
}

func (l *lockedConn) WriteMessage(messageType int, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteMessage(messageType, data)
}

func (l *lockedConn) Close() error {
	return l.conn.Close()
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID := c.Locals("playerID").(string)
	logger := log.With().Str("gameId", gameID).Str("playerId", playerID).Logger()
	conn := &lockedConn{conn: c}

	if err := wsc.gameService.RegisterConnection(gameID, playerID, conn); err != nil {
		logger.Warn().Err(err).Msg("failed to register connection")
		conn.WriteJSON(ws.ErrorMessage(err.Error()))
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, conn)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			logger.Debug().Err(err).Msg("read error")
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Debug().Err(err).Msg("parse error")
			conn.WriteJSON(ws.ErrorMessage("invalid message"))
			continue
		}

		if err := wsc.handleMessage(gameID, playerID, conn, msg); err != nil {
			logger.Debug().Err(err).Msg("handle error")
			conn.WriteJSON(ws.ErrorMessage(err.Error()))
		}
	}
}

// Handle different types of incoming messages
func (wsc *WebSocketController) handleMessage(gameID, playerID string, conn model.Conn, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeClick:
		var click model.ClickRequest
		if err := json.Unmarshal(msg.Payload, &click); err != nil {
			return errors.New("invalid click payload")
		}
		result, err := wsc.gameService.HandleClick(gameID, playerID, click)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(result.Events)
		if err != nil {
			return err
		}
		return conn.WriteJSON(ws.Message{Type: ws.MessageTypeEvents, Payload: payload})

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// HandleMatchmaking queues the player and waits for a match or for the
// client to go away.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID := c.Locals("playerID").(string)
	logger := log.With().Str("playerId", playerID).Logger()

	ch := make(chan string, 1)
	if err := wsc.gameService.RegisterMatchmakingChannel(playerID, ch); err != nil {
		c.WriteJSON(ws.ErrorMessage(err.Error()))
		return
	}
	if err := wsc.gameService.JoinMatchmaking(playerID); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		wsc.gameService.UnregisterMatchmakingChannel(playerID)
		c.WriteJSON(ws.ErrorMessage(err.Error()))
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			// replaced by a newer matchmaking connection
			return
		}
		if err := c.WriteJSON(ws.Message{Type: ws.MessageTypeMatchFound, Payload: json.RawMessage(event)}); err != nil {
			logger.Warn().Err(err).Msg("failed to send match")
		}
	case <-done:
		logger.Debug().Msg("matchmaking connection closed")
		wsc.gameService.UnregisterMatchmakingChannel(playerID)
		wsc.gameService.LeaveMatchmaking(playerID)
	}
}
