package controllers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cppla/moodstreak/services"
	"github.com/cppla/moodstreak/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsBuffer     = 32
)

// EventsController streams a user's bus events over a websocket.
type EventsController struct {
	bus      *services.EventBus
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewEventsController creates the controller. Requests without an Origin
// header (native apps) are always accepted; browser origins must be listed.
func NewEventsController(bus *services.EventBus, allowedOrigins []string, logger *zap.Logger) *EventsController {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return &EventsController{
		bus: bus,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowAll {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				_, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
				return ok
			},
		},
	}
}

// Stream upgrades the connection and forwards StreakUpdated and Notification
// events for the caller until the client goes away.
func (e *EventsController) Stream(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	out := make(chan services.Event, wsBuffer)
	unsubscribe := e.bus.Subscribe(func(_ context.Context, evt services.Event) error {
		if evt.UserID != userID {
			return nil
		}
		select {
		case out <- evt:
		default:
			// slow client; the next StreakUpdated carries the full state anyway
			e.log.Warn("dropping websocket event", zap.String("user_id", userID), zap.String("event", string(evt.Type)))
		}
		return nil
	}, services.EventStreakUpdated, services.EventNotification)
	defer unsubscribe()

	// Subscribed before the handshake completes so nothing published after the
	// client sees 101 is missed
	conn, err := e.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		e.log.Debug("websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go e.readPump(conn, done)
	utils.Sugar.Debugf("websocket opened user=%s", userID)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case evt := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				e.log.Debug("websocket write failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so control messages are processed, and
// closes done when the peer disconnects.
func (e *EventsController) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
