package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"consolenav/internal/gateway/middleware"
	"consolenav/internal/gateway/nav"
)

const (
	navWSWriteWait = 10 * time.Second
	navWSPongWait  = 60 * time.Second
	navWSPingEvery = (navWSPongWait * 9) / 10
)

var navWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type navWSInbound struct {
	Type string `json:"type"`
}

type navWSOutbound struct {
	Type       string `json:"type"`
	Session    string `json:"session,omitempty"`
	Generation uint64 `json:"generation,omitempty"`
	State      string `json:"state,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

// NavSocket pushes navigation changes of the caller's session.
type NavSocket struct {
	svc    *nav.Service
	logger *zap.Logger
}

func NewNavSocket(svc *nav.Service, logger *zap.Logger) *NavSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NavSocket{svc: svc, logger: logger}
}

func (h *NavSocket) HandleNavWS(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFrom(r.Context())
	if token == "" {
		http.Error(w, "bearer token is required", http.StatusUnauthorized)
		return
	}

	conn, err := navWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(navWSPongWait)); err != nil {
		h.logger.Warn("nav ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(navWSPongWait))
	})

	writeCh := make(chan navWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(navWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(navWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(navWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	sessionID, events, unsubscribe, err := h.svc.Subscribe(ctx, token)
	if err != nil {
		pushNavWS(writeCh, navWSOutbound{Type: "error", Code: "unauthenticated", Message: err.Error()})
		cancel()
		<-writerDone
		return
	}
	defer unsubscribe()

	state := ""
	if snap, err := h.svc.Snapshot(ctx, token); err == nil {
		state = snap.State.String()
	}
	pushNavWS(writeCh, navWSOutbound{Type: "subscribed", Session: sessionID, State: state})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				pushNavWS(writeCh, navWSOutbound{
					Type:       string(ev.Type),
					Session:    ev.Session,
					Generation: ev.Generation,
					State:      ev.State,
				})
			}
		}
	}()

	for {
		var in navWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushNavWS(writeCh, navWSOutbound{Type: "pong"})
		case "refresh":
			go func() {
				if _, err := h.svc.Refresh(ctx, token); err != nil {
					status, code := statusFor(err)
					if status == http.StatusConflict {
						return
					}
					pushNavWS(writeCh, navWSOutbound{Type: "error", Code: code, Message: err.Error()})
				}
			}()
		case "":
			pushNavWS(writeCh, navWSOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
		default:
			pushNavWS(writeCh, navWSOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + in.Type})
		}
	}
}

// pushNavWS never blocks: when the buffer is full the oldest message is
// dropped.
func pushNavWS(writeCh chan navWSOutbound, out navWSOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
