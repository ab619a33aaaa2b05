package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/internal/lobby"
	"github.com/DoyleJ11/pixeliz-backend/internal/types"
	pub "github.com/DoyleJ11/pixeliz-backend/pkg/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Clients is the fan-out side: the hub in production.
type Clients interface {
	Register(clientID string, out chan pub.Event)
	Unregister(clientID string)
}

// Game accepts player intents: the lobby in production.
type Game interface {
	Send(ctx context.Context, m lobby.Msg) bool
}

type Options struct {
	OriginPatterns []string
	OutboxSize     int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadLimit      int64
}

func DefaultOptions() Options {
	return Options{
		OutboxSize:   256,
		PingInterval: 20 * time.Second,
		WriteTimeout: 5 * time.Second,
		ReadLimit:    4096,
	}
}

func Handler(clients Clients, game Game, opts Options, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "ws"))

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()
		if opts.ReadLimit > 0 {
			conn.SetReadLimit(opts.ReadLimit)
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		clientID := uuid.NewString()
		clog := log.With(zap.String("clientID", clientID))

		// Registering before any Join guarantees the snapshot finds an outbox.
		out := make(chan pub.Event, max(opts.OutboxSize, 1))
		clients.Register(clientID, out)
		defer clients.Unregister(clientID)
		defer game.Send(context.Background(), lobby.Leave{ClientID: clientID})

		// Writer goroutine
		go func() {
			defer cancel()
			for ev := range out {
				if err := writeEvent(ctx, conn, ev, opts.WriteTimeout); err != nil {
					clog.Debug("write failed", zap.String("event", ev.Name), zap.Error(err))
					return
				}
			}
			// outbox closed by the hub: we fell behind or the server is stopping
			conn.Close(websocket.StatusPolicyViolation, "too slow")
		}()

		if opts.PingInterval > 0 {
			go heartbeat(ctx, conn, opts.PingInterval, cancel)
		}

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if !errors.Is(err, context.Canceled) {
						clog.Debug("read failed", zap.Error(err))
					}
				}
				return
			}

			msg, ok := toLobbyMsg(clientID, data)
			if !ok {
				continue
			}
			if !game.Send(ctx, msg) {
				return
			}
		}
	}
}

// toLobbyMsg decodes a client frame. Anything malformed is dropped silently.
func toLobbyMsg(clientID string, data []byte) (lobby.Msg, bool) {
	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return nil, false
	}
	switch cm.Type {
	case "join":
		return lobby.Join{ClientID: clientID, Pseudo: cm.Pseudo}, true
	case "guess":
		return lobby.Guess{ClientID: clientID, Text: cm.Text}, true
	case "skip":
		return lobby.Skip{ClientID: clientID}, true
	default:
		return nil, false
	}
}

func encodeEvent(ev pub.Event) (websocket.MessageType, []byte, error) {
	if ev.Binary == nil {
		payload, err := types.NewServerMessage(ev.Name, ev.Payload)
		return websocket.MessageText, payload, err
	}
	hdr, ok := ev.Payload.(pub.Frame)
	if !ok {
		return 0, nil, fmt.Errorf("binary event %q carries %T, not a frame header", ev.Name, ev.Payload)
	}
	return websocket.MessageBinary, pub.EncodeFrame(hdr, ev.Binary), nil
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev pub.Event, timeout time.Duration) error {
	typ, payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	if timeout <= 0 {
		timeout = DefaultOptions().WriteTimeout
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return conn.Write(wctx, typ, payload)
}

func heartbeat(ctx context.Context, conn *websocket.Conn, every time.Duration, fail context.CancelFunc) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, every)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				fail()
				return
			}
		}
	}
}
