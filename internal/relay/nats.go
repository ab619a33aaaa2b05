// Package relay mirrors session events onto NATS so other services
// (dashboards, stream overlays) can follow a game without a websocket.
package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/pkg/types"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const DefaultSubjectPrefix = "pixeliz.events"

type Config struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: DefaultSubjectPrefix,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// envelope is the published message body.
type envelope struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

type Publisher struct {
	nc     *nats.Conn
	prefix string
	now    func() time.Time
}

func Connect(cfg Config, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "relay"))

	opts := []nats.Option{
		nats.Name("pixeliz-backend"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error("NATS error", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Publisher{nc: nc, prefix: prefixOrDefault(cfg.SubjectPrefix), now: time.Now}, nil
}

func prefixOrDefault(p string) string {
	if p == "" {
		return DefaultSubjectPrefix
	}
	return p
}

// Subject is where an event of the given name is published.
func (p *Publisher) Subject(event string) string {
	return p.prefix + "." + event
}

// Mirror publishes ev. Binary frames are not relayed.
func (p *Publisher) Mirror(ev types.Event) error {
	if ev.Binary != nil {
		return nil
	}
	data, err := encode(ev, p.now())
	if err != nil {
		return err
	}
	return p.nc.Publish(p.Subject(ev.Name), data)
}

func encode(ev types.Event, at time.Time) ([]byte, error) {
	data, err := json.Marshal(envelope{Type: ev.Name, At: at.UTC(), Data: ev.Payload})
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.Name, err)
	}
	return data, nil
}

func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}
