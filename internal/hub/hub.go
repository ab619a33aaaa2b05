package hub

import (
	"context"

	"github.com/DoyleJ11/pixeliz-backend/pkg/types"
	"go.uber.org/zap"
)

type HubMsg interface{ isHubMsg() }

// Register attaches a client outbox. The hub owns the channel from here on
// and closes it on Unregister or when the client falls behind.
type Register struct {
	ClientID string
	Outbox   chan types.Event
}

type Unregister struct {
	ClientID string
}

type Publish struct {
	Event types.Event
}

type Direct struct {
	ClientID string
	Event    types.Event
}

type GetStats struct {
	Reply chan Stats
}

type Stats struct {
	NumClients int
	Dropped    int
}

type ShutdownHub struct{}

func (Register) isHubMsg()    {}
func (Unregister) isHubMsg()  {}
func (Publish) isHubMsg()     {}
func (Direct) isHubMsg()      {}
func (GetStats) isHubMsg()    {}
func (ShutdownHub) isHubMsg() {}

// Mirror receives a copy of every JSON event, e.g. to feed an external bus.
type Mirror interface {
	Mirror(ev types.Event) error
}

type Hub struct {
	inbox   chan HubMsg
	clients map[string]chan types.Event
	dropped int
	mirror  Mirror
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger, mirror Mirror) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 256),
		clients: make(map[string]chan types.Event),
		mirror:  mirror,
		log:     log.With(zap.String("component", "hub")),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Register(clientID string, out chan types.Event) {
	h.send(Register{ClientID: clientID, Outbox: out})
}

func (h *Hub) Unregister(clientID string) { h.send(Unregister{ClientID: clientID}) }

// Broadcast queues ev for every registered client.
func (h *Hub) Broadcast(ev types.Event) { h.send(Publish{Event: ev}) }

// SendTo queues ev for a single client. Unknown ids are ignored.
func (h *Hub) SendTo(clientID string, ev types.Event) {
	h.send(Direct{ClientID: clientID, Event: ev})
}

func (h *Hub) send(m HubMsg) {
	select {
	case h.inbox <- m:
	case <-h.ctx.Done():
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Register:
				if old, ok := h.clients[msg.ClientID]; ok {
					close(old)
				}
				h.clients[msg.ClientID] = msg.Outbox

			case Unregister:
				if out, ok := h.clients[msg.ClientID]; ok {
					close(out)
					delete(h.clients, msg.ClientID)
				}

			case Publish:
				for id, out := range h.clients {
					h.deliver(id, out, msg.Event)
				}
				h.mirrorEvent(msg.Event)

			case Direct:
				if out, ok := h.clients[msg.ClientID]; ok {
					h.deliver(msg.ClientID, out, msg.Event)
				}

			case GetStats:
				msg.Reply <- Stats{NumClients: len(h.clients), Dropped: h.dropped}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// deliver never blocks the hub: a client whose outbox is full is dropped.
func (h *Hub) deliver(id string, out chan types.Event, ev types.Event) {
	select {
	case out <- ev:
	default:
		h.log.Warn("dropping slow client", zap.String("clientID", id), zap.String("event", ev.Name))
		close(out)
		delete(h.clients, id)
		h.dropped++
	}
}

func (h *Hub) mirrorEvent(ev types.Event) {
	if h.mirror == nil || ev.Binary != nil {
		return
	}
	if err := h.mirror.Mirror(ev); err != nil {
		h.log.Debug("mirror failed", zap.String("event", ev.Name), zap.Error(err))
	}
}

func (h *Hub) shutdown() {
	for id, out := range h.clients {
		close(out)
		delete(h.clients, id)
	}
	h.cancel()
}
