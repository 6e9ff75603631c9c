package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/earthwork/internal/adapters/nats"
	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/pkg/metrics"
)

// wsMessage is sent by clients to narrow or widen the event stream.
//
//	{"action":"subscribe","channel":"failed"}
//	{"action":"subscribe","method":"tin"}
//	{"action":"reset"}
type wsMessage struct {
	Action  string        `json:"action"`            // "subscribe" | "unsubscribe" | "reset"
	Channel string        `json:"channel,omitempty"` // "completed" | "failed"
	Method  domain.Method `json:"method,omitempty"`
}

// eventFilter selects calculation events by status and method. An empty
// set matches everything.
type eventFilter struct {
	statuses map[string]bool
	methods  map[domain.Method]bool
}

func newEventFilter() *eventFilter {
	return &eventFilter{statuses: map[string]bool{}, methods: map[domain.Method]bool{}}
}

func (f *eventFilter) matches(ev *domain.CalculationEvent) bool {
	if len(f.statuses) > 0 && !f.statuses[ev.Status] {
		return false
	}
	if len(f.methods) > 0 && !f.methods[ev.Method] {
		return false
	}
	return true
}

// apply updates the filter and returns the acknowledgement for the client.
func (f *eventFilter) apply(m wsMessage) map[string]any {
	switch m.Channel {
	case "", "completed", "failed":
	default:
		return map[string]any{"error": "unknown channel: " + m.Channel}
	}
	switch m.Method {
	case "", domain.MethodGridAverage, domain.MethodGrid, domain.MethodTIN:
	default:
		return map[string]any{"error": "unknown method: " + string(m.Method)}
	}

	switch m.Action {
	case "subscribe":
		if m.Channel != "" {
			f.statuses[m.Channel] = true
		}
		if m.Method != "" {
			f.methods[m.Method] = true
		}
	case "unsubscribe":
		delete(f.statuses, m.Channel)
		delete(f.methods, m.Method)
	case "reset":
		clear(f.statuses)
		clear(f.methods)
	default:
		return map[string]any{"error": "unknown action: " + m.Action}
	}
	return map[string]any{"status": "ok", "channels": keys(f.statuses), "methods": keys(f.methods)}
}

func keys[K ~string](m map[K]bool) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// WebSocketHandler relays calculation events from NATS to the client. A
// new connection receives every event until it narrows the stream.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		log := slog.Default().With("remote", c.RemoteAddr().String())
		log.Debug("ws client connected")

		var mu sync.Mutex
		filter := newEventFilter()
		write := func(msgType int, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(msgType, data)
		}
		writeJSON := func(v any) {
			data, err := json.Marshal(v)
			if err == nil {
				_ = write(websocket.TextMessage, data)
			}
		}

		sub, err := nc.Subscribe(natsadapter.SubjectCalculationAll, func(msg *nats.Msg) {
			var ev domain.CalculationEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				return
			}
			mu.Lock()
			ok := filter.matches(&ev)
			mu.Unlock()
			if ok {
				_ = write(websocket.TextMessage, msg.Data)
			}
		})
		if err != nil {
			log.Warn("ws subscribe failed", "error", err)
			return
		}
		defer sub.Unsubscribe()

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := write(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}
			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			mu.Lock()
			ack := filter.apply(m)
			mu.Unlock()
			writeJSON(ack)
		}
		log.Debug("ws client disconnected")
	}
}
