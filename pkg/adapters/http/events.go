package http

import (
	"context"
	"log/slog"
	"sync"
)

// eventHub shares one engine watch among every SSE client, so an external
// edit is applied once no matter how many clients listen. The watch starts
// with the first subscriber and stops when the last one leaves.
type eventHub struct {
	engine Engine
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[chan string]struct{}
	cancel context.CancelFunc
	gen    uint64
}

func newEventHub(engine Engine, logger *slog.Logger) *eventHub {
	return &eventHub{
		engine: engine,
		logger: logger,
		subs:   make(map[chan string]struct{}),
	}
}

func (h *eventHub) subscribe() (chan string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		events, err := h.engine.Watch(ctx)
		if err != nil {
			cancel()
			return nil, err
		}
		h.cancel = cancel
		h.gen++
		go h.run(ctx, events, h.gen)
	}

	ch := make(chan string, 16)
	h.subs[ch] = struct{}{}
	return ch, nil
}

func (h *eventHub) unsubscribe(ch chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
	if len(h.subs) == 0 && h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// run fans events out until the watch ends. Slow clients miss events rather
// than stall the others.
func (h *eventHub) run(ctx context.Context, events <-chan string, gen uint64) {
	defer h.finish(gen)
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-events:
			if !ok {
				return
			}
			h.mu.Lock()
			for ch := range h.subs {
				select {
				case ch <- id:
				default:
					h.logger.Warn("SSE client lagging, event dropped", "layer", id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// finish disconnects the clients of a watch that ended on its own.
func (h *eventHub) finish(gen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.gen != gen || h.cancel == nil {
		return
	}
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	h.cancel()
	h.cancel = nil
}
