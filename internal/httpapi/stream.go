package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	streamBuffer       = 8
	streamWriteTimeout = 5 * time.Second
)

// hub fans state views out to websocket clients.
// A client whose buffer is full misses intermediate views; the next
// view it receives is always the latest.
type hub struct {
	mu      sync.Mutex
	clients map[chan StateView]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[chan StateView]struct{})}
}

func (h *hub) join() chan StateView {
	ch := make(chan StateView, streamBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) leave(ch chan StateView) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast never blocks.
func (h *hub) broadcast(view StateView) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- view:
		default:
			// Drop the oldest queued view to make room.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- view:
			default:
			}
		}
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	updates := s.hub.join()
	defer s.hub.leave(updates)

	// Clients only listen; CloseRead handles control frames and
	// cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	s.mu.Lock()
	initial := s.viewLocked(s.store.State())
	s.mu.Unlock()
	if err := writeView(ctx, conn, initial); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case view := <-updates:
			if err := writeView(ctx, conn, view); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func writeView(ctx context.Context, conn *websocket.Conn, view StateView) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, view)
}
