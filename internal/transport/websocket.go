// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	applog "spectrum/internal/log"
)

const (
	broadcastQueueSize = 256
	writeTimeout       = time.Second
)

// WebSocketTransport implements the Transport interface for WebSocket
// connections. Every message is broadcast as JSON to all clients of /ws.
//
// Band frames carry centers only when the layout changes. The transport
// remembers the latest layout and adds it to the next frame a client
// receives if that client has not seen it yet: on connect, and after a
// layout frame was dropped from a full queue.
type WebSocketTransport struct {
	upgrader websocket.Upgrader
	// Value is true while the client still needs the band centers.
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex

	layoutMu  sync.Mutex
	layout    []float32
	layoutSeq uint64
	// Set when a frame with centers missed the queue.
	layoutDropped atomic.Bool

	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	listener  net.Listener
	server    *http.Server
	wg        sync.WaitGroup
}

// NewWebSocketTransport listens on addr and starts serving /ws.
func NewWebSocketTransport(addr string) (*WebSocketTransport, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on '%s': %w", addr, err)
	}

	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Visualizers are served from anywhere.
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, broadcastQueueSize),
		done:      make(chan struct{}),
		listener:  listener,
	}
	wst.start()
	return wst, nil
}

// Addr returns the address the server listens on.
func (wst *WebSocketTransport) Addr() net.Addr {
	return wst.listener.Addr()
}

// start begins the WebSocket server
func (wst *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)

	wst.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	wst.wg.Add(2)
	go func() {
		defer wst.wg.Done()
		applog.Infof("WebSocketTransport: Starting WebSocket server on %s", wst.listener.Addr())
		if err := wst.server.Serve(wst.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()

	go func() {
		defer wst.wg.Done()
		wst.handleBroadcasts()
	}()
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true // Not yet sent any centers.
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: Client connected, total: %d", total)

	// Clients never send; a read error means the client went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		wst.clientsMu.Lock()
		_, known := wst.clients[conn]
		delete(wst.clients, conn)
		total := len(wst.clients)
		wst.clientsMu.Unlock()
		conn.Close()
		if known {
			applog.Infof("WebSocketTransport: Client disconnected, total: %d", total)
		}
	}()
}

// ClientCount returns the number of connected clients.
func (wst *WebSocketTransport) ClientCount() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// handleBroadcasts sends messages to all connected clients
func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case <-wst.done:
			return
		case data := <-wst.broadcast:
			frame, isFrame := data.(*BandFrame)
			var withLayout *BandFrame
			if isFrame && frame.Centers == nil {
				if centers := wst.layoutFor(frame); centers != nil {
					cp := *frame
					cp.Centers = centers
					withLayout = &cp
				}
			}

			wst.clientsMu.Lock()
			if wst.layoutDropped.Swap(false) {
				for client := range wst.clients {
					wst.clients[client] = true
				}
			}
			for client, needsLayout := range wst.clients {
				msg, sentLayout := data, isFrame && frame.Centers != nil
				if needsLayout && withLayout != nil {
					msg, sentLayout = withLayout, true
				}
				client.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := client.WriteJSON(msg); err != nil {
					applog.Warnf("WebSocketTransport: Error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
					continue
				}
				if needsLayout && sentLayout {
					wst.clients[client] = false
				}
			}
			wst.clientsMu.Unlock()
		}
	}
}

// layoutFor returns the centers that apply to frame, or nil when they are
// unknown: the latest layout only describes frames sent after it.
func (wst *WebSocketTransport) layoutFor(frame *BandFrame) []float32 {
	wst.layoutMu.Lock()
	defer wst.layoutMu.Unlock()
	if wst.layout == nil || frame.Sequence < wst.layoutSeq || len(wst.layout) != len(frame.Values) {
		return nil
	}
	return wst.layout
}

// Send queues data for broadcast. When the queue is full the message is
// dropped; a slow client never stalls the caller.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return ErrClosed
	default:
	}

	frame, isFrame := data.(*BandFrame)
	if isFrame && frame.Centers != nil {
		wst.layoutMu.Lock()
		wst.layout = frame.Centers
		wst.layoutSeq = frame.Sequence
		wst.layoutMu.Unlock()
	}

	select {
	case wst.broadcast <- data:
	default:
		applog.Debugf("WebSocketTransport: Queue full, dropping message")
		if isFrame && frame.Centers != nil {
			wst.layoutDropped.Store(true)
		}
	}
	return nil
}

// Close shuts down the WebSocket server and disconnects every client.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		applog.Infof("WebSocketTransport: Closing server")
		close(wst.done)
		err = wst.server.Close()

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		wst.wg.Wait()
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
