package chat

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// handleWebSocket 处理WebSocket连接. Every text frame is one /chat request.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	conn.SetReadLimit(h.maxBytes)
	log.Printf("[ws] connection opened id=%s remote=%s", connID, r.RemoteAddr)

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[ws] read error id=%s: %v", connID, err)
			}
			break
		}
		if msgType != websocket.TextMessage {
			if err := conn.WriteJSON(errorBody(errInvalidJSON)); err != nil {
				break
			}
			continue
		}

		var payload chatRequest
		var body any
		if err := json.Unmarshal(data, &payload); err != nil {
			body = errorBody(errInvalidJSON)
		} else {
			_, body = h.respond(ctx, payload)
		}

		if err := conn.WriteJSON(body); err != nil {
			log.Printf("[ws] write error id=%s: %v", connID, err)
			break
		}
	}

	log.Printf("[ws] connection closed id=%s", connID)
}

// originChecker allows the configured origins; "*" or an empty list allows
// every origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	origins := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		if origin != "" {
			origins[strings.ToLower(strings.TrimRight(origin, "/"))] = struct{}{}
		}
	}
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := origins[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
