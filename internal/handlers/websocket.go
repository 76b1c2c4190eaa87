package handlers

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHub distribui eventos do kanban (cards movidos, status
// alterados) para os painéis conectados
type WebSocketHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{clients: make(map[*websocket.Conn]bool)}
}

// HandleConnection registra a conexão e drena mensagens de entrada até o
// cliente desconectar
func (h *WebSocketHub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Erro ao fazer upgrade da conexão: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("[WS] Cliente conectado (%d ativos)", total)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast envia o evento para todos os painéis; conexões com falha de
// escrita são descartadas
func (h *WebSocketHub) Broadcast(evento string, dados interface{}) {
	payload := gin.H{"evento": evento, "dados": dados}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(payload); err != nil {
			log.Printf("[WS] Erro ao enviar para cliente, removendo: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
