package ws

import (
	"context"
	"sync"
	"time"

	"donation_backend/internal/logger"
	"donation_backend/internal/models"
)

// Envelope - сообщение, отправляемое клиенту
type Envelope struct {
	Event    string          `json:"event"`
	UserType models.UserType `json:"user_type"`
	Payload  any             `json:"payload"`
	SentAt   time.Time       `json:"sent_at"`
}

// WebSocketManager хранит активные соединения по userID.
// У одного пользователя может быть несколько вкладок.
type WebSocketManager struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run обслуживает регистрацию клиентов до отмены контекста
func (manager *WebSocketManager) Run(ctx context.Context) {
	defer close(manager.done)
	for {
		select {
		case <-ctx.Done():
			manager.closeAll()
			return

		case client := <-manager.register:
			manager.mu.Lock()
			set, ok := manager.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				manager.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			manager.mu.Unlock()
			logger.Debug("websocket client registered", "user_id", client.UserID, "connections", len(set))

		case client := <-manager.unregister:
			manager.remove(client)
		}
	}
}

func (manager *WebSocketManager) remove(client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	set, ok := manager.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(manager.clients, client.UserID)
	}
	logger.Debug("websocket client unregistered", "user_id", client.UserID)
}

func (manager *WebSocketManager) closeAll() {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for userID, set := range manager.clients {
		for client := range set {
			close(client.Send)
		}
		delete(manager.clients, userID)
	}
}

func (manager *WebSocketManager) Register(client *Client) {
	select {
	case manager.register <- client:
	case <-manager.done:
	}
}

func (manager *WebSocketManager) Unregister(client *Client) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

// Deliver отправляет событие всем соединениям пользователя.
// Возвращает false, если пользователь не подключён.
func (manager *WebSocketManager) Deliver(userID string, userType models.UserType, event string, payload any) bool {
	envelope := Envelope{
		Event:    event,
		UserType: userType,
		Payload:  payload,
		SentAt:   time.Now().UTC(),
	}

	manager.mu.RLock()
	defer manager.mu.RUnlock()

	set, ok := manager.clients[userID]
	if !ok || len(set) == 0 {
		return false
	}

	delivered := false
	for client := range set {
		select {
		case client.Send <- envelope:
			delivered = true
		default:
			// медленный клиент отключается
			go manager.Unregister(client)
			logger.Warn("websocket client disconnected due to full send channel", "user_id", userID)
		}
	}
	return delivered
}

// GetClientCount возвращает количество подключенных пользователей
func (manager *WebSocketManager) GetClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients)
}

// IsClientConnected проверяет, есть ли у пользователя соединения
func (manager *WebSocketManager) IsClientConnected(userID string) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients[userID]) > 0
}
