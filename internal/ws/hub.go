package ws

import (
	"encoding/json"
	"sync"

	"github.com/JustIkra/tg-restorants-bot/internal/confirm"
	"github.com/JustIkra/tg-restorants-bot/internal/enum"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event represents a WebSocket message in either direction
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// managerEvent is an internal struct for routing events to one manager's consoles
type managerEvent struct {
	ManagerID int64
	Event     Event
	// PromptID is set on confirm.open so each console renders a prompt once
	PromptID uuid.UUID
}

// room is every console a manager has open plus the confirmation bridge
// they share. The bridge lives as long as the room.
type room struct {
	clients map[*Client]bool
	bridge  *confirm.Bridge
}

// Hub maintains the set of active admin consoles and routes confirmation
// prompts to them
type Hub struct {
	// Rooms by manager tgid
	rooms map[int64]*room

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *managerEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex

	logger *zap.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[int64]*room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *managerEvent, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if rm, ok := h.rooms[client.managerID]; ok {
				if _, exists := rm.clients[client]; exists {
					delete(rm.clients, client)
					close(client.send)
					h.dropIfEmpty(client.managerID, rm)
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	rm := h.rooms[client.managerID]
	if rm == nil {
		rm = &room{clients: make(map[*Client]bool)}
		rm.bridge = confirm.NewBridge(&presenter{hub: h, managerID: client.managerID})
		h.rooms[client.managerID] = rm
	}
	rm.clients[client] = true
	h.mu.Unlock()

	// A console joining mid-prompt renders the pending prompt too.
	if p, ok := rm.bridge.Pending(); ok {
		if msg, err := encodeEvent(enum.WSConfirmOpen, p); err == nil {
			select {
			case client.send <- msg:
				client.shownPrompt = p.ID
			default:
			}
		}
	}
}

func (h *Hub) deliver(event *managerEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm := h.rooms[event.ManagerID]
	if rm == nil {
		return
	}

	// Marshal event to JSON once
	message, err := json.Marshal(event.Event)
	if err != nil {
		return
	}

	// Send to every console of this manager
	for client := range rm.clients {
		if event.PromptID != uuid.Nil {
			// Already rendered on registration.
			if client.shownPrompt == event.PromptID {
				continue
			}
			client.shownPrompt = event.PromptID
		}
		select {
		case client.send <- message:
		default:
			// Client's send buffer is full, close and unregister
			close(client.send)
			delete(rm.clients, client)
		}
	}
	h.dropIfEmpty(event.ManagerID, rm)
}

// dropIfEmpty removes a room without consoles and cancels its pending
// prompt. Close runs off the hub goroutine since it reports back through
// the presenter. Must be called with h.mu held.
func (h *Hub) dropIfEmpty(managerID int64, rm *room) {
	if len(rm.clients) > 0 {
		return
	}
	delete(h.rooms, managerID)
	go rm.bridge.Close()
}

// enqueue hands an event to the hub loop without blocking. It reports
// false when the broadcast buffer is full.
func (h *Hub) enqueue(event *managerEvent) bool {
	select {
	case h.broadcast <- event:
		return true
	default:
		return false
	}
}

// Bridge returns the confirmation bridge of a manager with at least one
// console connected
func (h *Hub) Bridge(managerID int64) (*confirm.Bridge, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rm, ok := h.rooms[managerID]
	if !ok {
		return nil, false
	}
	return rm.bridge, true
}

func encodeEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: eventType, Payload: raw})
}

// presenter renders a manager's confirmation modal on their consoles. It is
// called with the bridge locked, so it never blocks on the hub.
type presenter struct {
	hub       *Hub
	managerID int64
}

type focusPayload struct {
	ID    uuid.UUID       `json:"id"`
	Focus confirm.Control `json:"focus"`
}

type closePayload struct {
	ID           uuid.UUID `json:"id"`
	RestoreFocus string    `json:"restore_focus,omitempty"`
}

func (p *presenter) Open(prompt confirm.Prompt) {
	p.send(enum.WSConfirmOpen, prompt.ID, prompt)
}

func (p *presenter) Focus(id uuid.UUID, c confirm.Control) {
	p.send(enum.WSConfirmFocus, uuid.Nil, focusPayload{ID: id, Focus: c})
}

func (p *presenter) Close(id uuid.UUID, restoreFocus string) {
	p.send(enum.WSConfirmClose, uuid.Nil, closePayload{ID: id, RestoreFocus: restoreFocus})
}

func (p *presenter) send(eventType string, promptID uuid.UUID, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.hub.logger.Error("encode console event", zap.String("type", eventType), zap.Error(err))
		return
	}
	ev := &managerEvent{ManagerID: p.managerID, Event: Event{Type: eventType, Payload: raw}, PromptID: promptID}
	if !p.hub.enqueue(ev) {
		p.hub.logger.Warn("console event dropped, hub busy",
			zap.String("type", eventType), zap.Int64("manager_tgid", p.managerID))
	}
}
