package sse

import (
	"context"
	"sync"

	"gatekeeper/internal/models"
)

// SalesEventEmitter fans completed purchases out to host dashboards
// subscribed per event.
type SalesEventEmitter struct {
	clients     map[string][]chan models.Sale
	clientMutex sync.RWMutex
}

func NewSalesEventEmitter() *SalesEventEmitter {
	return &SalesEventEmitter{
		clients: make(map[string][]chan models.Sale),
	}
}

// Subscribe adds a client to an event's sales feed. The channel is
// closed and removed when the context ends.
func (e *SalesEventEmitter) Subscribe(ctx context.Context, eventID string) chan models.Sale {
	clientChan := make(chan models.Sale, 10)

	e.clientMutex.Lock()
	e.clients[eventID] = append(e.clients[eventID], clientChan)
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(eventID, clientChan)
	}()

	return clientChan
}

// EmitSale broadcasts a sale to every subscriber of its event.
func (e *SalesEventEmitter) EmitSale(sale models.Sale) {
	e.clientMutex.RLock()
	clients := e.clients[sale.EventID]
	e.clientMutex.RUnlock()

	for _, clientChan := range clients {
		// Non-blocking send so a slow dashboard cannot stall the
		// purchase path.
		select {
		case clientChan <- sale:
		default:
		}
	}
}

func (e *SalesEventEmitter) removeClient(eventID string, clientChan chan models.Sale) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	clients := e.clients[eventID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[eventID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[eventID]) == 0 {
		delete(e.clients, eventID)
	}
}

// ClientCount returns the number of live subscribers for an event.
func (e *SalesEventEmitter) ClientCount(eventID string) int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients[eventID])
}
