// Package sse keeps the registry of server-sent-event streams, one per user,
// over which assistant reply chunks are delivered.
package sse

import (
	"sync"

	"go.uber.org/zap"

	"cardsavvy/api/logger"
)

// DoneMarker terminates a stream from the client's point of view.
const DoneMarker = "[DONE]"

// ClientStream is one connected SSE client.
type ClientStream struct {
	Messages chan string
	Done     chan struct{}
}

var (
	mu          sync.RWMutex
	connections = make(map[string]*ClientStream)
)

// Register creates (or replaces) the stream for a user and returns it.
func Register(userID string) *ClientStream {
	stream := &ClientStream{
		Messages: make(chan string, 100),
		Done:     make(chan struct{}, 1),
	}
	mu.Lock()
	connections[userID] = stream
	mu.Unlock()
	return stream
}

// Unregister drops the user's stream.
func Unregister(userID string) {
	mu.Lock()
	delete(connections, userID)
	mu.Unlock()
}

// SendChunk delivers one reply chunk to the user's stream, dropping it when
// no client is connected or the channel is full.
func SendChunk(userID, chunk string) {
	mu.RLock()
	stream, ok := connections[userID]
	mu.RUnlock()
	if !ok {
		logger.Get().Debug("no client stream registered", zap.String("user_id", userID))
		return
	}

	select {
	case stream.Messages <- chunk:
	default:
		logger.Get().Warn("dropping chunk, client stream is full", zap.String("user_id", userID))
	}
}

// SendDone signals the end of the current reply: a final DoneMarker chunk
// followed by the done signal.
func SendDone(userID string) {
	mu.RLock()
	stream, ok := connections[userID]
	mu.RUnlock()
	if !ok {
		return
	}

	select {
	case stream.Messages <- DoneMarker:
	default:
	}
	select {
	case stream.Done <- struct{}{}:
	default:
	}
}
