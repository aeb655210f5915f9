package service

// Broadcaster interface for WebSocket status updates (avoids import cycle)
type Broadcaster interface {
	BroadcastToRequest(sosID string, msgType string, payload interface{})
	CloseRequest(sosID string)
}
