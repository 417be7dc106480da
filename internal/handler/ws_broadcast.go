package handler

// BroadcastGameEvent implements service.Broadcaster using the WebSocket
// hub. The game and action services call it after every commit so
// subscribers see the new document without polling.
func (h *Hub) BroadcastGameEvent(gameID string, eventType string, data any) {
	h.BroadcastToGame(gameID, WSEvent{
		Type:   eventType,
		GameID: gameID,
		Data:   data,
	})
}
