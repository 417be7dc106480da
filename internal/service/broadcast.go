package service

// Broadcaster fans a committed game event out to every client watching
// the room. The WebSocket hub implements it; services call it after the
// document store accepts a write, never before.
type Broadcaster interface {
	BroadcastGameEvent(gameID string, eventType string, data any)
}

// NoopBroadcaster drops every event. Service constructors fall back to
// it when no hub is wired, which is how arena games and unit tests run.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastGameEvent(string, string, any) {}
