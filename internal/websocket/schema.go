package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is the only shape clients send on the content feed.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────
// Content changes are sent as model.ContentEvent, whose "event" field is
// created, updated or deleted.

type Event string

const (
	EventReady Event = "ready"
	EventPong  Event = "pong"
	EventError Event = "error"
)

// ReadyResponse is sent once after the upgrade.
type ReadyResponse struct {
	Event   Event  `json:"event"`
	Subject string `json:"subject"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
