package models

// ==================== Session Wire Models ====================

// Client event types sent over a page session
const (
	EventSubmit = "submit" // Enter key or suggestion click
	EventRetry  = "retry"  // Retry Search button
	EventInput  = "input"  // typing, records the query text only
)

// ClientEvent is a user action sent by the page
type ClientEvent struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
}

// RenderFrame carries a rendered view to the page
type RenderFrame struct {
	Type   string `json:"type"` // "render"
	Status Status `json:"status"`
	Query  string `json:"query"`
	Seq    uint64 `json:"seq"`
	HTML   string `json:"html"`
}
