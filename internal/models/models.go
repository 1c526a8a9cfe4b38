package models

import "encoding/json"

// ==================== Search Response Models ====================

// SearchResponse is the answer returned by the grounded search call
type SearchResponse struct {
	Text              string             `json:"text"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

// GroundingMetadata holds the citations backing an answer.
// Only GroundingChunks is rendered; the other fields are carried as received.
type GroundingMetadata struct {
	GroundingChunks   []GroundingChunk  `json:"groundingChunks"`
	GroundingSupports []json.RawMessage `json:"groundingSupports,omitempty"`
	SearchEntryPoint  *SearchEntryPoint `json:"searchEntryPoint,omitempty"`
	WebSearchQueries  []string          `json:"webSearchQueries,omitempty"`
}

// SearchEntryPoint is the search suggestion widget returned by the service
type SearchEntryPoint struct {
	RenderedContent string `json:"renderedContent,omitempty"`
}

// GroundingChunk is one citation record. Chunks without Web are inert.
type GroundingChunk struct {
	Web *WebSource `json:"web,omitempty"`
}

// WebSource is a cited web page
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Chunks returns the grounding chunks, or nil when there is no metadata
func (r *SearchResponse) Chunks() []GroundingChunk {
	if r == nil || r.GroundingMetadata == nil {
		return nil
	}
	return r.GroundingMetadata.GroundingChunks
}

// ==================== Error Models ====================

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
