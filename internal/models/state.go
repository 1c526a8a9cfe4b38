package models

// Status is the lifecycle position of a search
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorKind classifies why a search failed. It is kept next to the
// human-readable message and never shown to the user directly.
type ErrorKind string

const (
	ErrorKindNone     ErrorKind = ""
	ErrorKindNetwork  ErrorKind = "network"
	ErrorKindUpstream ErrorKind = "upstream"
	ErrorKindParse    ErrorKind = "parse"
	ErrorKindConfig   ErrorKind = "config"
	ErrorKindCanceled ErrorKind = "canceled"
	ErrorKindUnknown  ErrorKind = "unknown"
)

// FallbackErrorMessage is shown when a failure carries no description
const FallbackErrorMessage = "Something went wrong"

// SearchState is the single mutable value of a search session.
// Data is set only in StatusSuccess and Error only in StatusError.
// Values are replaced wholesale; build them with the constructors below.
type SearchState struct {
	Status Status          `json:"status"`
	Data   *SearchResponse `json:"data"`
	Error  string          `json:"error,omitempty"`
	Kind   ErrorKind       `json:"kind,omitempty"`
	Seq    uint64          `json:"seq"`
}

// IdleState is the state a session starts in
func IdleState() SearchState {
	return SearchState{Status: StatusIdle}
}

// LoadingState marks request seq as in flight
func LoadingState(seq uint64) SearchState {
	return SearchState{Status: StatusLoading, Seq: seq}
}

// SuccessState records the response of request seq
func SuccessState(seq uint64, resp *SearchResponse) SearchState {
	return SearchState{Status: StatusSuccess, Data: resp, Seq: seq}
}

// ErrorState records the failure of request seq. An empty message is
// replaced with FallbackErrorMessage.
func ErrorState(seq uint64, kind ErrorKind, message string) SearchState {
	if message == "" {
		message = FallbackErrorMessage
	}
	if kind == ErrorKindNone {
		kind = ErrorKindUnknown
	}
	return SearchState{Status: StatusError, Error: message, Kind: kind, Seq: seq}
}

// IsBusy reports whether a request is outstanding
func (s SearchState) IsBusy() bool {
	return s.Status == StatusLoading
}
