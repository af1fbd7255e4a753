package projects

// WebSocket event types published by the scanner and service.
const (
	EventProjectsUpdated   = "projects:updated"
	EventScanStarted       = "projects:scan:started"
	EventScanCompleted     = "projects:scan:completed"
	EventScanFailed        = "projects:scan:failed"
	EventCacheWriteFailed  = "projects:cache:write_failed"
	EventIgnoreWriteFailed = "projects:ignore:write_failed"
)

// ScanStartedPayload is sent when a background scan begins.
type ScanStartedPayload struct {
	ScanID string `json:"scanId"`
}

// ScanCompletedPayload is sent when a background scan finishes.
type ScanCompletedPayload struct {
	ScanID     string `json:"scanId"`
	Entries    int    `json:"entries"`
	DurationMS int64  `json:"durationMs"`
}

// ScanFailedPayload is sent when the history store could not be read; the
// last good cache keeps serving.
type ScanFailedPayload struct {
	ScanID string `json:"scanId"`
	Error  string `json:"error"`
}

// UpdatedPayload carries the fresh visible snapshot for the UI layer.
type UpdatedPayload struct {
	Entries []Entry `json:"entries"`
}

// WriteFailedPayload is the one-shot warning for a failed persist.
type WriteFailedPayload struct {
	Error string `json:"error"`
}
