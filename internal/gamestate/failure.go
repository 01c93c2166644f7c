package gamestate

import (
	"encoding/json"
	"time"
)

// StatusError is the status field value of an error-snapshot.
const StatusError = "error"

// Failure is sent to subscribers instead of a Snapshot when a cycle could not
// build one.
type Failure struct {
	Timestamp time.Time
	Err       string
}

// NewFailure records err at ts.
func NewFailure(ts time.Time, err error) *Failure {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Failure{Timestamp: ts, Err: msg}
}

// Time implements Message.
func (f *Failure) Time() time.Time { return f.Timestamp }

// IsFailure implements Message.
func (f *Failure) IsFailure() bool { return true }

// Encode implements Message.
func (f *Failure) Encode() ([]byte, error) { return json.Marshal(f) }

// MarshalJSON writes {timestamp, error, status:"error"}.
func (f *Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp string `json:"timestamp"`
		Error     string `json:"error"`
		Status    string `json:"status"`
	}{
		Timestamp: FormatTimestamp(f.Timestamp),
		Error:     f.Err,
		Status:    StatusError,
	})
}
