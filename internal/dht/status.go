package dht

import "fmt"

// Status is the result code of one read transaction. It is value-comparable
// and carries enough information for the caller to log a cause; the driver
// itself never logs.
type Status int8

const (
	StatusSuccess Status = iota
	// StatusBusBusy is reserved: the single-line bus was held by another
	// master. Not produced by the current transaction logic.
	StatusBusBusy
	StatusNotDetected
	// StatusAckTooLong is reserved for an over-long acknowledgment pulse.
	StatusAckTooLong
	StatusSyncTimeout
	StatusDataTimeout
	StatusBadChecksum
	StatusTooFastReads
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusBusBusy:
		return "communication failure: bus busy"
	case StatusNotDetected:
		return "communication failure: sensor not detected on bus"
	case StatusAckTooLong:
		return "communication failure: ack too long"
	case StatusSyncTimeout:
		return "communication failure: sync timeout"
	case StatusDataTimeout:
		return "communication failure: data timeout"
	case StatusBadChecksum:
		return "checksum mismatch"
	case StatusTooFastReads:
		return "communication failure: reads faster than sensor refresh"
	default:
		return fmt.Sprintf("unknown status %d", int8(s))
	}
}

// Err returns nil for StatusSuccess and a stable error value otherwise.
func (s Status) Err() error {
	if s == StatusSuccess {
		return nil
	}
	return &ReadError{Status: s}
}

// ReadError wraps a failure Status as an error for callers that propagate
// errors instead of status codes.
type ReadError struct {
	Status Status
}

func (e *ReadError) Error() string {
	return "dht read: " + e.Status.String()
}
