package engine

import "errors"

// Error codes for domain errors surfaced to connections.
const (
	ErrCodeAlreadyIdentified = "already_identified"
	ErrCodeNotIdentified     = "not_identified"
	ErrCodeNotAMember        = "not_a_member"
	ErrCodeConnectionClosed  = "connection_closed"
	ErrCodeUnauthorizedJoin  = "unauthorized_room_join"
	ErrCodePersistence       = "persistence_error"
	ErrCodeBadRequest        = "bad_request"
)

var (
	ErrAlreadyIdentified = errors.New("connection already identified")
	ErrNotIdentified     = errors.New("connection not identified")
	ErrNotAMember        = errors.New("not a member of the room")
	ErrConnectionClosed  = errors.New("connection closed")
)

// EngineError wraps a code and human-readable message. Errors are delivered
// to the offending connection only and never tear down the gateway.
type EngineError struct {
	Code    string
	Message string
}

func (e *EngineError) Error() string {
	return e.Message
}

func engineError(code, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg}
}
