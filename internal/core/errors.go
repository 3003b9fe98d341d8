package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeInvalidParticipant = "invalid_participant"
	ErrCodeSelfChatNotAllowed = "self_chat_not_allowed"
	ErrCodeEmptyGroup         = "empty_group"
	ErrCodeNotAParticipant    = "not_a_participant"
	ErrCodeEmptyMessage       = "empty_message"
	ErrCodeResolutionConflict = "resolution_conflict"
	ErrCodeChatNotFound       = "chat_not_found"
	ErrCodeStoreUnavailable   = "store_unavailable"
	ErrCodeBadRequest         = "bad_request"
)

var (
	ErrInvalidParticipant = errors.New("invalid participant")
	ErrSelfChatNotAllowed = errors.New("self chat not allowed")
	ErrEmptyGroup         = errors.New("empty group")
	ErrNotAParticipant    = errors.New("not a participant")
	ErrEmptyMessage       = errors.New("empty message")
	ErrResolutionConflict = errors.New("resolution conflict")
	ErrChatNotFound       = errors.New("chat not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// CoreError wraps a code and human-readable message for the wire.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// ErrorFrom maps a domain error to its wire form. Unrecognized errors are
// reported as store_unavailable so callers never see raw internals.
func ErrorFrom(err error) *CoreError {
	switch {
	case errors.Is(err, ErrInvalidParticipant):
		return &CoreError{Code: ErrCodeInvalidParticipant, Message: "unknown user"}
	case errors.Is(err, ErrSelfChatNotAllowed):
		return &CoreError{Code: ErrCodeSelfChatNotAllowed, Message: "cannot chat with yourself"}
	case errors.Is(err, ErrEmptyGroup):
		return &CoreError{Code: ErrCodeEmptyGroup, Message: "group needs at least one member"}
	case errors.Is(err, ErrNotAParticipant):
		return &CoreError{Code: ErrCodeNotAParticipant, Message: "not a participant of this chat"}
	case errors.Is(err, ErrEmptyMessage):
		return &CoreError{Code: ErrCodeEmptyMessage, Message: "message has no text or attachment"}
	case errors.Is(err, ErrResolutionConflict):
		return &CoreError{Code: ErrCodeResolutionConflict, Message: "chat resolution conflict, retry"}
	case errors.Is(err, ErrChatNotFound):
		return &CoreError{Code: ErrCodeChatNotFound, Message: "chat not found"}
	default:
		return &CoreError{Code: ErrCodeStoreUnavailable, Message: "storage failure"}
	}
}
