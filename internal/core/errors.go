package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeInvariant    = "invariant_violation"
	ErrCodeUnknownEvent = "unknown_event"
)

// ErrHubStopped is returned by hub calls made after Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// Domain errors reported to the offending connection only.
var (
	errOnlyCustomersJoin   = coreError(ErrCodeUnauthorized, "only customers can join a shop chat")
	errOnlyShopsJoin       = coreError(ErrCodeUnauthorized, "only shops can join chats")
	errOnlyShopsList       = coreError(ErrCodeUnauthorized, "only shops can list conversations")
	errOnlyCustomersList   = coreError(ErrCodeUnauthorized, "only customers can list conversations")
	errNotRegistered       = coreError(ErrCodeUnauthorized, "user not registered")
	errShopNotFound        = coreError(ErrCodeNotFound, "shop not found or offline")
	errChatNotFound        = coreError(ErrCodeNotFound, "chat not found")
	errNotInChat           = coreError(ErrCodeNotFound, "not in any chat")
	errChatNotOwned        = coreError(ErrCodeForbidden, "chat does not belong to this shop")
	errTooManyParticipants = coreError(ErrCodeInvariant, "invalid chat: more than 2 participants")
	errUnknownEvent        = coreError(ErrCodeUnknownEvent, "unknown event")
	errShopIDRequired      = coreError(ErrCodeBadRequest, "shopId is required")
)
