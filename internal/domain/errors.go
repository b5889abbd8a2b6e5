package domain

import "fmt"

// EngineError is the unified error type for the engine.
// Each error has a numeric code and human-readable message.
type EngineError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// NewEngineError creates a new EngineError.
func NewEngineError(code int, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg}
}

// WrapEngineError creates an EngineError that includes a cause.
func WrapEngineError(code int, msg string, cause error) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// WithDetail copies a sentinel error and appends context to its message.
// The code is preserved so errors.Is still matches the sentinel.
func (e *EngineError) WithDetail(detail string) *EngineError {
	return &EngineError{Code: e.Code, Message: e.Message + ": " + detail}
}

// Is matches engine errors by code, so detailed copies of a sentinel
// still compare equal to it.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && t.Code == e.Code
}

// ---- Order / controller errors (-32210 to -32239) ----

var (
	ErrOrderTypeUnresolved = &EngineError{Code: -32210, Message: "order type is not registered"}
	ErrNotAuthoritative    = &EngineError{Code: -32211, Message: "order state can only be mutated on the authoritative instance"}
	ErrOrderRejected       = &EngineError{Code: -32212, Message: "order failed validation"}
	ErrNoStopOrder         = &EngineError{Code: -32213, Message: "agent has no stop order configured"}
	ErrNoExecution         = &EngineError{Code: -32214, Message: "order type has no execution strategy bound"}
)

// ---- Acquisition / dispatch errors (-32240 to -32259) ----

var (
	ErrNoSuitableAgent = &EngineError{Code: -32240, Message: "no selected agent can obey the order"}
	ErrNoTargetFound   = &EngineError{Code: -32241, Message: "no valid target in acquisition radius"}
)

// ---- Auto-order errors (-32260 to -32279) ----

var (
	ErrUnknownAutoOrder = &EngineError{Code: -32260, Message: "order is not an auto-order candidate of this agent"}
)

// ---- Catalog / config errors (-32280 to -32299) ----

var (
	ErrCatalogInvalid = &EngineError{Code: -32280, Message: "order catalog validation failed"}
	ErrConfigInvalid  = &EngineError{Code: -32281, Message: "configuration validation failed"}
)

// ---- Store / IPC errors (-32300 to -32329) ----

var (
	ErrAgentNotFound    = &EngineError{Code: -32300, Message: "agent not found"}
	ErrSnapshotCorrupt  = &EngineError{Code: -32301, Message: "snapshot blob could not be decoded"}
	ErrFeedUnavailable  = &EngineError{Code: -32302, Message: "event feed is not available"}
	ErrDuplicateAgent   = &EngineError{Code: -32303, Message: "agent already exists"}
	ErrEventLogCorrupt  = &EngineError{Code: -32304, Message: "event payload could not be decoded"}
	ErrStateUnavailable = &EngineError{Code: -32305, Message: "order state has not been persisted yet"}
)
