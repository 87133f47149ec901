package errors

// Error codes for the bus contracts. Keep stable; used across adapters, bus and runtime.
const (
	ErrCodeActorNotRegistered  = "mics.actor_not_registered"
	ErrCodeActorUnregistered   = "mics.actor_unregistered"
	ErrCodeHandlerFailed       = "mics.handler_failed"
	ErrCodeTimeout             = "mics.timeout"
	ErrCodeNoSubscribers       = "mics.no_subscribers"
	ErrCodeTapNotConfigured    = "mics.tap_not_configured"
	ErrCodePublishFailed       = "mics.publish_failed"
	ErrCodeSerializationFailed = "mics.serialization_failed"
	ErrCodeInvalidConfig       = "mics.invalid_config"
	ErrCodeAlreadyStarted      = "mics.already_started"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	// ErrActorNotRegistered is a contract violation: the actor has no mailbox.
	ErrActorNotRegistered = Code(ErrCodeActorNotRegistered)
	// ErrActorUnregistered fails promises of events discarded with a destroyed mailbox.
	ErrActorUnregistered   = Code(ErrCodeActorUnregistered)
	ErrHandlerFailed       = Code(ErrCodeHandlerFailed)
	ErrTimeout             = Code(ErrCodeTimeout)
	ErrNoSubscribers       = Code(ErrCodeNoSubscribers)
	ErrTapNotConfigured    = Code(ErrCodeTapNotConfigured)
	ErrPublishFailed       = Code(ErrCodePublishFailed)
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)
	ErrInvalidConfig       = Code(ErrCodeInvalidConfig)
	// ErrAlreadyStarted is returned when an actor's Run is called a second time.
	ErrAlreadyStarted = Code(ErrCodeAlreadyStarted)
)
