// Package assistant is the boundary between recipe generation and the
// external session-based AI service. Backends live in subpackages.
package assistant

import "context"

type RunStatus string

const (
	RunQueued     RunStatus = "queued"
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
	RunCancelled  RunStatus = "cancelled"
	RunExpired    RunStatus = "expired"
)

// Terminal reports whether no further progress can happen from s.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled, RunExpired:
		return true
	default:
		return false
	}
}

// RunState is one observation of a run. FailureReason is set by backends
// that report why a run ended unsuccessfully.
type RunState struct {
	Status        RunStatus
	FailureReason string
}

// Conversation drives a single stateful exchange with the text model.
// Errors from a backend are wrapped in domain.ErrUpstream.
type Conversation interface {
	CreateSession(ctx context.Context) (string, error)
	PostPrompt(ctx context.Context, session, text string) error
	StartRun(ctx context.Context, session, modelID string) (string, error)
	GetRunStatus(ctx context.Context, session, run string) (RunState, error)
	GetLatestReply(ctx context.Context, session string) (string, error)
}

// Illustrator turns a text prompt into an image reference (URL or opaque
// handle).
type Illustrator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

type Client interface {
	Conversation
	Illustrator
}

// RunCanceller is implemented by backends that can abandon a run server side.
type RunCanceller interface {
	CancelRun(ctx context.Context, session, run string) error
}

// SessionCloser is implemented by backends that hold per-session resources.
type SessionCloser interface {
	CloseSession(ctx context.Context, session string) error
}

// Combine pairs a text backend with a separate image backend. Optional
// interfaces of conv stay reachable through the returned Client.
func Combine(conv Conversation, ill Illustrator) Client {
	c := combined{Conversation: conv, Illustrator: ill}
	canceller, canCancel := conv.(RunCanceller)
	closer, canClose := conv.(SessionCloser)
	switch {
	case canCancel && canClose:
		return struct {
			combined
			RunCanceller
			SessionCloser
		}{c, canceller, closer}
	case canCancel:
		return struct {
			combined
			RunCanceller
		}{c, canceller}
	case canClose:
		return struct {
			combined
			SessionCloser
		}{c, closer}
	default:
		return c
	}
}

type combined struct {
	Conversation
	Illustrator
}
