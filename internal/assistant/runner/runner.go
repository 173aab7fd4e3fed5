// Package runner gives stateless completion APIs the session and run
// lifecycle of assistant.Conversation. Sessions live in memory and a run is
// one background completion over the session's prompts.
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vbonduro/eatai/internal/assistant"
	"github.com/vbonduro/eatai/internal/domain"
)

// CompleteFunc sends prompt to model and returns the reply text.
type CompleteFunc func(ctx context.Context, model, prompt string) (string, error)

type session struct {
	prompts []string
	reply   string
	runs    map[string]*run
}

type run struct {
	status assistant.RunStatus
	reason string
	cancel context.CancelFunc
}

type Runner struct {
	complete CompleteFunc

	mu       sync.Mutex
	sessions map[string]*session
}

var (
	_ assistant.Conversation  = (*Runner)(nil)
	_ assistant.RunCanceller  = (*Runner)(nil)
	_ assistant.SessionCloser = (*Runner)(nil)
)

func New(complete CompleteFunc) *Runner {
	return &Runner{complete: complete, sessions: make(map[string]*session)}
}

func (r *Runner) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &session{runs: make(map[string]*run)}
	return id, nil
}

func (r *Runner) PostPrompt(ctx context.Context, sessionID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.session(sessionID)
	if err != nil {
		return err
	}
	s.prompts = append(s.prompts, text)
	return nil
}

// StartRun completes the session's prompts against model in the background.
// The run outlives ctx and ends on completion, CancelRun or CloseSession.
func (r *Runner) StartRun(ctx context.Context, sessionID, model string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.session(sessionID)
	if err != nil {
		return "", err
	}
	if len(s.prompts) == 0 {
		return "", fmt.Errorf("%w: session %s has no prompt", domain.ErrUpstream, sessionID)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	runID := uuid.NewString()
	s.runs[runID] = &run{status: assistant.RunInProgress, cancel: cancel}

	go r.execute(runCtx, sessionID, runID, model, strings.Join(s.prompts, "\n\n"))

	return runID, nil
}

func (r *Runner) execute(ctx context.Context, sessionID, runID, model, prompt string) {
	reply, err := r.complete(ctx, model, prompt)

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	rn, ok := s.runs[runID]
	if !ok || rn.status.Terminal() {
		return
	}
	rn.cancel()

	switch {
	case err != nil:
		rn.status = assistant.RunFailed
		rn.reason = err.Error()
	case strings.TrimSpace(reply) == "":
		rn.status = assistant.RunFailed
		rn.reason = "empty response"
	default:
		rn.status = assistant.RunCompleted
		s.reply = reply
	}
}

func (r *Runner) GetRunStatus(ctx context.Context, sessionID, runID string) (assistant.RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, err := r.run(sessionID, runID)
	if err != nil {
		return assistant.RunState{}, err
	}
	return assistant.RunState{Status: rn.status, FailureReason: rn.reason}, nil
}

func (r *Runner) GetLatestReply(ctx context.Context, sessionID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.session(sessionID)
	if err != nil {
		return "", err
	}
	if s.reply == "" {
		return "", fmt.Errorf("%w: session %s has no reply", domain.ErrUpstream, sessionID)
	}
	return s.reply, nil
}

func (r *Runner) CancelRun(ctx context.Context, sessionID, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, err := r.run(sessionID, runID)
	if err != nil {
		return err
	}
	if !rn.status.Terminal() {
		rn.status = assistant.RunCancelled
		rn.reason = "cancelled by caller"
	}
	rn.cancel()
	return nil
}

// CloseSession stops any unfinished run and forgets the session.
func (r *Runner) CloseSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.session(sessionID)
	if err != nil {
		return err
	}
	for _, rn := range s.runs {
		rn.cancel()
	}
	delete(r.sessions, sessionID)
	return nil
}

// session and run must be called with r.mu held.
func (r *Runner) session(id string) (*session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown session %s", domain.ErrUpstream, id)
	}
	return s, nil
}

func (r *Runner) run(sessionID, runID string) (*run, error) {
	s, err := r.session(sessionID)
	if err != nil {
		return nil, err
	}
	rn, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown run %s", domain.ErrUpstream, runID)
	}
	return rn, nil
}
