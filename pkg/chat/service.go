// Package chat implements the conversational-mode gatekeeper: intent
// classification, consent reconciliation, the turn-routing state
// machine, and the response composer. Every turn either short-circuits
// with a canned safety/consent reply or is admitted to the generation
// collaborator.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"haven/pkg/consent"
	"haven/pkg/session"
)

var (
	// ErrMissingSessionID and ErrEmptyMessage are validation errors:
	// the state machine never runs and nothing is retried.
	ErrMissingSessionID = errors.New("session_id is required")
	ErrEmptyMessage     = errors.New("user message is required and cannot be empty")

	// ErrGeneration marks an upstream generation failure, distinct from
	// a safety block. Safe to retry the same turn idempotently.
	ErrGeneration = errors.New("generation failed")
)

// LLMClient is the external generation collaborator.
type LLMClient interface {
	ChatCompletion(ctx context.Context, messages []session.Message) (string, error)
}

// Result is the outbound payload for one turn. State always reflects
// the post-turn truth; callers echo it back on the next call.
type Result struct {
	SessionID string         `json:"session_id"`
	Status    session.Status `json:"status"`
	Reply     string         `json:"reply"`
	State     *session.State `json:"session_state"`
}

// Options tunes the service; zero values get sensible defaults.
type Options struct {
	// RequireConsent gates intimate/romantic content behind explicit
	// opt-in. On unless a deployment disables it.
	RequireConsent bool
	// UpgradeURL is included in plan-gating replies.
	UpgradeURL string
	// GenerationTimeout bounds the generation call (default 60s).
	GenerationTimeout time.Duration
}

// Service is the gatekeeper core. Constructed once at process start;
// all state lives in the injected consent store.
type Service struct {
	llm            LLMClient
	store          consent.Store
	plans          *PlanTable
	requireConsent bool
	upgradeURL     string
	genTimeout     time.Duration
}

func NewService(llm LLMClient, store consent.Store, plans *PlanTable, opts Options) *Service {
	timeout := opts.GenerationTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if plans == nil {
		plans = NewPlanTable(nil, nil)
	}
	return &Service{
		llm:            llm,
		store:          store,
		plans:          plans,
		requireConsent: opts.RequireConsent,
		upgradeURL:     opts.UpgradeURL,
		genTimeout:     timeout,
	}
}

// HandleTurn processes one user message against the session state the
// client echoed back. On a generation failure the returned Result still
// carries the post-router session state (consent decisions commit
// before generation), alongside a non-nil error wrapping ErrGeneration.
func (s *Service) HandleTurn(ctx context.Context, sessionID string, userText string, st *session.State, history []session.Message) (*Result, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrMissingSessionID
	}
	if strings.TrimSpace(userText) == "" {
		return nil, ErrEmptyMessage
	}
	if st == nil {
		st = &session.State{}
	}

	intent := Classify(userText)
	rc := s.reconcile(ctx, sessionID, st, intent)

	s.syncCompanionMeta(st)

	if reply, terminal := s.route(ctx, sessionID, st, &rc, userText); terminal {
		return &Result{
			SessionID: sessionID,
			Status:    session.StatusBlocked,
			Reply:     reply,
			State:     st,
		}, nil
	}

	// Second gate, defense in depth: even if routing admitted the turn,
	// intimate mode without allowance is downgraded here.
	effectiveMode := rc.Mode
	if effectiveMode == session.ModeIntimate && !rc.IntimateAllowed {
		effectiveMode = session.ModeFriend
		st.Mode = string(session.ModeFriend)
	}

	systemPrompt := buildSystemPrompt(st, effectiveMode, rc.IntimateAllowed)
	messages := buildMessages(systemPrompt, history, userText)

	// No consent-store lock is held here; every state change is already
	// committed, so a dropped connection only loses the reply.
	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	reply, err := s.llm.ChatCompletion(genCtx, messages)
	if err != nil {
		return &Result{
			SessionID: sessionID,
			State:     st,
		}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if strings.TrimSpace(reply) == "" {
		reply = "I'm here — what would you like to talk about?"
	}

	status := session.StatusSafe
	if effectiveMode == session.ModeIntimate && rc.IntimateAllowed {
		status = session.StatusAllowed
	}

	return &Result{
		SessionID: sessionID,
		Status:    status,
		Reply:     reply,
		State:     st,
	}, nil
}

// syncCompanionMeta recomputes the normalized companion descriptor so
// the frontend never renders stale or unparsed persona fields.
func (s *Service) syncCompanionMeta(st *session.State) {
	if st.Companion == nil {
		st.CompanionMeta = nil
		return
	}
	meta := session.ParseCompanion(st.Companion)
	st.CompanionMeta = &meta
}
