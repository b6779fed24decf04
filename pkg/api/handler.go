// Package api provides the thin HTTP transport over the gatekeeper
// core: the chat turn endpoint, the explicit-consent endpoints, and
// health.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"haven/pkg/chat"
	"haven/pkg/consent"
	"haven/pkg/session"
)

type Handler struct {
	svc   *chat.Service
	store consent.Store
	debug bool
}

func NewHandler(svc *chat.Service, store consent.Store, debug bool) *Handler {
	return &Handler{
		svc:   svc,
		store: store,
		debug: debug,
	}
}

// Routes builds the router with CORS applied to every endpoint.
func (h *Handler) Routes(allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(CORS(allowedOrigins))

	r.Get("/health", h.Health)
	r.Post("/chat", h.Chat)
	r.Post("/consent/explicit", h.GrantExplicitConsent)
	r.Get("/consent/status/{sessionID}", h.ConsentStatus)

	if h.debug {
		// Disabled in production: h.debug comes from config.
		r.Get("/debug/classify", h.DebugClassify)
	}

	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// chatRequest accepts both payload shapes older and newer clients send:
//
//	A) { session_id, messages: [{role, content}], wants_explicit, session_state }
//	B) { text, history: [{role, content}], session_state }
type chatRequest struct {
	SessionID    string `json:"session_id"`
	SessionIDAlt string `json:"sessionId"`
	SID          string `json:"sid"`

	Messages []session.Message `json:"messages"`
	History  []session.Message `json:"history"`
	Text     string            `json:"text"`

	WantsExplicit    bool `json:"wants_explicit"`
	WantsExplicitAlt bool `json:"wantsExplicit"`

	SessionState map[string]any `json:"session_state"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sessionID := firstNonEmpty(req.SessionID, req.SessionIDAlt, req.SID)
	if sessionID == "" {
		Error(w, http.StatusUnprocessableEntity, "session_id is required")
		return
	}

	messages := req.Messages
	if len(messages) == 0 {
		messages = append(messages, req.History...)
		if t := strings.TrimSpace(req.Text); t != "" {
			messages = append(messages, session.Message{Role: "user", Content: t})
		}
	}
	if len(messages) == 0 {
		Error(w, http.StatusUnprocessableEntity, "messages is required and cannot be empty")
		return
	}

	userText := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			userText = strings.TrimSpace(messages[i].Content)
			break
		}
	}

	state := decodeSessionState(req.SessionState)

	// wants_explicit is a client hint only; it raises the requested
	// mode, and the server still enforces consent.
	if (req.WantsExplicit || req.WantsExplicitAlt) && session.NormalizeMode(state.Mode) != session.ModeIntimate {
		state.Mode = string(session.ModeIntimate)
	}

	history := messages
	if len(history) > 0 && history[len(history)-1].Role == "user" {
		history = history[:len(history)-1]
	}

	result, err := h.svc.HandleTurn(r.Context(), sessionID, userText, state, history)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrMissingSessionID), errors.Is(err, chat.ErrEmptyMessage):
			Error(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, chat.ErrGeneration):
			// Consent decisions are committed before generation, so the
			// post-router state is still echoed for the client to keep.
			payload := map[string]any{"error": "generation failed, please retry"}
			if result != nil {
				payload["session_id"] = result.SessionID
				payload["session_state"] = result.State
			}
			JSON(w, http.StatusBadGateway, payload)
		default:
			Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	JSON(w, http.StatusOK, result)
}

// decodeSessionState normalizes legacy key variants before mapping the
// untrusted client echo onto the typed state.
func decodeSessionState(raw map[string]any) *session.State {
	if raw == nil {
		return &session.State{}
	}

	if _, ok := raw["plan_name"]; !ok {
		if v, ok := raw["planName"]; ok {
			raw["plan_name"] = v
		}
	}
	if _, ok := raw["companion"]; !ok {
		for _, k := range []string{"companionName", "companion_name"} {
			if v, ok := raw[k]; ok {
				raw["companion"] = v
				break
			}
		}
	}

	state := &session.State{}
	if data, err := json.Marshal(raw); err == nil {
		// Unknown fields are dropped; the typed state is the contract.
		_ = json.Unmarshal(data, state)
	}
	return state
}

// explicitConsentRequest requires two independent 18+ confirmations
// before the server records the grant.
type explicitConsentRequest struct {
	SessionID               string `json:"session_id"`
	AgeConfirmed18Plus      bool   `json:"age_confirmed_18_plus"`
	AgeConfirmed18PlusAgain bool   `json:"age_confirmed_18_plus_again"`
	WantsExplicitNow        bool   `json:"wants_explicit_now"`
}

type explicitConsentStatus struct {
	SessionID       string    `json:"session_id"`
	ExplicitAllowed bool      `json:"explicit_allowed"`
	UpdatedAt       time.Time `json:"updated_at"`
	Reason          string    `json:"reason,omitempty"`
}

func (h *Handler) GrantExplicitConsent(w http.ResponseWriter, r *http.Request) {
	var req explicitConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		Error(w, http.StatusUnprocessableEntity, "session_id is required")
		return
	}

	if !req.WantsExplicitNow {
		if err := h.store.Set(r.Context(), req.SessionID, false, "user revoked via consent endpoint"); err != nil {
			Error(w, http.StatusInternalServerError, "failed to update consent")
			return
		}
		h.writeConsentStatus(w, r, req.SessionID)
		return
	}

	if !req.AgeConfirmed18Plus || !req.AgeConfirmed18PlusAgain {
		Error(w, http.StatusUnprocessableEntity, "both 18+ confirmations are required")
		return
	}

	if err := h.store.Set(r.Context(), req.SessionID, true, "double 18+ confirmation via consent endpoint"); err != nil {
		Error(w, http.StatusInternalServerError, "failed to update consent")
		return
	}
	h.writeConsentStatus(w, r, req.SessionID)
}

func (h *Handler) ConsentStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		Error(w, http.StatusUnprocessableEntity, "session_id is required")
		return
	}
	h.writeConsentStatus(w, r, sessionID)
}

func (h *Handler) writeConsentStatus(w http.ResponseWriter, r *http.Request, sessionID string) {
	rec, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to read consent")
		return
	}

	status := explicitConsentStatus{SessionID: sessionID}
	if rec != nil {
		status.ExplicitAllowed = rec.ExplicitAllowed
		status.UpdatedAt = rec.GrantedAt
		status.Reason = rec.Reason
	}
	JSON(w, http.StatusOK, status)
}

func (h *Handler) DebugClassify(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	intent := chat.Classify(text)

	payload := map[string]any{
		"crisis":          intent.Crisis,
		"taboo":           intent.Taboo,
		"explicit_intent": intent.ExplicitIntent,
		"romantic_intent": intent.RomanticIntent,
	}
	if intent.ModeSwitch != nil {
		payload["mode_switch"] = map[string]string{
			"mode":   string(intent.ModeSwitch.Mode),
			"reason": intent.ModeSwitch.Reason,
		}
	}
	JSON(w, http.StatusOK, payload)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
