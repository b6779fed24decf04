// Package session defines the conversation session model shared by the
// gatekeeper core: the canonical mode vocabulary, the client-echoed
// session state, and the role-tagged message type handed to generation.
package session

import (
	"strings"
)

// Mode is the conversational register governing persona tone and
// content boundaries.
type Mode string

const (
	ModeFriend   Mode = "friend"
	ModeRomantic Mode = "romantic"
	ModeIntimate Mode = "intimate"
)

// NormalizeMode maps the legacy/synonym mode vocabulary to a canonical
// Mode. Session state is client-echoed and may carry stale vocabulary
// from older client versions, so this runs on every read of a mode
// field.
func NormalizeMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "explicit", "intimate", "18+", "adult", "nsfw":
		return ModeIntimate
	case "romance", "romantic":
		return ModeRomantic
	default:
		return ModeFriend
	}
}

// Pending identifies which consent question, if any, is outstanding.
type Pending string

const (
	PendingNone     Pending = ""
	PendingRomance  Pending = "romance"
	PendingIntimate Pending = "intimate"
	PendingAdult    Pending = "adult"
)

// NormalizePending maps legacy pending-consent values ("explicit" from
// older clients) to the canonical vocabulary.
func NormalizePending(raw string) Pending {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "romance", "romantic":
		return PendingRomance
	case "explicit", "intimate":
		return PendingIntimate
	case "adult":
		return PendingAdult
	default:
		return PendingNone
	}
}

// Status tells the caller whether generation happened or the turn was
// short-circuited.
type Status string

const (
	// StatusSafe: generation happened in a non-intimate register.
	StatusSafe Status = "safe"
	// StatusBlocked: the turn was short-circuited with a canned reply
	// (crisis, taboo, consent prompt, plan gate).
	StatusBlocked Status = "blocked"
	// StatusAllowed: generation happened with intimate content allowed.
	StatusAllowed Status = "allowed"
)

// Message is one role-tagged entry of the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the client-echoed session state. The server treats it as
// untrusted input to be reconciled against its own consent store, not
// as ground truth.
type State struct {
	Mode              string `json:"mode,omitempty"`
	PendingConsent    string `json:"pending_consent,omitempty"`
	RomanceConsented  bool   `json:"romance_consented"`
	ExplicitConsented bool   `json:"explicit_consented"`
	AdultVerified     bool   `json:"adult_verified"`
	PlanName          string `json:"plan_name,omitempty"`

	// Companion is the free-form persona descriptor as the client sent
	// it; CompanionMeta is the normalized view computed every turn.
	Companion     any        `json:"companion,omitempty"`
	CompanionMeta *Companion `json:"companion_meta,omitempty"`

	// UI hint / debug fields, recomputed every turn.
	ModeSwitchRequested     string `json:"mode_switch_requested,omitempty"`
	ModeSwitchReason        string `json:"mode_switch_reason,omitempty"`
	ModeSwitchApplied       bool   `json:"mode_switch_applied,omitempty"`
	ModeSwitchBlockedReason string `json:"mode_switch_blocked_reason,omitempty"`
	UIModeSuggestion        string `json:"ui_mode_suggestion,omitempty"`
	UIModeSuggestionReason  string `json:"ui_mode_suggestion_reason,omitempty"`
}

// ResetSwitchHints clears the derived mode-switch fields. They carry no
// meaning across turns beyond echoing, so every turn starts clean.
func (s *State) ResetSwitchHints() {
	s.ModeSwitchRequested = ""
	s.ModeSwitchReason = ""
	s.ModeSwitchApplied = false
	s.ModeSwitchBlockedReason = ""
	s.UIModeSuggestion = ""
	s.UIModeSuggestionReason = ""
}

// Companion is the normalized persona descriptor consumed by the
// prompt composer.
type Companion struct {
	FirstName  string `json:"first_name"`
	Gender     string `json:"gender"`
	Ethnicity  string `json:"ethnicity"`
	Generation string `json:"generation"`
}

// ParseCompanion accepts either a map with first_name/gender/ethnicity/
// generation keys (common variants included) or a hyphen-joined string
// "First-Gender-Ethnicity-Generation X".
func ParseCompanion(raw any) Companion {
	switch v := raw.(type) {
	case map[string]any:
		return Companion{
			FirstName:  firstString(v, "first_name", "firstName", "name"),
			Gender:     firstString(v, "gender"),
			Ethnicity:  firstString(v, "ethnicity"),
			Generation: firstString(v, "generation"),
		}
	case string:
		cleaned := strings.TrimSpace(v)
		if cleaned == "" {
			return Companion{}
		}
		var parts []string
		for _, p := range strings.Split(cleaned, "-") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) >= 4 {
			return Companion{
				FirstName: parts[0],
				Gender:    parts[1],
				Ethnicity: parts[2],
				// Generations like "Gen-Z" keep their hyphens.
				Generation: strings.Join(parts[3:], "-"),
			}
		}
	}
	return Companion{}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
