package chat

import (
	"context"
	"log"
	"strings"

	"haven/pkg/session"
)

// Fixed yes/no vocabulary for consent replies. Anything that matches
// neither re-prompts; consent is never granted or denied by guessing.
var consentYes = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "sure": true,
	"ok": true, "okay": true, "i do": true, "i consent": true,
	"i agree": true, "i confirm": true, "i am 18+": true, "i'm 18+": true,
	"i am over 18": true, "i'm over 18": true,
	"i confirm i am 18+": true, "i confirm that i am 18+": true,
	"i confirm and consent": true, "yes i am": true, "yes i do": true,
	"yes please": true, "yes i consent": true, "yes i am 18+": true,
	"yes i'm 18+": true, "yes i am over 18": true,
}

var consentNo = map[string]bool{
	"no": true, "n": true, "nope": true, "nah": true,
	"decline": true, "cancel": true, "i don't": true, "i do not": true,
	"do not": true, "no thanks": true, "no thank you": true,
}

func normalizeReply(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.Trim(t, ".!?")
	t = strings.ReplaceAll(t, ",", "")
	return strings.Join(strings.Fields(t), " ")
}

// isNo is checked before isYes everywhere: a "no" always wins, including
// over a simultaneously detected mode-switch request.
func isNo(text string) bool {
	t := normalizeReply(text)
	return consentNo[t] || strings.HasPrefix(t, "no ")
}

func isYes(text string) bool {
	t := normalizeReply(text)
	if consentYes[t] {
		return true
	}
	// First-person combination forms only ("yes i am 18 years old");
	// a bare "yes " prefix would grant on "yes or no?".
	return strings.HasPrefix(t, "yes i ") || strings.HasPrefix(t, "yes i'")
}

// route runs the per-turn state machine in strict priority order:
// crisis, taboo, pending-consent continuation, plan entitlement,
// consent initiation, admission. A non-empty reply means the turn is
// terminal and never reaches generation. All consent writes happen
// here, before any generation call, so a dropped connection never
// loses a consent decision.
func (s *Service) route(ctx context.Context, sessionID string, st *session.State, rc *Reconciled, userText string) (reply string, terminal bool) {
	intent := rc.Intent

	// 1. Crisis takes absolute precedence, including over an
	// in-progress consent prompt. Mode is left untouched.
	if intent.Crisis {
		rc.Pending = session.PendingNone
		st.PendingConsent = ""
		return crisisReply, true
	}

	// 2. Taboo content never produces generation.
	if intent.Taboo {
		rc.Pending = session.PendingNone
		st.PendingConsent = ""
		return tabooReply, true
	}

	// 3. An outstanding consent question owns the turn until answered.
	if rc.Pending != session.PendingNone {
		if reply, terminal := s.continueConsent(ctx, sessionID, st, rc, userText); terminal {
			return reply, true
		}
	}

	wantsIntimate := rc.Mode == session.ModeIntimate || intent.ExplicitIntent
	wantsRomance := rc.Mode == session.ModeRomantic || intent.RomanticIntent
	if rc.HardExit {
		// "stop explicit" names the thing being stopped; the exit turn
		// itself never asks for it back.
		wantsIntimate, wantsRomance = false, false
	}

	// 4. Entitlement before consent: consenting to a mode the plan
	// cannot purchase is pointless.
	if wantsIntimate && !s.plans.AllowsIntimate(st.PlanName) {
		s.blockForPlan(st, rc)
		return upgradeReply("Intimate Mode", s.upgradeURL), true
	}
	if wantsRomance && !s.plans.AllowsRomantic(st.PlanName) {
		s.blockForPlan(st, rc)
		return upgradeReply("Romantic Mode", s.upgradeURL), true
	}

	// 5. Consent initiation.
	if s.requireConsent {
		if wantsIntimate && !rc.IntimateAllowed {
			s.holdForConsent(st, rc)
			if !st.AdultVerified {
				rc.Pending = session.PendingAdult
				st.PendingConsent = string(session.PendingAdult)
				return adultVerifyAsk, true
			}
			rc.Pending = session.PendingIntimate
			st.PendingConsent = string(session.PendingIntimate)
			return explicitConsentAsk, true
		}

		// Intimate consent covers romance; only gate romance on its own.
		if wantsRomance && !st.RomanceConsented && !(wantsIntimate && rc.IntimateAllowed) {
			s.holdForConsent(st, rc)
			rc.Pending = session.PendingRomance
			st.PendingConsent = string(session.PendingRomance)
			return romanceConsentAsk, true
		}
	}

	// 6. Admission.
	return "", false
}

// continueConsent handles the yes/no/other reply while a consent
// question is outstanding. Returns terminal=false only when the pending
// flag turned out to be stale (the allowance is already true), in which
// case routing falls through to the normal path.
func (s *Service) continueConsent(ctx context.Context, sessionID string, st *session.State, rc *Reconciled, userText string) (string, bool) {
	// A client echo can carry a pending flag the server already
	// resolved; drop it instead of re-asking.
	switch rc.Pending {
	case session.PendingRomance:
		if st.RomanceConsented {
			s.clearPending(st, rc)
			return "", false
		}
	case session.PendingIntimate:
		if rc.IntimateAllowed {
			s.clearPending(st, rc)
			return "", false
		}
	case session.PendingAdult:
		if st.AdultVerified {
			st.PendingConsent = string(session.PendingIntimate)
			rc.Pending = session.PendingIntimate
			if rc.IntimateAllowed {
				s.clearPending(st, rc)
				return "", false
			}
		}
	}

	if isNo(userText) {
		s.clearPending(st, rc)
		rc.Mode = session.ModeFriend
		st.Mode = string(session.ModeFriend)
		return consentDeclinedReply, true
	}

	if !isYes(userText) {
		// Ambiguous reply: re-prompt, never default to grant or deny.
		return consentRepromptReply, true
	}

	switch rc.Pending {
	case session.PendingAdult:
		st.AdultVerified = true
		// Age confirmed; the explicit opt-in is a separate question.
		rc.Pending = session.PendingIntimate
		st.PendingConsent = string(session.PendingIntimate)
		return explicitConsentAsk, true

	case session.PendingIntimate:
		// The pending flag is client-echoed, so re-check entitlement
		// on the grant itself.
		if !s.plans.AllowsIntimate(st.PlanName) {
			s.clearPending(st, rc)
			rc.Mode = session.ModeFriend
			st.Mode = string(session.ModeFriend)
			return upgradeReply("Intimate Mode", s.upgradeURL), true
		}
		if err := s.store.Set(ctx, sessionID, true, "user explicit consent"); err != nil {
			// The grant still applies to this turn's session state; the
			// next turn re-asks if the write was truly lost.
			log.Printf("failed to persist consent grant for session %s: %v", sessionID, err)
		}
		st.ExplicitConsented = true
		st.AdultVerified = true
		rc.IntimateAllowed = true
		s.clearPending(st, rc)
		rc.Mode = session.ModeIntimate
		st.Mode = string(session.ModeIntimate)
		return explicitEnabledReply, true

	case session.PendingRomance:
		if !s.plans.AllowsRomantic(st.PlanName) {
			s.clearPending(st, rc)
			rc.Mode = session.ModeFriend
			st.Mode = string(session.ModeFriend)
			return upgradeReply("Romantic Mode", s.upgradeURL), true
		}
		st.RomanceConsented = true
		s.clearPending(st, rc)
		rc.Mode = session.ModeRomantic
		st.Mode = string(session.ModeRomantic)
		return romanceEnabledReply, true
	}

	s.clearPending(st, rc)
	return "", false
}

func (s *Service) clearPending(st *session.State, rc *Reconciled) {
	rc.Pending = session.PendingNone
	st.PendingConsent = ""
}

// blockForPlan downgrades the turn to Friend without opening a consent
// prompt.
func (s *Service) blockForPlan(st *session.State, rc *Reconciled) {
	s.clearPending(st, rc)
	rc.Mode = session.ModeFriend
	st.Mode = string(session.ModeFriend)
	st.ModeSwitchApplied = false
	if st.ModeSwitchRequested != "" {
		st.ModeSwitchBlockedReason = "plan_not_entitled"
	}
}

// holdForConsent keeps the session in Friend while the question is
// outstanding; the UI pill still highlights the requested mode.
func (s *Service) holdForConsent(st *session.State, rc *Reconciled) {
	rc.Mode = session.ModeFriend
	st.Mode = string(session.ModeFriend)
	st.ModeSwitchApplied = false
	if st.UIModeSuggestion != "" {
		st.UIModeSuggestionReason = "consent_required"
	}
	if st.ModeSwitchRequested != "" {
		st.ModeSwitchBlockedReason = "consent_required"
	}
}
