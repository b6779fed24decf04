package chat

import (
	"context"
	"log"

	"haven/pkg/session"
)

// Reconciled is the authoritative per-turn view after merging the
// untrusted client echo, the server consent record, and the detected
// intent. Routing decisions read from here, never from the raw echo.
type Reconciled struct {
	Mode            session.Mode
	Pending         session.Pending
	IntimateAllowed bool
	HardExit        bool
	Intent          Intent
}

// reconcile normalizes the client-echoed state in place and resolves
// the three consent signals into one decision.
//
// Consent resolution is OR, not AND: the server record can re-authorize
// a session whose client echo lost the flag, but a stale client echo
// can never de-authorize server truth. Only an explicit "no" or exit
// command revokes. The echo counts only alongside its own adult_verified
// flag; a store grant is only ever written after verification, so it
// vouches on its own. If the store cannot be read we fail closed and
// treat intimate as not allowed.
func (s *Service) reconcile(ctx context.Context, sessionID string, st *session.State, intent Intent) Reconciled {
	st.ResetSwitchHints()

	rc := Reconciled{
		Mode:    session.NormalizeMode(st.Mode),
		Pending: session.NormalizePending(st.PendingConsent),
		Intent:  intent,
	}

	storeAllowed := false
	rec, err := s.store.Get(ctx, sessionID)
	if err != nil {
		// Fail closed: an unreadable store never guesses "allowed".
		log.Printf("consent store read failed for session %s, failing closed: %v", sessionID, err)
	} else if rec != nil {
		storeAllowed = rec.ExplicitAllowed
	}
	rc.IntimateAllowed = storeAllowed || (st.ExplicitConsented && st.AdultVerified)

	if sw := intent.ModeSwitch; sw != nil {
		st.ModeSwitchRequested = string(sw.Mode)
		st.ModeSwitchReason = sw.Reason
		st.UIModeSuggestion = string(sw.Mode)
		st.UIModeSuggestionReason = "user_requested_mode_switch"

		switch {
		case sw.Mode == session.ModeFriend:
			// Hard downgrade: always succeeds, even mid-consent-prompt.
			rc.Mode = session.ModeFriend
			rc.Pending = session.PendingNone
			rc.HardExit = true
			rc.IntimateAllowed = false
			st.ExplicitConsented = false
			st.ModeSwitchApplied = true
			if storeAllowed {
				if err := s.store.Set(ctx, sessionID, false, "user exited to friend mode"); err != nil {
					log.Printf("failed to revoke consent for session %s: %v", sessionID, err)
				}
			}

		case rc.Pending != session.PendingNone:
			// A fresh switch request never silently cancels an active
			// consent prompt; the yes/no handling runs first.
			st.ModeSwitchBlockedReason = "consent_pending"
			st.UIModeSuggestionReason = "consent_required"

		default:
			// User-typed switches take effect immediately for routing,
			// subject to the same consent gate as UI-driven switches.
			rc.Mode = sw.Mode
			st.ModeSwitchApplied = true
		}
	}

	st.Mode = string(rc.Mode)
	st.PendingConsent = string(rc.Pending)
	return rc
}
