package chat

import (
	"regexp"
	"strings"

	"haven/pkg/session"
)

// Intent is the stateless classification of one raw user message.
type Intent struct {
	Crisis         bool
	Taboo          bool
	ExplicitIntent bool
	RomanticIntent bool
	ModeSwitch     *ModeSwitchRequest
}

// ModeSwitchRequest is a detected user-typed mode switch, with a reason
// string for observability.
type ModeSwitchRequest struct {
	Mode   session.Mode
	Reason string
}

// Matching is case-insensitive and word-boundary based: "my friend said"
// must not read as a mode switch and "childish" must not read as taboo.
var (
	crisisRe = mustCompileAny([]string{
		`\bkill myself\b`,
		`\bsuicide\b`,
		`\bend my life\b`,
		`\bwant to die\b`,
		`\bself[- ]?harm\b`,
		`\bhurt myself\b`,
		`\bcan'?t go on\b`,
	})

	tabooRe = mustCompileAny([]string{
		`\bminors?\b`,
		`\bund(er)?[- ]?age\b`,
		`\bchild(ren)?\b`,
		`\bteens?\b`,
		`\bincest\b`,
		`\brape\b`,
		`\bnon[- ]?consensual\b`,
		`\bcoerc(e|ed|ion)\b`,
	})

	explicitRe = mustCompileAny([]string{
		`\bsex\b`,
		`\bfuck\b`,
		`\bmake love\b`,
		`\berotic\b`,
		`\bexplicit\b`,
		`\bnudes?\b`,
		`\bporn\b`,
		`\borgasm\b`,
		`\bhorny\b`,
		`\bdirty talk\b`,
	})

	romanceRe = mustCompileAny([]string{
		`\bdate\b`,
		`\bgirlfriend\b`,
		`\bboyfriend\b`,
		`\blove you\b`,
		`\bkiss\b`,
		`\bromantic\b`,
		`\bromance\b`,
		`\bflirt\b`,
		`\bcuddle\b`,
	})

	// "switch/change/set/go/return/back to <mode>", optionally followed
	// by "mode". 18+ sits outside the \b group because + is not a word
	// character.
	switchRe = regexp.MustCompile(
		`(?i)\b(?:switch|change|set|go|return|back)(?:\s+(?:back|over))?\s+to\s+(?:(friend|friendly|romance|romantic|intimate|explicit|nsfw|adult)\b|(18\+))`)

	// Bracket tags are an explicit client affordance: [mode:romantic].
	bracketRe = regexp.MustCompile(`(?i)\[mode:\s*([a-z0-9+]+)\s*\]`)

	// Hard exits from elevated modes.
	stopRe = regexp.MustCompile(
		`(?i)\b(?:stop|exit|quit|leave)\s+(?:being\s+)?(?:explicit|intimate|romantic|romance|nsfw|flirt\w*)\b`)
)

func mustCompileAny(patterns []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:` + strings.Join(patterns, "|") + `)`)
}

// Classify runs the fixed keyword lists over the raw user text. It is
// pure and deterministic; no state, no network.
func Classify(text string) Intent {
	return Intent{
		Crisis:         crisisRe.MatchString(text),
		Taboo:          tabooRe.MatchString(text),
		ExplicitIntent: explicitRe.MatchString(text),
		RomanticIntent: romanceRe.MatchString(text),
		ModeSwitch:     detectModeSwitch(text),
	}
}

// detectModeSwitch is conservative: it needs a switch-like verb plus a
// target mode keyword, a bracket tag, or a stop command. A bare mode
// word ("romantic") never counts as a switch on its own.
func detectModeSwitch(text string) *ModeSwitchRequest {
	if m := bracketRe.FindStringSubmatch(text); m != nil {
		return &ModeSwitchRequest{Mode: normalizeSwitchTarget(m[1]), Reason: "bracket_tag"}
	}

	if m := switchRe.FindStringSubmatch(text); m != nil {
		target := m[1]
		if target == "" {
			target = m[2]
		}
		return &ModeSwitchRequest{Mode: normalizeSwitchTarget(target), Reason: "switch_phrase"}
	}

	if stopRe.MatchString(text) {
		return &ModeSwitchRequest{Mode: session.ModeFriend, Reason: "stop_command"}
	}

	return nil
}

func normalizeSwitchTarget(raw string) session.Mode {
	switch strings.ToLower(raw) {
	case "friend", "friendly":
		return session.ModeFriend
	default:
		return session.NormalizeMode(raw)
	}
}
