package chat

import (
	"fmt"
	"strings"

	"haven/pkg/session"
)

// Mode prompts layered behind the persona. The intimate prompt is only
// ever included together with a consent block confirming the opt-in.
const (
	friendModePrompt = `Current register: Friend Mode. Keep the conversation warm, platonic, and supportive. No romantic or sexual content.`

	romanticModePrompt = `Current register: Romantic Mode. The user has opted into romance. You may be affectionate, flirty, and emotionally intimate. Keep content non-explicit.`

	intimateModePrompt = `Current register: Intimate Mode. The user is a verified adult who has explicitly opted into adult conversation. You may be explicit when the user leads there, always consensual and adult.`
)

// buildSystemPrompt composes the system instruction injected ahead of
// conversation history: persona, then mode register, then the consent
// state the model must respect. Pure function of its inputs.
func buildSystemPrompt(st *session.State, mode session.Mode, intimateAllowed bool) string {
	companion := session.ParseCompanion(st.Companion)

	name := companion.FirstName
	if name == "" {
		name = "Haven"
	}

	lines := []string{
		fmt.Sprintf("You are %s, an AI companion designed to be warm, attentive, and emotionally intelligent.", name),
		"You speak naturally and conversationally.",
	}
	if companion.Generation != "" {
		lines = append(lines, fmt.Sprintf("Your tone and references should feel familiar and comfortable to someone from %s.", companion.Generation))
	}
	if companion.Ethnicity != "" {
		lines = append(lines, fmt.Sprintf("You are culturally aware of %s perspectives, without using stereotypes.", companion.Ethnicity))
	}
	if companion.Gender != "" {
		lines = append(lines, fmt.Sprintf("Your communication style aligns gently with a %s identity.", strings.ToLower(companion.Gender)))
	}
	lines = append(lines, "You are supportive, respectful, and focused on the user's emotional experience.")
	persona := strings.Join(lines, " ")

	var modePrompt string
	switch mode {
	case session.ModeIntimate:
		modePrompt = intimateModePrompt
	case session.ModeRomantic:
		modePrompt = romanticModePrompt
	default:
		modePrompt = friendModePrompt
	}

	consentBlock := fmt.Sprintf(`CONSENT STATE:
- adult_verified: %t
- romance_consented: %t
- intimate_allowed: %t

RULES:
- If romance_consented is false, do NOT produce romance. Offer a checkpoint instead.
- If intimate_allowed is false, do NOT produce explicit content under any circumstances. Offer a checkpoint instead.`,
		st.AdultVerified, st.RomanceConsented, intimateAllowed)

	return strings.Join([]string{persona, modePrompt, consentBlock}, "\n\n---\n\n")
}

// maxHistoryMessages is the rolling window handed to generation; the
// caller owns full history persistence.
const maxHistoryMessages = 6

// maxPromptChars caps the total prompt size; past it, only the system
// message and the tail of the conversation survive.
const maxPromptChars = 20000

func buildMessages(systemPrompt string, history []session.Message, userText string) []session.Message {
	messages := []session.Message{{Role: "system", Content: systemPrompt}}

	cleaned := make([]session.Message, 0, len(history))
	for _, m := range history {
		if (m.Role == "user" || m.Role == "assistant") && m.Content != "" {
			cleaned = append(cleaned, m)
		}
	}
	if len(cleaned) > maxHistoryMessages {
		cleaned = cleaned[len(cleaned)-maxHistoryMessages:]
	}

	messages = append(messages, cleaned...)
	messages = append(messages, session.Message{Role: "user", Content: userText})

	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	if total > maxPromptChars && len(messages) > 4 {
		messages = append(messages[:1], messages[len(messages)-3:]...)
	}

	return messages
}
