package chat

// Canned replies for every short-circuited turn. Kept in one place so
// product/safety review has a single file to look at.
const (
	crisisReply = "I'm really sorry you're feeling this way. You matter, and I'm worried about your safety. " +
		"If you're in immediate danger or thinking about harming yourself, please contact emergency services " +
		"or a crisis line right now. I can stay with you while you reach out. You don't have to go through this alone."

	tabooReply = "I can't help with anything involving minors, coercion, or other unsafe or illegal sexual content. " +
		"If you want to talk about feelings or safe, consensual adult intimacy, I'm here for that."

	adultVerifyAsk = "Before we go further, I need to confirm you're 18+ and that you want explicit adult conversation. " +
		"Are you 18 or older? You can say yes or no."

	explicitConsentAsk = "I can do explicit adult conversation only with your clear opt-in. " +
		"Do you want to enter Intimate Mode? You can say yes or no."

	romanceConsentAsk = "I can be romantic only if you want that. " +
		"Would you like to opt into Romantic Mode? You can say yes or no."

	explicitEnabledReply = "Thank you — Intimate Mode is enabled. What would you like to do next?"

	romanceEnabledReply = "Romantic Mode is on. I'm happy you asked. What's on your mind?"

	consentDeclinedReply = "No problem at all — we'll stay in Friend Mode. What would you like to talk about?"

	consentRepromptReply = "Just to be clear before we continue: please reply yes or no."
)

// upgradeReply names the capability the user's plan is missing and
// where to get it.
func upgradeReply(capability string, upgradeURL string) string {
	msg := "That's part of " + capability + ", which isn't included in your current plan. " +
		"You can upgrade to unlock it"
	if upgradeURL != "" {
		msg += ": " + upgradeURL
	} else {
		msg += " from your account page."
	}
	return msg
}
