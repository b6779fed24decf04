package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haven/pkg/session"
)

func TestClassify_Crisis(t *testing.T) {
	for _, text := range []string{
		"I want to end my life",
		"i've been thinking about suicide",
		"I might hurt myself tonight",
		"honestly I just want to die",
		"self-harm has been on my mind",
	} {
		assert.True(t, Classify(text).Crisis, "text=%q", text)
	}

	for _, text := range []string{
		"this game is suicidal difficulty lol",
		"I watched a documentary yesterday",
	} {
		assert.False(t, Classify(text).Crisis, "text=%q", text)
	}
}

func TestClassify_Taboo(t *testing.T) {
	for _, text := range []string{
		"looking for content with a minor",
		"she's underage",
		"a story about incest",
		"non-consensual stuff",
		"they coerced her",
	} {
		assert.True(t, Classify(text).Taboo, "text=%q", text)
	}

	// Word boundaries: no substring-anywhere false positives.
	for _, text := range []string{
		"stop being childish",
		"that movie was a minority report ripoff",
		"the canteen was crowded",
	} {
		assert.False(t, Classify(text).Taboo, "text=%q", text)
	}
}

func TestClassify_ExplicitIntent(t *testing.T) {
	assert.True(t, Classify("let's talk about sex").ExplicitIntent)
	assert.True(t, Classify("send me nudes").ExplicitIntent)
	assert.True(t, Classify("I want something erotic").ExplicitIntent)
	assert.True(t, Classify("some dirty talk maybe?").ExplicitIntent)

	assert.False(t, Classify("I love sussex in the spring").ExplicitIntent)
	assert.False(t, Classify("the dishes are dirty").ExplicitIntent)
}

func TestClassify_RomanticIntent(t *testing.T) {
	assert.True(t, Classify("will you be my girlfriend?").RomanticIntent)
	assert.True(t, Classify("I love you").RomanticIntent)
	assert.True(t, Classify("kiss me").RomanticIntent)
	assert.True(t, Classify("let's flirt a little").RomanticIntent)

	assert.False(t, Classify("what's the weather update?").RomanticIntent)
}

func TestClassify_ModeSwitch_SwitchPhrases(t *testing.T) {
	cases := []struct {
		text string
		mode session.Mode
	}{
		{"switch to romantic mode", session.ModeRomantic},
		{"please change to friend", session.ModeFriend},
		{"can we go to intimate mode", session.ModeIntimate},
		{"set to explicit", session.ModeIntimate},
		{"go back to friend mode", session.ModeFriend},
		{"return to romance", session.ModeRomantic},
		{"switch to 18+", session.ModeIntimate},
	}

	for _, tc := range cases {
		intent := Classify(tc.text)
		require.NotNil(t, intent.ModeSwitch, "text=%q", tc.text)
		assert.Equal(t, tc.mode, intent.ModeSwitch.Mode, "text=%q", tc.text)
		assert.Equal(t, "switch_phrase", intent.ModeSwitch.Reason)
	}
}

func TestClassify_ModeSwitch_BracketTag(t *testing.T) {
	intent := Classify("hey there [mode:romantic]")
	require.NotNil(t, intent.ModeSwitch)
	assert.Equal(t, session.ModeRomantic, intent.ModeSwitch.Mode)
	assert.Equal(t, "bracket_tag", intent.ModeSwitch.Reason)

	intent = Classify("[mode: explicit] hello")
	require.NotNil(t, intent.ModeSwitch)
	assert.Equal(t, session.ModeIntimate, intent.ModeSwitch.Mode)
}

func TestClassify_ModeSwitch_StopCommands(t *testing.T) {
	for _, text := range []string{
		"stop explicit mode",
		"please stop being romantic",
		"exit intimate",
	} {
		intent := Classify(text)
		require.NotNil(t, intent.ModeSwitch, "text=%q", text)
		assert.Equal(t, session.ModeFriend, intent.ModeSwitch.Mode, "text=%q", text)
	}
}

func TestClassify_ModeSwitch_Conservative(t *testing.T) {
	// A bare mode word, or a mode word without a switch verb, is not a
	// switch request.
	for _, text := range []string{
		"romantic",
		"my friend said hi",
		"that was a romantic movie",
		"I feel friendly today",
	} {
		assert.Nil(t, Classify(text).ModeSwitch, "text=%q", text)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	a := Classify("switch to romantic mode, I love you")
	b := Classify("switch to romantic mode, I love you")
	assert.Equal(t, a, b)
}
