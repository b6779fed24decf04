package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMode(t *testing.T) {
	cases := map[string]Mode{
		"friend":      ModeFriend,
		"Friend":      ModeFriend,
		"romantic":    ModeRomantic,
		"romance":     ModeRomantic,
		"intimate":    ModeIntimate,
		"explicit":    ModeIntimate,
		"EXPLICIT":    ModeIntimate,
		"18+":         ModeIntimate,
		"adult":       ModeIntimate,
		"nsfw":        ModeIntimate,
		"":            ModeFriend,
		"banana":      ModeFriend,
		" intimate ":  ModeIntimate,
	}

	for raw, want := range cases {
		assert.Equal(t, want, NormalizeMode(raw), "raw=%q", raw)
	}
}

func TestNormalizePending(t *testing.T) {
	assert.Equal(t, PendingIntimate, NormalizePending("explicit"))
	assert.Equal(t, PendingIntimate, NormalizePending("intimate"))
	assert.Equal(t, PendingRomance, NormalizePending("romance"))
	assert.Equal(t, PendingAdult, NormalizePending("adult"))
	assert.Equal(t, PendingNone, NormalizePending(""))
	assert.Equal(t, PendingNone, NormalizePending("something else"))
}

func TestParseCompanion_Map(t *testing.T) {
	c := ParseCompanion(map[string]any{
		"first_name": "Aria",
		"gender":     "female",
		"ethnicity":  "latina",
		"generation": "Gen Z",
	})
	assert.Equal(t, "Aria", c.FirstName)
	assert.Equal(t, "female", c.Gender)
	assert.Equal(t, "latina", c.Ethnicity)
	assert.Equal(t, "Gen Z", c.Generation)
}

func TestParseCompanion_MapVariants(t *testing.T) {
	c := ParseCompanion(map[string]any{"firstName": "Noah"})
	assert.Equal(t, "Noah", c.FirstName)

	c = ParseCompanion(map[string]any{"name": "Mika"})
	assert.Equal(t, "Mika", c.FirstName)
}

func TestParseCompanion_String(t *testing.T) {
	c := ParseCompanion("Aria-Female-Latina-Gen-Z")
	assert.Equal(t, "Aria", c.FirstName)
	assert.Equal(t, "Female", c.Gender)
	assert.Equal(t, "Latina", c.Ethnicity)
	assert.Equal(t, "Gen-Z", c.Generation)
}

func TestParseCompanion_Garbage(t *testing.T) {
	assert.Equal(t, Companion{}, ParseCompanion(nil))
	assert.Equal(t, Companion{}, ParseCompanion(""))
	assert.Equal(t, Companion{}, ParseCompanion("just-a-name"))
	assert.Equal(t, Companion{}, ParseCompanion(42))
}

func TestResetSwitchHints(t *testing.T) {
	s := &State{
		ModeSwitchRequested: "romantic",
		ModeSwitchApplied:   true,
		UIModeSuggestion:    "romantic",
	}
	s.ResetSwitchHints()
	assert.Empty(t, s.ModeSwitchRequested)
	assert.False(t, s.ModeSwitchApplied)
	assert.Empty(t, s.UIModeSuggestion)
}
