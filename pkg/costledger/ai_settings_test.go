package costledger

import "testing"

func TestAISettingsDefaults(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	settings, err := core.GetAISettings()
	assertNoError(t, err, "get defaults")
	if settings.Provider != "openai" || settings.Tone != "concise" || settings.Model != "" {
		t.Errorf("unexpected defaults: %+v", settings)
	}
}

func TestAISettingsRoundTrip(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	saved, err := core.SetAISettings(AISettings{Provider: " Anthropic ", Model: " claude-3-5-haiku-latest ", Tone: "DETAILED"})
	assertNoError(t, err, "set settings")
	if saved.Provider != "anthropic" || saved.Model != "claude-3-5-haiku-latest" || saved.Tone != "detailed" {
		t.Errorf("normalization failed: %+v", saved)
	}

	loaded, err := core.GetAISettings()
	assertNoError(t, err, "get settings")
	if loaded != saved {
		t.Errorf("round trip mismatch: %+v != %+v", loaded, saved)
	}
}

func TestAISettingsInvalidValuesFallBack(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	saved, err := core.SetAISettings(AISettings{Provider: "skynet", Tone: "shouty"})
	assertNoError(t, err, "set invalid")
	if saved.Provider != defaultAIProvider || saved.Tone != defaultAITone {
		t.Errorf("invalid values should fall back to defaults: %+v", saved)
	}
}

func TestResolveAIModel(t *testing.T) {
	if got := resolveAIModel(AISettings{Provider: "gemini"}); got != "gemini-2.0-flash" {
		t.Errorf("expected provider default model, got %s", got)
	}
	if got := resolveAIModel(AISettings{Provider: "openai", Model: "gpt-4o"}); got != "gpt-4o" {
		t.Errorf("explicit model should win, got %s", got)
	}
}
