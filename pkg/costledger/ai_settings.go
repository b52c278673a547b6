package costledger

import (
	"database/sql"
	"strings"
)

const (
	defaultAIProvider = "openai"
	defaultAITone     = "concise"
)

var validAIProviders = map[string]struct{}{
	"anthropic": {},
	"openai":    {},
	"gemini":    {},
}

var validAITones = map[string]struct{}{
	"concise":  {},
	"detailed": {},
}

// Default model per provider when settings leave the model blank.
var defaultAIModels = map[string]string{
	"anthropic": "claude-3-5-sonnet-latest",
	"openai":    "gpt-4o-mini",
	"gemini":    "gemini-2.0-flash",
}

func defaultAISettings() AISettings {
	return AISettings{
		Provider: defaultAIProvider,
		Model:    "",
		Tone:     defaultAITone,
	}
}

func normalizeAISettings(settings AISettings) AISettings {
	normalized := settings
	normalized.Provider = strings.ToLower(strings.TrimSpace(normalized.Provider))
	normalized.Model = strings.TrimSpace(normalized.Model)
	normalized.Tone = strings.ToLower(strings.TrimSpace(normalized.Tone))

	if _, ok := validAIProviders[normalized.Provider]; !ok {
		normalized.Provider = defaultAIProvider
	}
	if _, ok := validAITones[normalized.Tone]; !ok {
		normalized.Tone = defaultAITone
	}
	return normalized
}

func resolveAIModel(settings AISettings) string {
	if settings.Model != "" {
		return settings.Model
	}
	return defaultAIModels[settings.Provider]
}

// GetAISettings returns persisted AI settings (excluding API key).
func (c *Core) GetAISettings() (AISettings, error) {
	settings := defaultAISettings()
	err := c.db.QueryRow(`
		SELECT provider, model, tone
		FROM ai_settings
		WHERE id = 1
	`).Scan(&settings.Provider, &settings.Model, &settings.Tone)
	if err == sql.ErrNoRows {
		return settings, nil
	}
	if err != nil {
		return AISettings{}, WrapError(ErrCodeDatabase, "load ai settings", err)
	}
	return normalizeAISettings(settings), nil
}

// SetAISettings persists AI settings (excluding API key).
func (c *Core) SetAISettings(settings AISettings) (AISettings, error) {
	normalized := normalizeAISettings(settings)
	_, err := c.db.Exec(`
		INSERT INTO ai_settings (id, provider, model, tone, updated_at)
		VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			tone = excluded.tone,
			updated_at = CURRENT_TIMESTAMP
	`, normalized.Provider, normalized.Model, normalized.Tone)
	if err != nil {
		return AISettings{}, WrapError(ErrCodeDatabase, "save ai settings", err)
	}
	return normalized, nil
}
