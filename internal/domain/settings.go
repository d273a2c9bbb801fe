package domain

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Well-known settings keys.
const (
	SettingOpenAIKey     = "openai_api_key"
	SettingOpenRouterKey = "openrouter_api_key"
	// SettingPromptPrefix prefixes prompt template overrides, e.g. "prompt.ollama_translate".
	SettingPromptPrefix = "prompt."
)
