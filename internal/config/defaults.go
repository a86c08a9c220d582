package config

const (
	defaultStateDir             = "~/.local/share/clippy"
	defaultLogDir               = "~/.local/share/clippy/logs"
	defaultProvider             = ProviderOllama
	defaultOllamaModel          = "qwen2.5:7b"
	defaultOpenRouterModel      = "google/gemini-3-flash-preview"
	defaultOpenAIModel          = "gpt-4o-mini"
	defaultOllamaBaseURL        = "http://localhost:11434"
	defaultOpenRouterBaseURL    = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenAIBaseURL        = "https://api.openai.com/v1"
	defaultReferer              = "https://github.com/telltaleatheist/clippy"
	defaultTitle                = "Clippy Transcript Analysis"
	defaultTimeoutSeconds       = 120
	defaultKeepAliveMinutes     = 5
	defaultPipeline             = PipelineChapters
	defaultQuality              = QualityThorough
	defaultRetryAttempts        = 3
	defaultFastChunkMinutes     = 15
	defaultThoroughChunkMinutes = 5
	defaultMinPhraseLength      = 3
	defaultPhrasePrefixLong     = 40
	defaultPhrasePrefixShort    = 20
	defaultWordOverlapThreshold = 0.5
	defaultDedupWindowSeconds   = 5
	defaultFlagWindowSeconds    = 30
	defaultPromptCacheMinutes   = 5
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Provider names.
const (
	ProviderOllama     = "ollama"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
)

// Pipeline names.
const (
	PipelineChapters = "chapters"
	PipelineChunks   = "chunks"
)

// Quality modes for the chunk pipeline.
const (
	QualityFast     = "fast"
	QualityThorough = "thorough"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		LLM: LLM{
			Provider:         defaultProvider,
			Referer:          defaultReferer,
			Title:            defaultTitle,
			TimeoutSeconds:   defaultTimeoutSeconds,
			KeepAliveMinutes: defaultKeepAliveMinutes,
		},
		Analysis: Analysis{
			Pipeline:             defaultPipeline,
			Quality:              defaultQuality,
			RetryAttempts:        defaultRetryAttempts,
			FastChunkMinutes:     defaultFastChunkMinutes,
			ThoroughChunkMinutes: defaultThoroughChunkMinutes,
			MinPhraseLength:      defaultMinPhraseLength,
			PhrasePrefixLong:     defaultPhrasePrefixLong,
			PhrasePrefixShort:    defaultPhrasePrefixShort,
			WordOverlapThreshold: defaultWordOverlapThreshold,
			DedupWindowSeconds:   defaultDedupWindowSeconds,
			FlagWindowSeconds:    defaultFlagWindowSeconds,
			PromptCacheMinutes:   defaultPromptCacheMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Categories: DefaultCategories(),
	}
}

// DefaultCategories returns the built-in category set.
func DefaultCategories() []Category {
	return []Category{
		{Name: "hate", Description: "Discrimination, dehumanization, or calls for harm against any minority group"},
		{Name: "conspiracy", Description: "Political conspiracy theories such as election fraud, deep state, or globalist plots"},
		{Name: "false-prophecy", Description: "Claims of divine communication, prophetic declarations, or supernatural knowledge"},
		{Name: "misinformation", Description: "Factually incorrect or misleading claims about science, medicine, history, or current events"},
		{Name: "violence", Description: "Explicit or implicit calls for violence, threats, or civil war rhetoric"},
		{Name: "christian-nationalism", Description: "Advocacy for church control of government or rejection of secular governance"},
		{Name: "prosperity-gospel", Description: "Demands for money from followers or seed-faith offerings"},
		{Name: "extremism", Description: "Defense of oppression or genocide, white supremacy, or authoritarian advocacy"},
		{Name: "political-violence", Description: "Defending or downplaying political violence events, false flag claims"},
		{Name: "routine", Description: "Anything that does not match the categories above; a normal summary of the discussion"},
	}
}

func defaultModelFor(provider string) string {
	switch provider {
	case ProviderOpenRouter:
		return defaultOpenRouterModel
	case ProviderOpenAI:
		return defaultOpenAIModel
	default:
		return defaultOllamaModel
	}
}

func defaultBaseURLFor(provider string) string {
	switch provider {
	case ProviderOpenRouter:
		return defaultOpenRouterBaseURL
	case ProviderOpenAI:
		return defaultOpenAIBaseURL
	default:
		return defaultOllamaBaseURL
	}
}
