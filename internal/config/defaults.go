package config

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"
	DefaultEnvFile     = ".env"

	DefaultRateLimitPerMinute = 60

	DefaultLLMProvider = "gemini"
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash-lite-001:generateContent"

	DefaultAgentModel   = "claude-sonnet-4-6"
	DefaultAgentTimeout = 300 // seconds
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}

var DefaultSensitiveColumns = []string{
	"email", "phone", "password", "secret", "token", "api_key",
}

var DefaultPIIKeywords = []string{
	"password", "ssn", "social security", "credit card",
	"bank account", "secret", "private key", "access token", "api key",
}
