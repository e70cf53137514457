package ai

// Backend names an inference service flavour.
type Backend string

const (
	// BackendOllama talks to Ollama's native API.
	BackendOllama Backend = "ollama"
	// BackendOpenAI talks to any OpenAI-compatible API, including Ollama's /v1 endpoint.
	BackendOpenAI Backend = "openai"
)

// Backends lists the supported backends.
var Backends = []Backend{
	BackendOllama,
	BackendOpenAI,
}
