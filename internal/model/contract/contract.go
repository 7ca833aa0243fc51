package contract

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	// JSONMode asks the provider to return a single JSON object.
	JSONMode    bool     `json:"json_mode,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

type CompletionResponse struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// SystemPrompt joins the system messages of req, in order.
func SystemPrompt(req CompletionRequest) string {
	var out string
	for _, m := range req.Messages {
		if m.Role != RoleSystem || m.Content == "" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}
