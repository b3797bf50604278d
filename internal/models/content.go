package models

// SpeakerRole identifies the producer of a message.
type SpeakerRole string

const (
	SpeakerUser  SpeakerRole = "user"
	SpeakerModel SpeakerRole = "model"
	SpeakerTool  SpeakerRole = "tool"
)

// Content is a single message in a conversation, made of one or more parts.
type Content struct {
	Parts []*Part     `json:"parts,omitempty"`
	Role  SpeakerRole `json:"role,omitempty"`
}

// Part is one piece of a message: plain text, a function call predicted by
// the model, or the result of executing such a call.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// FunctionCall is a tool invocation predicted by the model.
type FunctionCall struct {
	// ID correlates the call with its response for providers that require
	// it (OpenAI tool_call_id). Empty for providers that match by name.
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name,omitempty"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries the output of an executed tool back to the model.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name,omitempty"`
	Response map[string]any `json:"response,omitempty"`
}

// ToolSchema describes the JSON object a tool accepts, in the shape shared
// by the provider SDKs: a property map plus the list of required keys.
// Property values are JSON-schema fragments ({"type": ..., "description": ...}).
type ToolSchema struct {
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// FunctionDeclaration advertises a callable tool to the model.
type FunctionDeclaration struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema ToolSchema `json:"inputSchema"`
}

// GenerateContentRequest is a provider-neutral chat request: the full
// conversation so far plus the tools the model may call.
type GenerateContentRequest struct {
	// SystemInstruction steers the whole conversation; providers map it to
	// their system prompt mechanism.
	SystemInstruction string                 `json:"systemInstruction,omitempty"`
	Content           []Content              `json:"content,omitempty"`
	Tools             []*FunctionDeclaration `json:"tools,omitempty"`
}

// GenerateContentResponse is a provider-neutral chat response.
type GenerateContentResponse struct {
	Content      []Content `json:"content,omitempty"`
	ResponseID   string    `json:"responseId,omitempty"`
	ModelVersion string    `json:"modelVersion,omitempty"`
}

// Text concatenates the text parts of the response.
func (r *GenerateContentResponse) Text() string {
	var out string
	for _, content := range r.Content {
		for _, part := range content.Parts {
			out += part.Text
		}
	}
	return out
}

// FunctionCalls collects the function call parts of the response, in order.
func (r *GenerateContentResponse) FunctionCalls() []*FunctionCall {
	var calls []*FunctionCall
	for _, content := range r.Content {
		for _, part := range content.Parts {
			if part.FunctionCall != nil {
				calls = append(calls, part.FunctionCall)
			}
		}
	}
	return calls
}
