package learnings

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EventPostToolUse is the hook event that carries tool results.
const EventPostToolUse = "PostToolUse"

// HookInput is the PostToolUse payload delivered on stdin.
type HookInput struct {
	SessionID     string          `json:"session_id"`
	HookEventName string          `json:"hook_event_name"`
	ToolName      string          `json:"tool_name"`
	ToolInput     json.RawMessage `json:"tool_input,omitempty"`
	ToolResponse  json.RawMessage `json:"tool_response,omitempty"`
	Cwd           string          `json:"cwd"`
}

// ParseResponse decodes a tool response. Objects decode as-is, bare strings
// become {"output": s}, and anything else is kept under "output" as raw JSON.
func ParseResponse(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding tool response: %w", err)
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case string:
		return map[string]any{"output": t}, nil
	default:
		return map[string]any{"output": string(raw)}, nil
	}
}

// Context extracts a short description of what the tool was asked to do.
func (in HookInput) Context() string {
	if len(in.ToolInput) == 0 {
		return ""
	}
	var args map[string]any
	if err := json.Unmarshal(in.ToolInput, &args); err != nil {
		return ""
	}
	for _, key := range []string{"command", "description", "file_path", "pattern", "url"} {
		if s, ok := args[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Response decodes ToolResponse.
func (in HookInput) Response() (map[string]any, error) {
	return ParseResponse(in.ToolResponse)
}
