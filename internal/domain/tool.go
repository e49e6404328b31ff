package domain

// ToolInvocation is a request to run a named tool, either parsed from a model
// directive or constructed programmatically. Transient; never persisted.
type ToolInvocation struct {
	Tool   string            `json:"tool_name"`
	Params map[string]string `json:"parameters"`
}
