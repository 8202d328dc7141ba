package mcp

// Method is a JSON-RPC method or notification name.
type Method string

const (
	InitializeMethod              Method = "initialize"
	InitializedNotificationMethod Method = "notifications/initialized"
	PingMethod                    Method = "ping"

	ToolsListMethod              Method = "tools/list"
	ToolsCallMethod              Method = "tools/call"
	ResourcesListMethod          Method = "resources/list"
	ResourcesTemplatesListMethod Method = "resources/templates/list"
	PromptsListMethod            Method = "prompts/list"

	// Requests a server may send to the client.
	RootsListMethod Method = "roots/list"

	// Notifications the client understands.
	LoggingMessageNotificationMethod Method = "notifications/message"
	ProgressNotificationMethod       Method = "notifications/progress"
	CancelledNotificationMethod      Method = "notifications/cancelled"
)

// InitializeRequest opens the handshake.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult is the server's half of the handshake.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitzero"`
}

// PaginatedRequest is the params object of every list method.
type PaginatedRequest struct {
	Cursor string `json:"cursor,omitzero"`
}

// PaginatedResult is embedded in list results; an empty NextCursor ends
// the listing.
type PaginatedResult struct {
	NextCursor string `json:"nextCursor,omitzero"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
	PaginatedResult
}

type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
	PaginatedResult
}

type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
	PaginatedResult
}

type ListPromptsResult struct {
	Prompts []Prompt `json:"prompts"`
	PaginatedResult
}

// CallToolRequest invokes a tool by name.
type CallToolRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallToolResult is what a tool returned. IsError marks a failure the tool
// itself reported, as opposed to a protocol error.
type CallToolResult struct {
	Content           []ContentBlock `json:"content"`
	IsError           bool           `json:"isError,omitzero"`
	StructuredContent map[string]any `json:"structuredContent,omitempty"`
}

// ListRootsResult answers roots/list.
type ListRootsResult struct {
	Roots []Root `json:"roots"`
}

// EmptyResult answers requests that carry no data, such as ping.
type EmptyResult struct{}

// LoggingMessageNotification is a log record emitted by the server.
type LoggingMessageNotification struct {
	Level  LoggingLevel `json:"level"`
	Data   any          `json:"data"`
	Logger string       `json:"logger,omitzero"`
}

// ProgressNotificationParams reports progress on a request that carried a
// progress token.
type ProgressNotificationParams struct {
	ProgressToken any     `json:"progressToken"`
	Progress      float64 `json:"progress"`
	Total         float64 `json:"total,omitzero"`
	Message       string  `json:"message,omitzero"`
}

// CancelledNotification tells the peer a request was abandoned.
type CancelledNotification struct {
	RequestID any    `json:"requestId"`
	Reason    string `json:"reason,omitzero"`
}
