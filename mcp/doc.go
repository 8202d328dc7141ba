// Package mcp holds the Model Context Protocol wire types the explorer
// sends and receives: the initialize handshake, the four list methods and
// their paginated results, tool calls and the content blocks they return.
//
// Method names are Method constants. List requests carry a
// PaginatedRequest; results embed PaginatedResult and a listing ends when
// NextCursor comes back empty.
//
// Tool input schemas stay as json.RawMessage because servers publish
// whatever JSON Schema dialect they like.
package mcp
