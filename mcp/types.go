package mcp

import (
	"encoding/json"
	"slices"
)

// LatestProtocolVersion is the revision offered during initialize.
const LatestProtocolVersion = "2025-06-18"

// SupportedProtocolVersions lists the revisions a server may answer with,
// newest first.
var SupportedProtocolVersions = []string{
	LatestProtocolVersion,
	"2025-03-26",
	"2024-11-05",
}

// IsSupportedProtocolVersion reports whether v is one of
// SupportedProtocolVersions.
func IsSupportedProtocolVersion(v string) bool {
	return slices.Contains(SupportedProtocolVersions, v)
}

// ImplementationInfo names a client or server.
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Title   string `json:"title,omitzero"`
}

// ListChanged is the capability shape shared by the list-bearing features.
type ListChanged struct {
	ListChanged bool `json:"listChanged"`
}

// ResourcesCapability adds subscriptions to ListChanged.
type ResourcesCapability struct {
	ListChanged bool `json:"listChanged"`
	Subscribe   bool `json:"subscribe"`
}

// ClientCapabilities is what the client advertises. The explorer only
// answers roots/list.
type ClientCapabilities struct {
	Roots *ListChanged `json:"roots,omitempty"`
}

// ServerCapabilities is what the server advertises. Servers may list a
// category without advertising it, so discovery never relies on these.
type ServerCapabilities struct {
	Logging     *struct{}            `json:"logging,omitempty"`
	Completions *struct{}            `json:"completions,omitempty"`
	Tools       *ListChanged         `json:"tools,omitempty"`
	Resources   *ResourcesCapability `json:"resources,omitempty"`
	Prompts     *ListChanged         `json:"prompts,omitempty"`
}

// LoggingLevel is a syslog severity used by notifications/message.
type LoggingLevel string

const (
	LoggingLevelDebug     LoggingLevel = "debug"
	LoggingLevelInfo      LoggingLevel = "info"
	LoggingLevelNotice    LoggingLevel = "notice"
	LoggingLevelWarning   LoggingLevel = "warning"
	LoggingLevelError     LoggingLevel = "error"
	LoggingLevelCritical  LoggingLevel = "critical"
	LoggingLevelAlert     LoggingLevel = "alert"
	LoggingLevelEmergency LoggingLevel = "emergency"
)

// Tool is a tools/list entry. InputSchema is kept raw: servers publish
// arbitrary JSON Schema and consumers project what they need.
type Tool struct {
	Name        string          `json:"name"`
	Title       string          `json:"title,omitzero"`
	Description string          `json:"description,omitzero"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Resource is a resources/list entry.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Title       string `json:"title,omitzero"`
	Description string `json:"description,omitzero"`
	MimeType    string `json:"mimeType,omitzero"`
}

// ResourceTemplate is a resources/templates/list entry.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Title       string `json:"title,omitzero"`
	Description string `json:"description,omitzero"`
	MimeType    string `json:"mimeType,omitzero"`
}

// Prompt is a prompts/list entry.
type Prompt struct {
	Name        string           `json:"name"`
	Title       string           `json:"title,omitzero"`
	Description string           `json:"description,omitzero"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	Required    bool   `json:"required,omitzero"`
}

// Root is a roots/list entry.
type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitzero"`
}

// Content block types.
const (
	ContentTypeText         = "text"
	ContentTypeImage        = "image"
	ContentTypeAudio        = "audio"
	ContentTypeResource     = "resource"
	ContentTypeResourceLink = "resource_link"
)

// ContentBlock is one part of a tool result. Which fields are set depends
// on Type: Text for text; Data and MimeType for image and audio; Resource
// for an embedded resource; URI, Name and Description for a resource link.
type ContentBlock struct {
	Type        string            `json:"type"`
	Text        string            `json:"text,omitzero"`
	Data        string            `json:"data,omitzero"`
	MimeType    string            `json:"mimeType,omitzero"`
	Resource    *ResourceContents `json:"resource,omitempty"`
	URI         string            `json:"uri,omitzero"`
	Name        string            `json:"name,omitzero"`
	Description string            `json:"description,omitzero"`
}

// ResourceContents is an embedded resource: Text or base64 Blob.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitzero"`
	Text     string `json:"text,omitzero"`
	Blob     string `json:"blob,omitzero"`
}
