// Package explorer enumerates what an MCP server offers and invokes its
// tools.
//
// DiscoverAll issues the four list queries (tools, resources, prompts and
// resource templates) and assembles a Report. A category whose query fails
// is left empty and reported through OnCategoryError; the others are
// unaffected. Invoke calls one tool with arguments given as a JSON object
// and returns the result's content blocks.
package explorer
