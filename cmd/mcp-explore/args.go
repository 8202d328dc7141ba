package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// normalizeArgs rewrites every "--call-tool NAME JSON" triple into
// "--call-tool=NAME --call-args=JSON" and moves it to the front of the
// line, so it also works after a stdio server command. A --call-tool
// followed by a single value keeps the default arguments; a subcommand
// name is never taken as the arguments value. Nothing after a bare "--" is
// touched.
func normalizeArgs(args []string, subcommands []string) []string {
	var hoisted, rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			rest = append(rest, args[i:]...)
			return append(hoisted, rest...)
		case arg == "--call-tool" && i+2 < len(args) && !isFlag(args[i+2]) && !slices.Contains(subcommands, args[i+2]):
			hoisted = append(hoisted, "--call-tool="+args[i+1], "--call-args="+args[i+2])
			i += 2
		case arg == "--call-tool" && i+1 < len(args):
			hoisted = append(hoisted, "--call-tool="+args[i+1])
			i++
		case strings.HasPrefix(arg, "--call-tool="):
			hoisted = append(hoisted, arg)
		default:
			rest = append(rest, arg)
		}
	}
	return append(hoisted, rest...)
}

// isFlag reports whether s looks like a long option. JSON arguments never
// start with "--".
func isFlag(s string) bool {
	return strings.HasPrefix(s, "--")
}

// parseHeaders turns KEY=VALUE pairs into a header map. Keys and values
// are trimmed; entries without "=" are skipped with a warning.
func parseHeaders(warn io.Writer, pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	headers := make(map[string]string, len(pairs))
	for _, h := range pairs {
		k, v, ok := strings.Cut(h, "=")
		if !ok {
			fmt.Fprintf(warn, "Warning: skipping malformed header (no '='): %s\n", h)
			continue
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers
}
