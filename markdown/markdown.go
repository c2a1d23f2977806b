// Package markdown renders assistant replies to ANSI-styled terminal
// output, using goldmark for parsing and lipgloss for styling.
package markdown

import "github.com/parleyhq/parley"

// Render parses markdown source and returns ANSI-styled terminal output
// wrapped to width. Code blocks keep their original line breaks and are
// never reflowed.
func Render(source string, width int, theme parley.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	return newRenderer(theme, width).render([]byte(source))
}
