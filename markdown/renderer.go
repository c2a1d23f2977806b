package markdown

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/parleyhq/parley"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// renderer walks the goldmark AST and writes styled terminal output.
type renderer struct {
	width  int
	bold   lipgloss.Style
	italic lipgloss.Style
	code   lipgloss.Style
	head   lipgloss.Style
	muted  lipgloss.Style
	link   lipgloss.Style
	wrap   lipgloss.Style
}

func newRenderer(theme parley.Theme, width int) *renderer {
	return &renderer{
		width:  width,
		bold:   lipgloss.NewStyle().Bold(true),
		italic: lipgloss.NewStyle().Italic(true),
		code:   lipgloss.NewStyle().Bold(true),
		head:   lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:  lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		link:   lipgloss.NewStyle().Underline(true),
		wrap:   lipgloss.NewStyle().Width(width),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *renderer) render(source []byte) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var sb strings.Builder
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		r.block(&sb, child, source, 0)
		if child.NextSibling() != nil {
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// block renders one block-level node followed by a trailing newline.
func (r *renderer) block(sb *strings.Builder, node ast.Node, source []byte, depth int) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		sb.WriteString(r.wrap.Render(r.inline(node, source)))
		sb.WriteString("\n")

	case *ast.Heading:
		sb.WriteString(r.wrap.Render(r.head.Render(r.inline(n, source))))
		sb.WriteString("\n")

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			sb.WriteString(r.muted.Render(lang))
			sb.WriteString("\n")
		}
		r.codeLines(sb, n.Lines(), source)

	case *ast.CodeBlock:
		r.codeLines(sb, n.Lines(), source)

	case *ast.List:
		r.list(sb, n, source, depth)

	case *ast.Blockquote:
		var inner strings.Builder
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.block(&inner, c, source, depth)
		}
		prefix := r.muted.Render("│") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			sb.WriteString(prefix + line + "\n")
		}

	case *ast.ThematicBreak:
		sb.WriteString(r.muted.Render(strings.Repeat("─", min(r.width, 24))))
		sb.WriteString("\n")

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.block(sb, c, source, depth)
		}
	}
}

// codeLines writes code content verbatim behind a gutter, never reflowed.
func (r *renderer) codeLines(sb *strings.Builder, lines *text.Segments, source []byte) {
	gutter := r.muted.Render("│") + " "
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.WriteString(gutter)
		sb.WriteString(strings.TrimRight(string(seg.Value(source)), "\n"))
		sb.WriteString("\n")
	}
}

func (r *renderer) list(sb *strings.Builder, node *ast.List, source []byte, depth int) {
	indent := strings.Repeat("  ", depth)
	number := node.Start

	for item := node.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", number)
			number++
		}

		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				r.list(sb, sub, source, depth+1)
				continue
			}
			prefix := indent + marker
			if !first {
				prefix = strings.Repeat(" ", len(prefix))
			}
			r.listLine(sb, prefix, c, source, depth)
			first = false
		}
	}
}

// listLine renders one block of a list item, indenting continuation lines
// under the marker.
func (r *renderer) listLine(sb *strings.Builder, prefix string, node ast.Node, source []byte, depth int) {
	itemWidth := r.width - len(prefix)
	if itemWidth < 10 {
		itemWidth = 10
	}
	var content string
	switch node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		content = lipgloss.NewStyle().Width(itemWidth).Render(r.inline(node, source))
	default:
		var inner strings.Builder
		r.block(&inner, node, source, depth)
		content = strings.TrimRight(inner.String(), "\n")
	}
	continuation := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(content, "\n") {
		if i == 0 {
			sb.WriteString(prefix + line + "\n")
		} else {
			sb.WriteString(continuation + line + "\n")
		}
	}
}

// inline collects the styled text of a node's inline children.
func (r *renderer) inline(node ast.Node, source []byte) string {
	var sb strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.inlineNode(&sb, c, source)
	}
	return sb.String()
}

func (r *renderer) inlineNode(sb *strings.Builder, node ast.Node, source []byte) {
	switch n := node.(type) {
	case *ast.Text:
		sb.Write(n.Segment.Value(source))
		if n.SoftLineBreak() {
			sb.WriteByte(' ')
		}
		if n.HardLineBreak() {
			sb.WriteByte('\n')
		}

	case *ast.String:
		sb.Write(n.Value)

	case *ast.Emphasis:
		inner := r.inline(n, source)
		if n.Level == 1 {
			sb.WriteString(r.italic.Render(inner))
		} else {
			sb.WriteString(r.bold.Render(inner))
		}

	case *ast.CodeSpan:
		sb.WriteString(r.code.Render(r.inline(n, source)))

	case *ast.Link:
		sb.WriteString(r.link.Render(r.inline(n, source)))
		sb.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))

	case *ast.AutoLink:
		sb.WriteString(r.link.Render(string(n.URL(source))))

	case *ast.Image:
		sb.WriteString(r.link.Render(r.inline(n, source)))
		sb.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.inlineNode(sb, c, source)
		}
	}
}
