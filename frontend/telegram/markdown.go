package telegram

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// MarkdownToHTML converts the agent's Markdown reply to the HTML subset
// Telegram accepts: <b>, <i>, <s>, <code>, <pre>, <a>, <blockquote>.
// Headings become bold lines, lists become bullet/numbered lines, and
// anything unsupported degrades to escaped text.
func MarkdownToHTML(md string) string {
	gm := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough),
		goldmark.WithRenderer(renderer.NewRenderer(
			renderer.WithNodeRenderers(util.Prioritized(&htmlRenderer{}, 1)),
		)),
	)

	var buf bytes.Buffer
	if err := gm.Convert([]byte(md), &buf); err != nil {
		return escape(md)
	}
	return strings.TrimSpace(buf.String())
}

// escape escapes &, < and > for Telegram HTML.
func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// htmlRenderer emits Telegram HTML for the Markdown constructs the relay
// cares about. Ordered-list numbering is tracked per nesting level so a
// nested list does not reset its parent's counter.
type htmlRenderer struct {
	counters []int // one slot per open list; 0 marks an unordered list
}

func (r *htmlRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	for kind, fn := range map[ast.NodeKind]renderer.NodeRendererFunc{
		ast.KindDocument:         passthrough,
		ast.KindHeading:          wrap("\n<b>", "</b>\n"),
		ast.KindParagraph:        closeWith("\n"),
		ast.KindTextBlock:        r.renderTextBlock,
		ast.KindBlockquote:       wrap("<blockquote>", "</blockquote>"),
		ast.KindFencedCodeBlock:  r.renderCode,
		ast.KindCodeBlock:        r.renderCode,
		ast.KindList:             r.renderList,
		ast.KindListItem:         r.renderListItem,
		ast.KindThematicBreak:    r.renderBreak,
		ast.KindHTMLBlock:        r.renderRawBlock,
		ast.KindText:             r.renderText,
		ast.KindString:           r.renderString,
		ast.KindCodeSpan:         wrap("<code>", "</code>"),
		ast.KindEmphasis:         r.renderEmphasis,
		ast.KindLink:             r.renderLink,
		ast.KindAutoLink:         r.renderAutoLink,
		ast.KindImage:            r.renderImage,
		ast.KindRawHTML:          r.renderRawInline,
		extast.KindStrikethrough: wrap("<s>", "</s>"),
	} {
		reg.Register(kind, fn)
	}
}

func passthrough(_ util.BufWriter, _ []byte, _ ast.Node, _ bool) (ast.WalkStatus, error) {
	return ast.WalkContinue, nil
}

// wrap emits open on entry and closing on exit.
func wrap(open, closing string) renderer.NodeRendererFunc {
	return func(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			_, _ = w.WriteString(open)
		} else {
			_, _ = w.WriteString(closing)
		}
		return ast.WalkContinue, nil
	}
}

// closeWith emits s on exit only.
func closeWith(s string) renderer.NodeRendererFunc {
	return func(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			_, _ = w.WriteString(s)
		}
		return ast.WalkContinue, nil
	}
}

func (r *htmlRenderer) renderCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		if lang := fenced.Language(source); len(lang) > 0 {
			_, _ = fmt.Fprintf(w, "<pre><code class=\"language-%s\">", escape(string(lang)))
		} else {
			_, _ = w.WriteString("<pre><code>")
		}
	} else {
		_, _ = w.WriteString("<pre><code>")
	}
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.WriteString(escape(string(seg.Value(source))))
	}
	_, _ = w.WriteString("</code></pre>")
	return ast.WalkSkipChildren, nil
}

func (r *htmlRenderer) renderList(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*ast.List)
		start := 0
		if n.IsOrdered() {
			start = n.Start
			if start == 0 {
				start = 1
			}
		}
		r.counters = append(r.counters, start)
	} else if len(r.counters) > 0 {
		r.counters = r.counters[:len(r.counters)-1]
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderListItem(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("\n")
		return ast.WalkContinue, nil
	}
	if indent := len(r.counters) - 1; indent > 0 {
		_, _ = w.WriteString(strings.Repeat("  ", indent))
	}
	if len(r.counters) > 0 && r.counters[len(r.counters)-1] > 0 {
		_, _ = fmt.Fprintf(w, "%d. ", r.counters[len(r.counters)-1])
		r.counters[len(r.counters)-1]++
	} else {
		_, _ = w.WriteString("• ")
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderTextBlock(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	// List items terminate their own lines.
	if !entering && node.Parent() != nil && node.Parent().Kind() != ast.KindListItem {
		_, _ = w.WriteString("\n")
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderBreak(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("\n—\n")
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderRawBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	// Raw HTML from the agent is not trusted as Telegram HTML; show it.
	if entering {
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			_, _ = w.WriteString(escape(string(seg.Value(source))))
		}
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderText(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Text)
	_, _ = w.WriteString(escape(string(n.Segment.Value(source))))
	if n.SoftLineBreak() || n.HardLineBreak() {
		_, _ = w.WriteString("\n")
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderString(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(escape(string(node.(*ast.String).Value)))
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderEmphasis(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	tag := "i"
	if node.(*ast.Emphasis).Level == 2 {
		tag = "b"
	}
	if entering {
		_, _ = fmt.Fprintf(w, "<%s>", tag)
	} else {
		_, _ = fmt.Fprintf(w, "</%s>", tag)
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderLink(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = fmt.Fprintf(w, "<a href=\"%s\">", escape(string(node.(*ast.Link).Destination)))
	} else {
		_, _ = w.WriteString("</a>")
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderAutoLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		url := escape(string(node.(*ast.AutoLink).URL(source)))
		_, _ = fmt.Fprintf(w, "<a href=\"%s\">%s</a>", url, url)
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderImage(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	// Telegram HTML has no inline images; link to it instead.
	if entering {
		_, _ = fmt.Fprintf(w, "<a href=\"%s\">", escape(string(node.(*ast.Image).Destination)))
	} else {
		_, _ = w.WriteString("</a>")
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderRawInline(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*ast.RawHTML)
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			_, _ = w.WriteString(escape(string(seg.Value(source))))
		}
	}
	return ast.WalkContinue, nil
}
