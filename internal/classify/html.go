package classify

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText reduces an HTML email body to its visible text. Bodies that do
// not look like HTML are returned unchanged.
func PlainText(body string) string {
	if !looksLikeHTML(body) {
		return body
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return body
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head":
				return
			case "br", "p", "div", "li", "tr", "h1", "h2", "h3":
				sb.WriteByte('\n')
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return collapseBlankLines(sb.String())
}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body") ||
		strings.Contains(lower, "<p>") || strings.Contains(lower, "<div") || strings.Contains(lower, "<br")
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
