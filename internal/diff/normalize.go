package diff

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// normalizeMarkup canonicalizes an HTML fragment so that re-renders which
// only shuffle attribute order or whitespace serialize identically:
// tag names lowercased, attributes sorted by name, runs of whitespace in
// text collapsed to a single space. Substantive changes (different tag,
// attribute value, or text) still produce a different string.
//
// Parse failures fall back to whitespace-collapsing the raw input; a scan
// producer handing us non-HTML gets a stable, if coarser, token.
func normalizeMarkup(markup string) string {
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil || len(nodes) == 0 {
		return collapseSpace(markup)
	}

	var b strings.Builder
	for _, n := range nodes {
		writeCanonical(&b, n)
	}
	return b.String()
}

func writeCanonical(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if t := collapseSpace(n.Data); t != "" {
			b.WriteString(t)
		}
	case html.ElementNode:
		b.WriteByte('<')
		b.WriteString(strings.ToLower(n.Data))
		attrs := make([]html.Attribute, len(n.Attr))
		copy(attrs, n.Attr)
		sort.Slice(attrs, func(i, j int) bool {
			if attrs[i].Key != attrs[j].Key {
				return attrs[i].Key < attrs[j].Key
			}
			return attrs[i].Val < attrs[j].Val
		})
		for _, a := range attrs {
			b.WriteByte(' ')
			b.WriteString(strings.ToLower(a.Key))
			b.WriteString(`="`)
			b.WriteString(a.Val)
			b.WriteByte('"')
		}
		b.WriteByte('>')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeCanonical(b, c)
		}
		b.WriteString("</")
		b.WriteString(strings.ToLower(n.Data))
		b.WriteByte('>')
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeCanonical(b, c)
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
