package vocab

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLSource reads a glossary page: every <dt> is a term and the <dd>
// elements that follow it, up to the next <dt>, form its definition.
type HTMLSource struct {
	Path string
}

// Load implements Source.
func (s HTMLSource) Load(ctx context.Context) ([]Entry, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()

	entries, err := ParseGlossary(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return entries, nil
}

// ParseGlossary extracts <dt>/<dd> pairs from an HTML document.
func ParseGlossary(r io.Reader) ([]Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Dl {
			entries = append(entries, definitionList(n)...)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return entries, nil
}

func definitionList(dl *html.Node) []Entry {
	var entries []Entry
	var current *Entry
	var defs []string

	flush := func() {
		if current != nil && current.Term != "" {
			current.Definition = strings.Join(defs, " ")
			entries = append(entries, *current)
		}
		current = nil
		defs = nil
	}

	for c := dl.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Dt:
			flush()
			current = &Entry{Term: textContent(c)}
		case atom.Dd:
			if current != nil {
				if text := textContent(c); text != "" {
					defs = append(defs, text)
				}
			}
		}
	}
	flush()
	return entries
}

// textContent returns the whitespace-collapsed text below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
