package loader

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// DefaultAttribute is the markup attribute declaring feature modules
const DefaultAttribute = "data-js-module"

// Element is a root element in rendered markup that declares one or more
// feature modules
type Element struct {
	// Index is the position of the element among all declaring elements,
	// in document order
	Index int
	Tag   string
	// ID is the element's id attribute, if any
	ID string
	// Modules are the declared module names, deduplicated, in order
	Modules []string
}

// String identifies the element in diagnostics
func (e *Element) String() string {
	if e.ID != "" {
		return fmt.Sprintf("<%s id=%q>", e.Tag, e.ID)
	}
	return fmt.Sprintf("<%s> #%d", e.Tag, e.Index)
}

// ScanMarkup tokenizes HTML and returns every element carrying attribute.
// The attribute value is a whitespace-separated list of module names; an
// empty value declares nothing and the element is skipped.
func ScanMarkup(r io.Reader, attribute string) ([]*Element, error) {
	if attribute == "" {
		attribute = DefaultAttribute
	}

	var elements []*Element
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("scanning markup: %w", err)
			}
			return elements, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			var id, declared string
			found := false
			for _, attr := range tok.Attr {
				switch attr.Key {
				case "id":
					id = attr.Val
				case attribute:
					declared = attr.Val
					found = true
				}
			}
			if !found {
				continue
			}

			modules := uniqueFields(declared)
			if len(modules) == 0 {
				continue
			}
			elements = append(elements, &Element{
				Index:   len(elements),
				Tag:     tok.Data,
				ID:      id,
				Modules: modules,
			})
		}
	}
}

func uniqueFields(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, field := range strings.Fields(s) {
		if !seen[field] {
			seen[field] = true
			out = append(out, field)
		}
	}
	return out
}
