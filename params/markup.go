package params

import (
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"
)

var paramsBlock = regexp.MustCompile(`(?s)<params(?:\s[^>]*)?>.*</params>`)

var errEmptyMarkup = errors.New("markup contains no elements")

// Node is one element of a parsed markup tree.
type Node struct {
	Name     string
	Text     string
	Children []*Node
}

// Child returns the first direct child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Find returns the first descendant (depth-first, including n) with the given name.
func (n *Node) Find(name string) (*Node, bool) {
	if n.Name == name {
		return n, true
	}
	for _, c := range n.Children {
		if found, ok := c.Find(name); ok {
			return found, true
		}
	}
	return nil, false
}

// Field parses markup and returns the text of the first element named name,
// or "" when the markup is unparseable or has no such element.
func Field(markup, name string) string {
	root, err := ParseMarkup(markup)
	if err != nil {
		return ""
	}
	if n, ok := root.Find(name); ok {
		return n.Text
	}
	return ""
}

// ParseMarkup parses a lenient markup fragment into a tree. The returned node
// is the first top-level element. Unknown entities and mismatched end tags are
// tolerated; truncated input is an error.
func ParseMarkup(s string) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(s))
	dec.Strict = false

	root := &Node{}
	stack := []*Node{root}
	texts := []*strings.Builder{{}}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
			stack = append(stack, n)
			texts = append(texts, &strings.Builder{})
		case xml.EndElement:
			if len(stack) > 1 {
				top := len(stack) - 1
				stack[top].Text = strings.TrimSpace(texts[top].String())
				stack, texts = stack[:top], texts[:top]
			}
		case xml.CharData:
			texts[len(texts)-1].Write(t)
		}
	}

	if len(root.Children) == 0 {
		return nil, errEmptyMarkup
	}

	return root.Children[0], nil
}

// extractMarkup normalizes "<params><ACTION><name>value</name></ACTION></params>".
// The params block may be embedded in surrounding text; a fragment without a
// params root is wrapped in one.
func extractMarkup(raw string) Extracted {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Extracted{}
	}

	if block := paramsBlock.FindString(s); block != "" {
		s = block
	} else {
		s = "<params>" + s + "</params>"
	}

	root, err := ParseMarkup(s)
	if err != nil {
		return Extracted{}
	}

	out := Extracted{}

	for _, action := range root.Children {
		key := strings.ToUpper(action.Name)
		out[key] = append(out[key], nodeBlock(action))
	}

	return out
}

// nodeBlock converts an element's children into a parameter block. Leaf text
// is coerced; nested elements become maps; repeated names become lists.
func nodeBlock(n *Node) map[string]any {
	block := make(map[string]any, len(n.Children))
	seen := make(map[string]int, len(n.Children))

	for _, c := range n.Children {
		var v any
		if len(c.Children) == 0 {
			v = Coerce(c.Text)
		} else {
			v = nodeBlock(c)
		}

		seen[c.Name]++
		switch seen[c.Name] {
		case 1:
			block[c.Name] = v
		case 2:
			block[c.Name] = []any{block[c.Name], v}
		default:
			block[c.Name] = append(block[c.Name].([]any), v)
		}
	}

	return block
}
