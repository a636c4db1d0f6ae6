package application

import (
	"bytes"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// excerptLength is the maximum number of runes in a mention excerpt.
const excerptLength = 200

var (
	mentionPattern = regexp.MustCompile(`@([A-Za-z0-9][A-Za-z0-9-]{0,38})`)

	markdown      = goldmark.New(goldmark.WithExtensions(extension.GFM))
	plainSanitize = bluemonday.StrictPolicy()
)

// ExtractMentionLogins returns the lowercase logins @mentioned in a markdown
// comment body, in order of first appearance. Mentions inside code spans,
// code blocks, and raw HTML are ignored, as are e-mail addresses and team
// mentions (@org/team).
func ExtractMentionLogins(body string) []string {
	if !strings.Contains(body, "@") {
		return nil
	}

	src := maskNonProse([]byte(body))

	seen := make(map[string]bool)
	var logins []string
	for _, m := range mentionPattern.FindAllSubmatchIndex(src, -1) {
		start, end := m[0], m[1]
		if start > 0 && isMentionBoundaryBlocker(src[start-1]) {
			continue
		}
		if end < len(src) && src[end] == '/' {
			continue
		}
		login := strings.ToLower(strings.TrimRight(string(src[m[2]:m[3]]), "-"))
		if login == "" || seen[login] {
			continue
		}
		seen[login] = true
		logins = append(logins, login)
	}
	return logins
}

func isMentionBoundaryBlocker(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '/' || c == '@' || c == '.' || c == '`' || c == '-':
		return true
	}
	return false
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// maskNonProse returns a copy of src with code and raw HTML replaced by spaces.
func maskNonProse(src []byte) []byte {
	masked := append([]byte(nil), src...)
	blank := func(seg text.Segment) {
		for i := seg.Start; i < seg.Stop && i < len(masked); i++ {
			if masked[i] != '\n' {
				masked[i] = ' '
			}
		}
	}
	blankLines := func(lines *text.Segments) {
		if lines == nil {
			return
		}
		for i := 0; i < lines.Len(); i++ {
			blank(lines.At(i))
		}
	}

	doc := markdown.Parser().Parse(text.NewReader(src))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.CodeSpan:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					blank(t.Segment)
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			blankLines(node.Lines())
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			blankLines(node.Lines())
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock:
			blankLines(node.Lines())
			if node.HasClosure() {
				blank(node.ClosureLine)
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			blankLines(node.Segments)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return masked
}

// Excerpt returns a short single-line plain-text rendering of a markdown body.
func Excerpt(body string) string {
	var buf bytes.Buffer
	rendered := body
	if err := markdown.Convert([]byte(body), &buf); err == nil {
		rendered = buf.String()
	}

	plain := html.UnescapeString(plainSanitize.Sanitize(rendered))
	plain = strings.Join(strings.Fields(plain), " ")

	if utf8.RuneCountInString(plain) <= excerptLength {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:excerptLength])) + "…"
}
