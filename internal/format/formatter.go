// Package format normalizes generated TypeScript so registry diffs stay
// small and reviewable. The built-in formatter re-indents by bracket depth,
// normalizes quotes and trailing commas and cleans up whitespace. An
// external formatter command can be chained after it.
package format

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/integreat-cms/featurereg/internal/compiler/lexer"
)

// Formatter formats TypeScript source code
type Formatter struct {
	config *Config
}

// New creates a new Formatter with the given configuration
func New(config *Config) *Formatter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Formatter{config: config}
}

// Format runs the built-in formatter and then the configured external
// command, if any
func (f *Formatter) Format(ctx context.Context, source string) (string, error) {
	formatted, err := f.FormatSource(source)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(f.config.Command) == "" {
		return formatted, nil
	}
	return runCommand(ctx, f.config.Command, formatted)
}

// edit replaces del runes at col (0-based) with insert
type edit struct {
	col    int
	del    int
	insert string
}

// opener is an unclosed bracket
type opener struct {
	tok     lexer.Token
	literal bool // object or array literal
	restEnd bool // the last element is a ...rest element
}

// layout collects what the token pass learned about each line. depth is
// counted in indentation levels.
type layout struct {
	depth    []int
	verbatim []bool // inside a multi-line template or string
	comment  []bool // continuation of a multi-line block comment
	edits    map[int][]edit
}

// FormatSource runs the built-in formatter only
func (f *Formatter) FormatSource(source string) (string, error) {
	source = strings.TrimPrefix(source, "\ufeff")
	source = strings.ReplaceAll(source, "\r\n", "\n")

	l := lexer.New(source)
	l.SetPreserveComments(true)
	tokens, lexErrors := l.ScanTokens()
	if len(lexErrors) > 0 {
		return "", fmt.Errorf("cannot format source: %w", lexErrors[0])
	}

	lines := strings.Split(source, "\n")
	lay := f.analyze(tokens, len(lines))
	return f.render(lines, lay), nil
}

// analyze walks the token stream once, tracking bracket depth per line and
// collecting quote and trailing comma edits
//
//nolint:gocyclo // Token dispatch
func (f *Formatter) analyze(tokens []lexer.Token, lineCount int) *layout {
	lay := &layout{
		depth:    make([]int, lineCount),
		verbatim: make([]bool, lineCount),
		comment:  make([]bool, lineCount),
		edits:    make(map[int][]edit),
	}

	var stack []*opener
	var prev *lexer.Token
	nextLine := 0

	for i := range tokens {
		tok := tokens[i]
		if tok.Type == lexer.TOKEN_EOF {
			break
		}
		line := tok.Line - 1

		if line >= nextLine {
			for j := nextLine; j < line && j < lineCount; j++ {
				lay.depth[j] = levels(stack, tok.Line)
			}
			limit := tok.Line
			if isCloser(tok.Type) && len(stack) > 0 {
				// a leading closer lines up with the line that opened it
				limit = stack[len(stack)-1].tok.Line
			}
			lay.depth[line] = levels(stack, limit)
			nextLine = line + 1
		}

		if n := strings.Count(tok.Lexeme, "\n"); n > 0 {
			for j := line + 1; j <= line+n && j < lineCount; j++ {
				if tok.Type == lexer.TOKEN_COMMENT {
					lay.comment[j] = true
				} else {
					lay.verbatim[j] = true
				}
				lay.depth[j] = levels(stack, tok.Line+1)
			}
			nextLine = line + n + 1
		}

		switch tok.Type {
		case lexer.TOKEN_LBRACE, lexer.TOKEN_LBRACKET, lexer.TOKEN_LPAREN:
			stack = append(stack, &opener{tok: tok, literal: isLiteralOpener(tok, prev, stack)})

		case lexer.TOKEN_RBRACE, lexer.TOKEN_RBRACKET, lexer.TOKEN_RPAREN:
			if len(stack) == 0 {
				break
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.literal && prev != nil && prev.Line < tok.Line {
				f.trailingComma(lay, top, prev)
			}

		case lexer.TOKEN_ELLIPSIS:
			if top := topOf(stack); top != nil && prev != nil &&
				(prev.Type == lexer.TOKEN_COMMA || sameToken(*prev, top.tok)) {
				top.restEnd = true
			}

		case lexer.TOKEN_COMMA:
			if top := topOf(stack); top != nil {
				top.restEnd = false
			}

		case lexer.TOKEN_STRING_LITERAL:
			if converted, ok := f.convertQuotes(tok.Lexeme); ok {
				lay.edits[line] = append(lay.edits[line], edit{
					col:    tok.Column - 1,
					del:    utf8.RuneCountInString(tok.Lexeme),
					insert: converted,
				})
			}
		}

		if tok.Type != lexer.TOKEN_COMMENT {
			prev = &tokens[i]
		}
	}

	for j := nextLine; j < lineCount; j++ {
		lay.depth[j] = levels(stack, j+2)
	}
	return lay
}

// trailingComma adds or removes the comma after the last element of a
// multi-line literal
func (f *Formatter) trailingComma(lay *layout, top *opener, last *lexer.Token) {
	if sameToken(*last, top.tok) {
		return
	}

	if !f.config.TrailingComma {
		if last.Type == lexer.TOKEN_COMMA {
			line := last.Line - 1
			lay.edits[line] = append(lay.edits[line], edit{col: last.Column - 1, del: 1})
		}
		return
	}

	switch last.Type {
	case lexer.TOKEN_COMMA, lexer.TOKEN_SEMICOLON:
		return
	}
	if top.restEnd {
		return
	}

	line, col := tokenEnd(*last)
	lay.edits[line] = append(lay.edits[line], edit{col: col, insert: ","})
}

// convertQuotes rewrites a single-line string literal to the configured
// quote style when its content contains no quote characters
func (f *Formatter) convertQuotes(lexeme string) (string, bool) {
	want := byte('"')
	if f.config.Quote == QuoteSingle {
		want = '\''
	}
	if len(lexeme) < 2 || lexeme[0] == want || strings.Contains(lexeme, "\n") {
		return "", false
	}
	inner := lexeme[1 : len(lexeme)-1]
	if strings.ContainsAny(inner, `"'`) {
		return "", false
	}
	return string(want) + inner + string(want), true
}

// render writes the re-indented lines
func (f *Formatter) render(lines []string, lay *layout) string {
	var out []string
	blank := 0

	for i, raw := range lines {
		line := applyEdits(raw, lay.edits[i])

		if lay.verbatim[i] {
			out = append(out, line)
			blank = 0
			continue
		}

		text := strings.TrimSpace(line)
		if text == "" {
			blank++
			if blank > 1 || len(out) == 0 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0

		depth := lay.depth[i]
		if lay.comment[i] && strings.HasPrefix(text, "*") {
			text = " " + text
		}
		out = append(out, f.indent(depth)+text)
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

func (f *Formatter) indent(depth int) string {
	if f.config.UseTabs {
		return strings.Repeat("\t", depth)
	}
	return strings.Repeat(" ", depth*f.config.IndentSize)
}

// applyEdits applies edits right to left so earlier columns stay valid
func applyEdits(line string, edits []edit) string {
	if len(edits) == 0 {
		return line
	}
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].col > edits[j].col
	})

	runes := []rune(line)
	for _, e := range edits {
		if e.col > len(runes) || e.col+e.del > len(runes) {
			continue
		}
		tail := append([]rune(e.insert), runes[e.col+e.del:]...)
		runes = append(runes[:e.col], tail...)
	}
	return string(runes)
}

// isLiteralOpener decides whether a bracket opens an object or array
// literal, where trailing commas are allowed, rather than a block, call,
// index or type
func isLiteralOpener(tok lexer.Token, prev *lexer.Token, stack []*opener) bool {
	if prev == nil {
		return tok.Type == lexer.TOKEN_LBRACKET
	}

	switch tok.Type {
	case lexer.TOKEN_LBRACKET:
		switch prev.Type {
		case lexer.TOKEN_IDENTIFIER, lexer.TOKEN_RPAREN, lexer.TOKEN_RBRACKET, lexer.TOKEN_RBRACE,
			lexer.TOKEN_STRING_LITERAL, lexer.TOKEN_TEMPLATE, lexer.TOKEN_NUMBER, lexer.TOKEN_OPT_CHAIN:
			return false
		}
		return !lexer.ContextualKeywords[prev.Type]

	case lexer.TOKEN_LBRACE:
		switch prev.Type {
		case lexer.TOKEN_EQUALS, lexer.TOKEN_LPAREN, lexer.TOKEN_LBRACKET, lexer.TOKEN_COMMA,
			lexer.TOKEN_QUESTION, lexer.TOKEN_RETURN:
			return true
		case lexer.TOKEN_COLON:
			// property values nest; case labels and type annotations do not
			top := topOf(stack)
			return top != nil && top.literal
		}
	}
	return false
}

func isCloser(t lexer.TokenType) bool {
	return t == lexer.TOKEN_RBRACE || t == lexer.TOKEN_RBRACKET || t == lexer.TOKEN_RPAREN
}

// levels counts the distinct lines holding the unclosed brackets opened
// before line (1-based). Brackets opened on the same line add one level.
func levels(stack []*opener, line int) int {
	count, last := 0, 0
	for _, o := range stack {
		if o.tok.Line >= line {
			break
		}
		if o.tok.Line != last {
			count++
			last = o.tok.Line
		}
	}
	return count
}

func topOf(stack []*opener) *opener {
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

func sameToken(a, b lexer.Token) bool {
	return a.Line == b.Line && a.Column == b.Column
}

// tokenEnd returns the 0-based line and rune column just past tok
func tokenEnd(tok lexer.Token) (int, int) {
	line := tok.Line - 1
	lexeme := tok.Lexeme
	if i := strings.LastIndex(lexeme, "\n"); i >= 0 {
		return line + strings.Count(lexeme, "\n"), utf8.RuneCountInString(lexeme[i+1:])
	}
	return line, tok.Column - 1 + utf8.RuneCountInString(lexeme)
}
