// Package markdown renders the small markdown subset the chat model produces: fenced
// code, headers, bullet and numbered lists, and inline bold, italic, code and links.
// Emphasis does not nest; at each position the first matching rule wins.
package markdown

import "strings"

type TokenKind int

const (
	TokenText TokenKind = iota
	TokenBold
	TokenItalic
	TokenCode
	TokenLink
)

type Token struct {
	Kind TokenKind
	Text string
	URL  string
}

type lexState int

const (
	stateText lexState = iota
	stateBold
	stateItalic
	stateCode
	stateLink
)

type lexer struct {
	src    string
	pos    int
	state  lexState
	tokens []Token
}

// Tokenize scans one line left to right. Priority at each position: bold, italic,
// inline code, link; anything else is literal text up to the next special character.
func Tokenize(line string) []Token {
	l := &lexer{src: line}
	for l.pos < len(l.src) {
		switch l.state {
		case stateText:
			l.state = l.lexText()
		case stateBold:
			l.state = l.lexDelimited(TokenBold, "**", "**")
		case stateItalic:
			l.state = l.lexDelimited(TokenItalic, "*", "*")
		case stateCode:
			l.state = l.lexDelimited(TokenCode, "`", "`")
		case stateLink:
			l.state = l.lexLink()
		}
	}
	return l.tokens
}

func (l *lexer) rest() string {
	return l.src[l.pos:]
}

// lexText picks the next state. A special character only opens a span when the span
// closes on this line with non-empty content; otherwise it is literal.
func (l *lexer) lexText() lexState {
	rest := l.rest()
	switch {
	case strings.HasPrefix(rest, "**") && closes(rest[2:], "**"):
		return stateBold
	case strings.HasPrefix(rest, "*") && !strings.HasPrefix(rest, "**") && closes(rest[1:], "*"):
		return stateItalic
	case strings.HasPrefix(rest, "`") && closes(rest[1:], "`"):
		return stateCode
	case strings.HasPrefix(rest, "[") && isLink(rest):
		return stateLink
	}

	// Literal run: at least one byte, then up to the next special character.
	end := 1
	if i := strings.IndexAny(rest[1:], "*`["); i >= 0 {
		end += i
	} else {
		end = len(rest)
	}
	l.emitText(rest[:end])
	l.pos += end
	return stateText
}

func (l *lexer) lexDelimited(kind TokenKind, open, close string) lexState {
	body := l.rest()[len(open):]
	i := strings.Index(body, close)
	l.tokens = append(l.tokens, Token{Kind: kind, Text: body[:i]})
	l.pos += len(open) + i + len(close)
	return stateText
}

func (l *lexer) lexLink() lexState {
	rest := l.rest()
	textEnd := strings.Index(rest, "](")
	urlEnd := strings.IndexByte(rest[textEnd+2:], ')')
	l.tokens = append(l.tokens, Token{
		Kind: TokenLink,
		Text: rest[1:textEnd],
		URL:  rest[textEnd+2 : textEnd+2+urlEnd],
	})
	l.pos += textEnd + 2 + urlEnd + 1
	return stateText
}

func (l *lexer) emitText(s string) {
	if n := len(l.tokens); n > 0 && l.tokens[n-1].Kind == TokenText {
		l.tokens[n-1].Text += s
		return
	}
	l.tokens = append(l.tokens, Token{Kind: TokenText, Text: s})
}

func closes(body, delim string) bool {
	i := strings.Index(body, delim)
	return i > 0
}

// isLink reports whether s starts with [text](url), text and url non-empty.
func isLink(s string) bool {
	textEnd := strings.Index(s, "](")
	if textEnd < 2 || strings.ContainsAny(s[1:textEnd], "[]") {
		return false
	}
	urlEnd := strings.IndexByte(s[textEnd+2:], ')')
	return urlEnd > 0
}
