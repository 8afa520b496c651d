package markdown

import (
	"html"
	"html/template"
	"net/url"
	"regexp"
	"strings"
)

type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeader
	BlockBullet
	BlockNumbered
	BlockCode
	BlockBlank
)

type Block struct {
	Kind   BlockKind
	Level  int    // header level 1-3
	Number string // numbered list marker
	Lang   string // fenced code language
	Code   string
	Inline []Token
}

var numberedItem = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)

// Parse splits text into blocks. Fenced code is cut out first; the remaining lines are
// classified one by one. Blank lines end the current paragraph or list.
func Parse(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var blocks []Block
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if fence, ok := strings.CutPrefix(strings.TrimSpace(line), "```"); ok {
			var code []string
			i++
			for ; i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```"); i++ {
				code = append(code, lines[i])
			}
			blocks = append(blocks, Block{Kind: BlockCode, Lang: strings.TrimSpace(fence), Code: strings.Join(code, "\n")})
			continue
		}
		blocks = append(blocks, parseLine(line))
	}
	return blocks
}

func parseLine(line string) Block {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Block{Kind: BlockBlank}
	}

	for level, prefix := range []string{"# ", "## ", "### "} {
		if rest, ok := strings.CutPrefix(trimmed, prefix); ok {
			return Block{Kind: BlockHeader, Level: level + 1, Inline: Tokenize(rest)}
		}
	}
	for _, prefix := range []string{"- ", "* "} {
		if rest, ok := strings.CutPrefix(trimmed, prefix); ok {
			return Block{Kind: BlockBullet, Inline: Tokenize(rest)}
		}
	}
	if m := numberedItem.FindStringSubmatch(trimmed); m != nil {
		return Block{Kind: BlockNumbered, Number: m[1], Inline: Tokenize(m[2])}
	}
	return Block{Kind: BlockParagraph, Inline: Tokenize(trimmed)}
}

// Render turns markdown text into escaped HTML. Consecutive list items share one list
// and consecutive paragraph lines share one <p>.
func Render(text string) template.HTML {
	blocks := Parse(text)
	var b strings.Builder

	for i := 0; i < len(blocks); i++ {
		blk := blocks[i]
		switch blk.Kind {
		case BlockCode:
			b.WriteString("<pre><code")
			if blk.Lang != "" {
				b.WriteString(` class="language-` + html.EscapeString(blk.Lang) + `"`)
			}
			b.WriteString(">" + html.EscapeString(blk.Code) + "</code></pre>")
		case BlockHeader:
			tag := headerTag(blk.Level)
			b.WriteString("<" + tag + ">")
			writeInline(&b, blk.Inline)
			b.WriteString("</" + tag + ">")
		case BlockBullet, BlockNumbered:
			tag := "ul"
			if blk.Kind == BlockNumbered {
				tag = "ol"
			}
			b.WriteString("<" + tag + ">")
			for ; i < len(blocks) && blocks[i].Kind == blk.Kind; i++ {
				b.WriteString("<li>")
				writeInline(&b, blocks[i].Inline)
				b.WriteString("</li>")
			}
			i--
			b.WriteString("</" + tag + ">")
		case BlockParagraph:
			b.WriteString("<p>")
			for first := true; i < len(blocks) && blocks[i].Kind == BlockParagraph; i++ {
				if !first {
					b.WriteString("<br>")
				}
				writeInline(&b, blocks[i].Inline)
				first = false
			}
			i--
			b.WriteString("</p>")
		}
	}
	return template.HTML(b.String())
}

func headerTag(level int) string {
	switch level {
	case 1:
		return "h3"
	case 2:
		return "h4"
	default:
		return "h5"
	}
}

func writeInline(b *strings.Builder, tokens []Token) {
	for _, t := range tokens {
		text := html.EscapeString(t.Text)
		switch t.Kind {
		case TokenBold:
			b.WriteString("<strong>" + text + "</strong>")
		case TokenItalic:
			b.WriteString("<em>" + text + "</em>")
		case TokenCode:
			b.WriteString("<code>" + text + "</code>")
		case TokenLink:
			if !safeURL(t.URL) {
				b.WriteString(text)
				continue
			}
			b.WriteString(`<a href="` + html.EscapeString(t.URL) + `" target="_blank" rel="noopener noreferrer">` + text + "</a>")
		default:
			b.WriteString(text)
		}
	}
}

func safeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return true
	}
	return false
}

// Plain strips markup and returns the readable text, for titles and logs.
func Plain(text string) string {
	var parts []string
	for _, blk := range Parse(text) {
		if blk.Kind == BlockBlank {
			continue
		}
		if blk.Kind == BlockCode {
			parts = append(parts, blk.Code)
			continue
		}
		var b strings.Builder
		for _, t := range blk.Inline {
			b.WriteString(t.Text)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}
