package reveal

import "strings"

const (
	boldDelimiter = "**"
	lineMarker    = "*"
	lineBreak     = "</br>"
)

// Reply is a chat answer as handed over by the chat adapter. Markup is set
// by the adapter when the body is already rendered and must be shown whole.
type Reply struct {
	Text   string
	Markup bool
}

// NewReply wraps a raw chat answer. Bodies that arrive already rendered
// (leading "<") are flagged as markup.
func NewReply(text string) Reply {
	return Reply{Text: text, Markup: strings.HasPrefix(strings.TrimSpace(text), "<")}
}

// Format converts the Markdown subset used by the chat backend into markup:
// text between ** pairs becomes <b>…</b> (plain first, alternating) and any
// single * left over becomes a line break.
func Format(text string) string {
	parts := strings.Split(text, boldDelimiter)
	var b strings.Builder
	for i, p := range parts {
		if i%2 == 1 {
			b.WriteString("<b>")
			b.WriteString(p)
			b.WriteString("</b>")
			continue
		}
		b.WriteString(p)
	}
	return strings.ReplaceAll(b.String(), lineMarker, lineBreak)
}

// Tokens returns the reveal units for a reply in left-to-right order.
func Tokens(r Reply) []string {
	if r.Markup {
		if strings.TrimSpace(r.Text) == "" {
			return nil
		}
		return []string{r.Text}
	}
	return strings.Fields(Format(r.Text))
}

// Join is the fully revealed form of tokens: each token followed by one space.
func Join(tokens []string) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t)
		b.WriteByte(' ')
	}
	return b.String()
}
