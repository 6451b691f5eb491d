// Package summarize cleans raw input texts and condenses them into one
// markdown document with the LLM.
package summarize

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CleanHTML strips markup from raw and returns the trimmed text content.
// Script and style bodies are dropped. Text that is not HTML passes through
// unchanged apart from entity decoding and trimming.
func CleanHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	var (
		sb   strings.Builder
		skip int
	)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.StartTagToken:
			if isRawTextTag(tokenizer) {
				skip++
			}
		case html.EndTagToken:
			if skip > 0 && isRawTextTag(tokenizer) {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(tokenizer.Text())
			}
		}
	}
}

func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	a := atom.Lookup(name)
	return a == atom.Script || a == atom.Style
}

// CleanAll applies CleanHTML to every text, keeping positions.
func CleanAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = CleanHTML(t)
	}
	return out
}
