package llm

import (
	"fmt"
	"strings"

	"fujirock/internal/core"
)

// maxExtractRunes bounds the encyclopedia text sent to the model.
const maxExtractRunes = 1500

var languageNames = map[string]string{
	"en": "English",
	"zh": "Simplified Chinese",
	"ja": "Japanese",
}

func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if _, ok := languageNames[lang]; !ok {
		return "en"
	}
	return lang
}

const describeSystemPrompt = `You are a music critic with a sharp but good-humoured voice. ` +
	`You tease, you never insult, and you stay factual.`

func buildDescribePrompt(req core.DescribeRequest, lang string) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an introduction to the artist %q based on the encyclopedia text below.\n", req.ArtistName)
	b.WriteString("The introduction should:\n")
	b.WriteString("1. be about 200 to 300 words long\n")
	b.WriteString("2. include the key facts about the artist\n")
	b.WriteString("3. use a lightly teasing, humorous tone\n")
	b.WriteString("4. add the occasional witty remark\n")
	b.WriteString("5. end by saying their Fuji Rock Festival set is worth looking forward to\n")
	fmt.Fprintf(&b, "Write it in %s.\n", languageNames[lang])
	if len(req.Genres) > 0 {
		fmt.Fprintf(&b, "\nGenres: %s\n", strings.Join(req.Genres, ", "))
	}
	b.WriteString("\nEncyclopedia text:\n")
	b.WriteString(truncateRunes(strings.TrimSpace(req.Extract), maxExtractRunes))

	return describeSystemPrompt, b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
