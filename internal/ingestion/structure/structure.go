// Package structure detects Indonesian legal document hierarchy (BAB ->
// Pasal -> Ayat) from plain text, the second stage of C4.
package structure

import (
	"regexp"
	"strings"
)

var (
	babPattern       = regexp.MustCompile(`(?m)^\s*BAB\s+([IVXLCDM]+)\s*\n?(.*)$`)
	pasalPattern     = regexp.MustCompile(`(?m)^\s*Pasal\s+(\d+[A-Za-z]?)\s*$`)
	ayatPattern      = regexp.MustCompile(`(?m)^\s*Ayat\s*\((\d+)\)|^\s*\((\d+)\)\s`)
	menimbangPattern = regexp.MustCompile(`(?m)^\s*Menimbang\s*:?`)
	mengingatPattern = regexp.MustCompile(`(?m)^\s*Mengingat\s*:?`)
	presidenPattern  = regexp.MustCompile(`PRESIDEN`)
)

// Article is one Pasal within a Chapter, with its Ayat (clause) numbers.
type Article struct {
	Number string
	Text   string
	Ayat   []string
}

// Chapter is one BAB, containing an ordered list of Articles.
type Chapter struct {
	Number   string
	Title    string
	Text     string
	Articles []Article
}

// Document is the parsed hierarchy of a legal text.
type Document struct {
	Chapters []Chapter
	// HasMenimbang/HasMengingat/HasPasal/HasPresiden record the markers the
	// metadata extractor's is-legal-document predicate (§4.5) also counts;
	// that predicate matches the text itself and does not read these fields.
	HasMenimbang bool
	HasMengingat bool
	HasPasal     bool
	HasPresiden  bool
}

// Parse scans text for BAB/Pasal/Ayat markers and builds the chapter tree.
// Text with no BAB markers but with standalone Pasal markers is returned as
// a single synthetic chapter so callers always see at least the article
// level when one exists.
func Parse(text string) Document {
	doc := Document{
		HasMenimbang: menimbangPattern.MatchString(text),
		HasMengingat: mengingatPattern.MatchString(text),
		HasPasal:     pasalPattern.MatchString(text),
		HasPresiden:  presidenPattern.MatchString(text),
	}

	babMatches := babPattern.FindAllStringSubmatchIndex(text, -1)
	if len(babMatches) == 0 {
		if chapter, ok := parseChapterBody("", "", text); ok {
			doc.Chapters = append(doc.Chapters, chapter)
		}
		return doc
	}

	for i, match := range babMatches {
		number := text[match[2]:match[3]]
		title := strings.TrimSpace(text[match[4]:match[5]])

		bodyStart := match[1]
		bodyEnd := len(text)
		if i+1 < len(babMatches) {
			bodyEnd = babMatches[i+1][0]
		}
		body := text[bodyStart:bodyEnd]

		chapter, _ := parseChapterBody(number, title, body)
		doc.Chapters = append(doc.Chapters, chapter)
	}
	return doc
}

func parseChapterBody(number, title, body string) (Chapter, bool) {
	chapter := Chapter{Number: number, Title: title, Text: strings.TrimSpace(body)}

	pasalMatches := pasalPattern.FindAllStringSubmatchIndex(body, -1)
	if len(pasalMatches) == 0 {
		return chapter, chapter.Text != ""
	}

	for i, match := range pasalMatches {
		articleNumber := body[match[2]:match[3]]
		start := match[1]
		end := len(body)
		if i+1 < len(pasalMatches) {
			end = pasalMatches[i+1][0]
		}
		articleText := strings.TrimSpace(body[start:end])
		chapter.Articles = append(chapter.Articles, Article{
			Number: articleNumber,
			Text:   articleText,
			Ayat:   extractAyatNumbers(articleText),
		})
	}
	return chapter, true
}

// extractAyatNumbers pulls the clause numbers referenced within an article,
// in order of first appearance, without deduplicating repeats.
func extractAyatNumbers(text string) []string {
	matches := ayatPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if m[1] != "" {
			out = append(out, m[1])
		} else if m[2] != "" {
			out = append(out, m[2])
		}
	}
	return out
}

// SequenceValid reports whether ayat numbers form a contiguous run 1..n,
// the validation the original ingester calls ayat_sequence_valid.
func SequenceValid(numbers []string) bool {
	if len(numbers) == 0 {
		return true
	}
	seen := make(map[string]bool, len(numbers))
	maxN := 0
	for _, n := range numbers {
		seen[n] = true
	}
	for _, n := range numbers {
		val := 0
		for _, r := range n {
			if r < '0' || r > '9' {
				return false
			}
			val = val*10 + int(r-'0')
		}
		if val > maxN {
			maxN = val
		}
	}
	for i := 1; i <= maxN; i++ {
		key := itoa(i)
		if !seen[key] {
			return false
		}
	}
	return true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
