// Package metadata implements C5: classification (document type, number,
// year, topic, status) and quality scoring (fingerprint, OCR ratio,
// completeness) over parsed document text.
package metadata

import (
	"regexp"
	"strings"

	"github.com/Balizero1987/ayo-sub004/internal/types"
)

// typeMarker pairs the regex that recognizes a document type heading with
// its canonical name and abbreviation. Classify takes the marker that occurs
// earliest in the text, so a PERATURAN PEMERINTAH heading wins over an
// UNDANG-UNDANG cited later in its title.
type typeMarker struct {
	pattern *regexp.Regexp
	name    string
	abbrev  string
}

var typeMarkers = []typeMarker{
	{regexp.MustCompile(`UNDANG-UNDANG`), "UNDANG-UNDANG", "UU"},
	{regexp.MustCompile(`PERATURAN PEMERINTAH`), "PERATURAN PEMERINTAH", "PP"},
	{regexp.MustCompile(`KEPUTUSAN PRESIDEN`), "KEPUTUSAN PRESIDEN", "Keppres"},
	{regexp.MustCompile(`PERATURAN MENTERI`), "PERATURAN MENTERI", "Permen"},
	{regexp.MustCompile(`PERATURAN DAERAH`), "PERATURAN DAERAH", "Perda"},
	{regexp.MustCompile(`QANUN`), "QANUN", "Qanun"},
}

var (
	numberPattern = regexp.MustCompile(`NOMOR\s+(\w+)\s+TAHUN`)
	yearPattern   = regexp.MustCompile(`TAHUN\s+(\d{4})`)
	topicPattern  = regexp.MustCompile(`(?s)TENTANG\s+(.+?)(?:\n[ \t]*\n|\z)`)
	topicStopWord = regexp.MustCompile(`DENGAN RAHMAT`)
	statusDicabut = regexp.MustCompile(`(?i)DICABUT`)
	statusBerlaku = regexp.MustCompile(`(?i)\bBERLAKU\b`)
	whitespaceRun = regexp.MustCompile(`\s+`)

	presidenMarker = regexp.MustCompile(`PRESIDEN`)
	pasalMarker    = regexp.MustCompile(`Pasal\s+\d+`)
	menimbangMark  = regexp.MustCompile(`Menimbang`)
	mengingatMark  = regexp.MustCompile(`Mengingat`)
)

const maxTopicChars = 200

// Classification is the result of Classify: a regex-based read of a legal
// document's header fields. Type, TypeAbbrev, Number, Year and Topic fall
// back to types.UnknownValue; Status is empty when the text states none, and
// FullTitle is "Unknown Legal Document" when nothing else is known.
type Classification struct {
	Type       string
	TypeAbbrev string
	Number     string
	Year       string
	Topic      string
	Status     types.DocumentStatus
	FullTitle  string
}

// Classify extracts header metadata from document text. Blank input yields
// a zero-value Classification (mirroring the original extractor's empty
// dict on empty text) rather than UNKNOWN-filled fields.
func Classify(text string) Classification {
	if strings.TrimSpace(text) == "" {
		return Classification{}
	}

	c := Classification{
		Type:       types.UnknownValue,
		TypeAbbrev: types.UnknownValue,
		Number:     types.UnknownValue,
		Year:       types.UnknownValue,
		Topic:      types.UnknownValue,
	}

	first := -1
	for _, marker := range typeMarkers {
		loc := marker.pattern.FindStringIndex(text)
		if loc != nil && (first < 0 || loc[0] < first) {
			first = loc[0]
			c.Type = marker.name
			c.TypeAbbrev = marker.abbrev
		}
	}

	if m := numberPattern.FindStringSubmatch(text); m != nil {
		c.Number = m[1]
	}
	if m := yearPattern.FindStringSubmatch(text); m != nil {
		c.Year = m[1]
	}
	if m := topicPattern.FindStringSubmatch(text); m != nil {
		topic := m[1]
		if loc := topicStopWord.FindStringIndex(topic); loc != nil {
			topic = topic[:loc[0]]
		}
		topic = normalizeWhitespace(topic)
		if topic != "" {
			if len(topic) > maxTopicChars {
				topic = topic[:maxTopicChars]
			}
			c.Topic = topic
		}
	}

	switch {
	case statusDicabut.MatchString(text):
		c.Status = DocumentStatusDicabut
	case statusBerlaku.MatchString(text):
		c.Status = DocumentStatusBerlaku
	default:
		c.Status = ""
	}

	c.FullTitle = buildFullTitle(c)
	return c
}

// Bahasa status labels as extracted from text; distinct from the DB-facing
// types.DocumentStatus (active/repealed) which callers map these onto.
const (
	DocumentStatusDicabut types.DocumentStatus = "dicabut"
	DocumentStatusBerlaku types.DocumentStatus = "berlaku"
)

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// buildFullTitle composes a canonical title from known fields, omitting any
// field still at types.UnknownValue, and falling back to a fixed phrase
// when nothing is known.
func buildFullTitle(c Classification) string {
	var parts []string
	if c.TypeAbbrev != "" && c.TypeAbbrev != types.UnknownValue {
		parts = append(parts, c.TypeAbbrev)
	}
	if c.Number != "" && c.Number != types.UnknownValue {
		parts = append(parts, "No "+c.Number)
	}
	if c.Year != "" && c.Year != types.UnknownValue {
		parts = append(parts, "Tahun "+c.Year)
	}
	if c.Topic != "" && c.Topic != types.UnknownValue {
		parts = append(parts, "Tentang "+c.Topic)
	}
	if len(parts) == 0 {
		return "Unknown Legal Document"
	}
	return strings.Join(parts, " ")
}

// IsLegalDocument reports whether text is an Indonesian legal instrument. A
// recognized type heading (UNDANG-UNDANG, PERATURAN PEMERINTAH, ...) is
// sufficient on its own; absent that, at least two of {Menimbang, Mengingat,
// Pasal <n>, PRESIDEN} must fire.
func IsLegalDocument(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if typeMarkerAny().MatchString(text) {
		return true
	}
	hits := 0
	for _, marker := range []*regexp.Regexp{menimbangMark, mengingatMark, pasalMarker, presidenMarker} {
		if marker.MatchString(text) {
			hits++
		}
	}
	return hits >= 2
}

var combinedTypeMarker *regexp.Regexp

func typeMarkerAny() *regexp.Regexp {
	if combinedTypeMarker != nil {
		return combinedTypeMarker
	}
	parts := make([]string, len(typeMarkers))
	for i, m := range typeMarkers {
		parts[i] = m.pattern.String()
	}
	combinedTypeMarker = regexp.MustCompile(strings.Join(parts, "|"))
	return combinedTypeMarker
}
