package ingestion

import (
	"regexp"
	"strings"

	"github.com/Balizero1987/ayo-sub004/internal/ingestion/metadata"
)

// Collection names the closed set of vector-store collections a document
// can be routed to (§4.7 step 4).
type Collection string

const (
	CollectionTax         Collection = "tax"
	CollectionVisa        Collection = "visa"
	CollectionLegalUnified Collection = "legal-unified"
	CollectionKBLI         Collection = "KBLI"
	CollectionProperty     Collection = "property"
	CollectionLitigation   Collection = "litigation"
	CollectionGeneric      Collection = "generic"
	CollectionPricing      Collection = "pricing"
)

// pricingFilePatterns force-routes any file whose name contains one of
// these substrings to the pricing collection, regardless of content.
var pricingFilePatterns = []string{"pricelist", "pricing", "price-list", "daftar-harga"}

var (
	taxKeywords        = regexp.MustCompile(`(?i)\b(pajak|PPh|PPN|KUP|perpajakan|tax)\b`)
	visaKeywords       = regexp.MustCompile(`(?i)\b(visa|imigrasi|keimigrasian|izin tinggal|kitas|kitap)\b`)
	kbliKeywords       = regexp.MustCompile(`(?i)\bKBLI\b`)
	propertyKeywords   = regexp.MustCompile(`(?i)\b(tanah|agraria|hak milik|sertifikat tanah|properti|property)\b`)
	litigationKeywords = regexp.MustCompile(`(?i)\b(putusan|pengadilan|mahkamah agung|perkara)\b`)
)

// RouteCollection picks the target collection for a document, given its
// source filename and extracted text. Pricing filename patterns take
// precedence over any content-based classification.
func RouteCollection(filename, text string) Collection {
	lowerFile := strings.ToLower(filename)
	for _, pattern := range pricingFilePatterns {
		if strings.Contains(lowerFile, pattern) {
			return CollectionPricing
		}
	}

	switch {
	case litigationKeywords.MatchString(text):
		return CollectionLitigation
	case kbliKeywords.MatchString(text):
		return CollectionKBLI
	case taxKeywords.MatchString(text):
		return CollectionTax
	case visaKeywords.MatchString(text):
		return CollectionVisa
	case propertyKeywords.MatchString(text):
		return CollectionProperty
	case metadata.IsLegalDocument(text):
		return CollectionLegalUnified
	default:
		return CollectionGeneric
	}
}
