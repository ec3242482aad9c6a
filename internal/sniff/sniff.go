// Package sniff classifies an uploaded document by its leading magic bytes.
package sniff

// Kind is the document class decided from raw bytes.
type Kind int

const (
	Unsupported Kind = iota
	Image
	TextPDFCandidate
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case TextPDFCandidate:
		return "pdf"
	default:
		return "unsupported"
	}
}

// Classify inspects the first two bytes only: JPEG (FF D8) and PNG (89 50)
// are images, %P (25 50) marks a PDF candidate. This is a deliberately cheap
// magic-number check, not format validation; downstream extractors must fail
// on malformed bodies behind a valid magic number.
func Classify(data []byte) Kind {
	if len(data) < 2 {
		return Unsupported
	}
	switch {
	case data[0] == 0xFF && data[1] == 0xD8:
		return Image
	case data[0] == 0x89 && data[1] == 0x50:
		return Image
	case data[0] == 0x25 && data[1] == 0x50:
		return TextPDFCandidate
	default:
		return Unsupported
	}
}
