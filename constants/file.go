package constants

// FileFormat is the broad document class the pipeline knows how to handle.
type FileFormat string

const (
	PDF   FileFormat = "PDF"
	IMAGE FileFormat = "IMAGE"
)

// AllowedMIMETypes holds the declared MIME types accepted at upload.
var AllowedMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
}

// IsAllowedMIME reports whether a declared MIME type may be stored.
func IsAllowedMIME(mime string) bool {
	_, ok := AllowedMIMETypes[mime]
	return ok
}
