package sources

import "strings"

// ContentType classifies artifacts
type ContentType int

// Content types
const (
	ContentUnknown ContentType = iota
	ContentJAR
	ContentZIP
)

var (
	jarSubtypes = map[string]bool{"jar": true, "octet-stream": true, "java-archive": true, "x-java-archive": true}
	zipSubtypes = map[string]bool{"zip": true, "x-zip": true, "x-zip-compressed": true, "x-compressed": true}
)

// ContentTypeOf classifies a MIME type. Parameters such as charset are ignored.
func ContentTypeOf(mimeType string) ContentType {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	subtype, ok := strings.CutPrefix(mimeType, "application/")
	switch {
	case !ok:
		return ContentUnknown
	case jarSubtypes[subtype]:
		return ContentJAR
	case zipSubtypes[subtype]:
		return ContentZIP
	}
	return ContentUnknown
}

// String returns the name of the content type
func (c ContentType) String() string {
	switch c {
	case ContentJAR:
		return "jar"
	case ContentZIP:
		return "zip"
	default:
		return "unknown"
	}
}
