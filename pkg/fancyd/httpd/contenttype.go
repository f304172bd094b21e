package httpd

// extensionTypes mirrors the original responder's small built-in
// extension table. Anything not listed here falls back to
// application/octet-stream, the original's own default.
var extensionTypes = map[string]string{
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"txt":  "text/plain",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

const defaultContentType = "application/octet-stream"

// ContentTypeFor returns the MIME type for a canonicalized path given
// the position of its last '.', as produced by CanonicalizeURI. A
// negative lastDot (no extension found) yields the default type.
func ContentTypeFor(path string, lastDot int) string {
	if lastDot < 0 || lastDot+1 >= len(path) {
		return defaultContentType
	}
	ext := path[lastDot+1:]
	for i := 0; i < len(ext); i++ {
		if ext[i] == '/' || ext[i] == '?' {
			ext = ext[:i]
			break
		}
	}
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	return defaultContentType
}
