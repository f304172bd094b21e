package httpd

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// resolveStaticFile opens and stats the canonicalized path (trimming any
// query args, which the static responder ignores) and returns the status
// code together with the opened file, or nil if no file should be
// transmitted (not found, forbidden, or a directory). The caller reads
// the file size from the returned file.
//
// docRoot confinement is enforced here, at the filesystem binding
// layer: CanonicalizeURI deliberately performs no ".." collapsing, so a
// request path that escapes docRoot once resolved is rejected with 403
// rather than served.
func resolveStaticFile(docRoot, canonicalPath string) (*os.File, Status) {
	path := canonicalPath
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	absRoot, err := filepath.Abs(docRoot)
	if err != nil {
		return nil, StatusInternalServerError
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, StatusInternalServerError
	}
	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return nil, StatusForbidden
	}

	f, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, StatusNotFound
		}
		if os.IsPermission(err) {
			return nil, StatusForbidden
		}
		return nil, StatusInternalServerError
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, StatusInternalServerError
	}
	if fi.IsDir() {
		f.Close()
		return nil, StatusNotFound
	}

	return f, StatusOK
}

// buildHeaderBlock writes the fixed response header block into
// req.HeaderOut, following the static-file responder's exact field
// order and set: status line, Server, Content-Type, Content-Length,
// then Connection: keep-alive or close. Safe to call only while
// HeaderOut is empty (it is never called twice per response).
func buildHeaderBlock(req *Request, serverName string, contentType string) error {
	var b strings.Builder
	b.WriteString("HTTP/1.1 ")
	b.WriteString(req.Status.Line())
	b.WriteString("\r\n")
	b.WriteString("Server: ")
	b.WriteString(serverName)
	b.WriteString("\r\n")
	b.WriteString("Content-Type: ")
	if contentType == "" {
		contentType = "text/html"
	}
	b.WriteString(contentType)
	b.WriteString("\r\n")
	b.WriteString("Content-Length: ")
	b.WriteString(strconv.FormatInt(req.FileSize, 10))
	b.WriteString("\r\n")
	if req.KeepAlive {
		b.WriteString("Connection: keep-alive\r\n\r\n")
	} else {
		b.WriteString("Connection: close\r\n\r\n")
	}

	_, err := req.HeaderOut.WriteString(b.String())
	return err
}
