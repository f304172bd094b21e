package httpd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yourusername/fancyd/pkg/fancyd/buffer"
)

func TestResolveStaticFileServesFileUnderRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, status := resolveStaticFile(root, filepath.Join(root, "index.html"))
	if status != StatusOK {
		t.Fatalf("status = %v, want 200", status)
	}
	defer f.Close()
}

func TestResolveStaticFileMissingIsNotFound(t *testing.T) {
	root := t.TempDir()
	_, status := resolveStaticFile(root, filepath.Join(root, "nope.html"))
	if status != StatusNotFound {
		t.Fatalf("status = %v, want 404", status)
	}
}

func TestResolveStaticFileDirectoryIsNotFound(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, status := resolveStaticFile(root, filepath.Join(root, "sub"))
	if status != StatusNotFound {
		t.Fatalf("status = %v, want 404 for a directory", status)
	}
}

func TestResolveStaticFileEscapeIsForbidden(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "..", "escaped.html")
	_, status := resolveStaticFile(root, outside)
	if status != StatusForbidden {
		t.Fatalf("status = %v, want 403 for a path escaping the document root", status)
	}
}

func TestBuildHeaderBlockFormat(t *testing.T) {
	req := &Request{
		HeaderOut: buffer.New(256),
		Status:    StatusOK,
		KeepAlive: true,
		FileSize:  42,
	}
	if err := buildHeaderBlock(req, "fancyd", "text/html"); err != nil {
		t.Fatalf("buildHeaderBlock: %v", err)
	}
	got := string(req.HeaderOut.ReadPtr())
	want := "HTTP/1.1 200 OK\r\n" +
		"Server: fancyd\r\n" +
		"Content-Type: text/html\r\n" +
		"Content-Length: 42\r\n" +
		"Connection: keep-alive\r\n\r\n"
	if got != want {
		t.Fatalf("header block =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildHeaderBlockConnectionClose(t *testing.T) {
	req := &Request{
		HeaderOut: buffer.New(256),
		Status:    StatusNotFound,
		KeepAlive: false,
	}
	if err := buildHeaderBlock(req, "fancyd", "text/html"); err != nil {
		t.Fatalf("buildHeaderBlock: %v", err)
	}
	got := string(req.HeaderOut.ReadPtr())
	if !strings.HasSuffix(got, "Connection: close\r\n\r\n") {
		t.Fatalf("header block = %q, want trailing Connection: close", got)
	}
}
