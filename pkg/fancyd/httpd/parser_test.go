package httpd

import (
	"testing"

	"github.com/yourusername/fancyd/pkg/fancyd/buffer"
)

func execAll(t *testing.T, raw string) (*Parser, *buffer.Buffer) {
	t.Helper()
	p := &Parser{}
	b := buffer.New(len(raw) + 64)
	if _, err := b.WriteString(raw); err != nil {
		t.Fatalf("write: %v", err)
	}
	for {
		r := p.Execute(b)
		if r != ResultAgain {
			return p, b
		}
		if b.Empty() {
			t.Fatalf("parser stuck in Again with an empty buffer")
		}
	}
}

func TestParseSimpleGetNoHeaders(t *testing.T) {
	p, _ := execAll(t, "GET /index.html HTTP/1.1\r\n\r\n")
	if p.Method() != MethodGet {
		t.Fatalf("method = %v, want GET", p.Method())
	}
	if p.HTTPVersion() != Version11 {
		t.Fatalf("version = %v, want 1.1", p.HTTPVersion())
	}
	if !p.allDone() {
		t.Fatalf("expected allDone after blank line")
	}
}

func TestParseWithHeaders(t *testing.T) {
	raw := "GET /a/b?c=d HTTP/1.0\r\nHost: example.com\r\nAccept: */*\r\n\r\n"
	p, b := execAll(t, raw)
	if p.Method() != MethodGet || p.HTTPVersion() != Version10 {
		t.Fatalf("unexpected method/version: %v %v", p.Method(), p.HTTPVersion())
	}
	if len(p.Headers) != 2 {
		t.Fatalf("got %d headers, want 2", len(p.Headers))
	}
	raw0 := b.Raw()
	name := string(raw0[p.Headers[0].NameStart:p.Headers[0].NameEnd])
	val := string(raw0[p.Headers[0].ValueStart:p.Headers[0].ValueEnd])
	if name != "Host" || val != "example.com" {
		t.Fatalf("header[0] = %q: %q, want Host: example.com", name, val)
	}
}

func TestParseByteAtATimeMatchesOneShot(t *testing.T) {
	raw := "HEAD /path HTTP/1.1\r\nX-Foo: bar\r\n\r\n"

	oneShot, _ := execAll(t, raw)

	p := &Parser{}
	b := buffer.New(len(raw) + 16)
	var result Result
	for i := 0; i < len(raw); i++ {
		if _, err := b.WriteString(raw[i : i+1]); err != nil {
			t.Fatalf("write: %v", err)
		}
		result = p.Execute(b)
		if result != ResultAgain {
			break
		}
	}
	if result != ResultOK {
		t.Fatalf("byte-at-a-time parse result = %v, want OK", result)
	}
	if p.Method() != oneShot.Method() || p.HTTPVersion() != oneShot.HTTPVersion() {
		t.Fatalf("byte-at-a-time parse diverged from one-shot parse")
	}
	if len(p.Headers) != len(oneShot.Headers) {
		t.Fatalf("header count diverged: %d vs %d", len(p.Headers), len(oneShot.Headers))
	}
}

func TestMalformedMethodRejected(t *testing.T) {
	p := &Parser{}
	b := buffer.New(64)
	b.WriteString("GETX /path HTTP/1.1\r\n\r\n")
	var r Result
	for {
		r = p.Execute(b)
		if r != ResultAgain || b.Empty() {
			break
		}
	}
	if r != ResultError {
		t.Fatalf("result = %v, want Error for a method with a trailing stray byte", r)
	}
}

func TestVersionMustBeOneDotSomething(t *testing.T) {
	p := &Parser{}
	b := buffer.New(64)
	b.WriteString("GET / HTTP/2.0\r\n\r\n")
	var r Result
	for {
		r = p.Execute(b)
		if r != ResultAgain || b.Empty() {
			break
		}
	}
	if r != ResultError {
		t.Fatalf("result = %v, want Error for HTTP/2.0", r)
	}
}

func TestMissingLeadingSlashRejected(t *testing.T) {
	p := &Parser{}
	b := buffer.New(64)
	b.WriteString("GET index.html HTTP/1.1\r\n\r\n")
	var r Result
	for {
		r = p.Execute(b)
		if r != ResultAgain || b.Empty() {
			break
		}
	}
	if r != ResultError {
		t.Fatalf("result = %v, want Error for a relative URI", r)
	}
}

func TestResetClearsState(t *testing.T) {
	p, _ := execAll(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	p.Reset()
	if p.Method() != MethodUnknown || len(p.Headers) != 0 || p.allDone() {
		t.Fatalf("Reset left stale state: method=%v headers=%d allDone=%v", p.Method(), len(p.Headers), p.allDone())
	}
}
