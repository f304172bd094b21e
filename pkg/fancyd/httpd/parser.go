package httpd

import (
	"errors"

	"github.com/yourusername/fancyd/pkg/fancyd/buffer"
)

// Result is the three-way outcome every incremental parse step can
// reach: more bytes are needed, the current phase finished, or the
// input is malformed and the parser will never re-enter.
type Result int

const (
	ResultAgain Result = iota
	ResultOK
	ResultError
)

// ErrParse names a hard parse failure. Execute does not return it: it
// reports failures as ResultError, which the HTTP engine maps to a 400
// response.
var ErrParse = errors.New("httpd: malformed request")

// parser line/header states, in the exact order and naming of the
// original byte-at-a-time state machine so the two are easy to compare
// transition for transition.
type state int

const (
	stStart state = iota
	stMethod
	stSpaceBeforeURI
	stURI
	stSpaceBeforeVersion
	stVersionH
	stVersionHT
	stVersionHTT
	stVersionHTTP
	stVersionHTTPSlash
	stVersionHTTPSlash1
	stVersionHTTPSlash1Dot
	stSpaceAfterVersion
	stLineAlmostDone
	stLineDone

	stHeaderStart
	stName
	stSpaceBeforeValue
	stValue
	stHeaderAlmostDone
	stAllHeadersAlmostDone
	stAllDone

	stError
)

// HeaderField is one parsed (name, value) pair, as byte offsets into
// the header buffer's Raw() backing array. Callers must not assume
// NUL-termination: the end offsets are derived from the surrounding
// punctuation the parser consumed.
type HeaderField struct {
	NameStart, NameEnd   int
	ValueStart, ValueEnd int
}

// Parser is the incremental request-line + header state machine. It
// resumes at the exact state where it last suspended: bytes already
// consumed from the buffer are never re-scanned. One Parser belongs to
// exactly one in-flight Request; Reset returns it to its initial state.
type Parser struct {
	state state

	// request-line scratch
	method    Method
	methodIdx int
	version   Version
	uriStart  int
	uriEnd    int

	// header scratch, valid only while state is between stName and
	// stHeaderAlmostDone for the header currently being scanned
	nameStart  int
	nameEnd    int
	valueStart int

	Headers []HeaderField
}

// Version is the HTTP version a request line declared.
type Version int

const (
	VersionUnknown Version = iota
	Version10
	Version11
)

// Reset returns the parser to its initial state, ready for a new
// request cycle. Called between keep-alive requests so no state from
// the previous request leaks into the next.
func (p *Parser) Reset() {
	*p = Parser{Headers: p.Headers[:0]}
}

// Method returns the method recognized for the current request line.
func (p *Parser) Method() Method { return p.method }

// HTTPVersion returns the version recognized for the current request line.
func (p *Parser) HTTPVersion() Version { return p.version }

// URIBounds returns the raw, not-yet-canonicalized URI's [start, end)
// byte offsets into the header buffer's Raw().
func (p *Parser) URIBounds() (int, int) { return p.uriStart, p.uriEnd }

// lineDone reports whether the request line has finished parsing.
func (p *Parser) lineDone() bool { return p.state >= stLineDone && p.state != stError }

// allDone reports whether headers have finished parsing.
func (p *Parser) allDone() bool { return p.state == stAllDone }

// Execute advances the parser over whatever bytes are currently
// available in in's read window, consuming them via SeekStart exactly
// as it goes, and returns Again if it ran out of bytes mid-state, OK if
// it reached the end of headers, or Error on a malformed byte. It may
// be called repeatedly as more bytes arrive; previously consumed bytes
// are never revisited.
func (p *Parser) Execute(in *buffer.Buffer) Result {
	if p.state == stError {
		return ResultError
	}
	if !p.lineDone() {
		switch p.parseRequestLine(in) {
		case ResultAgain:
			return ResultAgain
		case ResultError:
			return ResultError
		}
	}
	if !p.allDone() {
		return p.parseHeaders(in)
	}
	return ResultOK
}

func (p *Parser) parseRequestLine(in *buffer.Buffer) Result {
	state := p.state

	for !in.Empty() {
		c := in.Raw()[in.Cursor()]

		switch state {
		case stStart:
			m := methodFromFirstByte(c)
			if m == MethodUnknown {
				return p.fail()
			}
			p.method = m
			p.methodIdx = 1
			state = stMethod

		case stMethod:
			tok := p.method.String()
			if p.methodIdx < len(tok) {
				if tok[p.methodIdx] != c {
					return p.fail()
				}
				p.methodIdx++
				in.SeekStart(1)
				continue
			}
			state = stSpaceBeforeURI
			continue // re-examine c in the new state without consuming

		case stSpaceBeforeURI:
			switch {
			case c == ' ':
			case c == '/':
				p.uriStart = in.Cursor()
				state = stURI
			default:
				return p.fail()
			}

		case stURI:
			if c == ' ' {
				p.uriEnd = in.Cursor()
				state = stSpaceBeforeVersion
			} else if isCntrl(c) {
				return p.fail()
			}

		case stSpaceBeforeVersion:
			switch {
			case c == ' ':
			case c|0x20 == 'h':
				state = stVersionH
			default:
				return p.fail()
			}

		case stVersionH:
			if c|0x20 != 't' {
				return p.fail()
			}
			state = stVersionHT

		case stVersionHT:
			if c|0x20 != 't' {
				return p.fail()
			}
			state = stVersionHTT

		case stVersionHTT:
			if c|0x20 != 'p' {
				return p.fail()
			}
			state = stVersionHTTP

		case stVersionHTTP:
			if c != '/' {
				return p.fail()
			}
			state = stVersionHTTPSlash

		case stVersionHTTPSlash:
			if c != '1' {
				return p.fail()
			}
			state = stVersionHTTPSlash1

		case stVersionHTTPSlash1:
			if c != '.' {
				return p.fail()
			}
			state = stVersionHTTPSlash1Dot

		case stVersionHTTPSlash1Dot:
			switch c {
			case '0':
				p.version = Version10
			case '1':
				p.version = Version11
			default:
				return p.fail()
			}
			state = stSpaceAfterVersion

		case stSpaceAfterVersion:
			switch c {
			case ' ':
			case '\r':
				state = stLineAlmostDone
			default:
				return p.fail()
			}

		case stLineAlmostDone:
			if c != '\n' {
				return p.fail()
			}
			in.SeekStart(1)
			p.state = stLineDone
			return ResultOK

		default:
			return p.fail()
		}

		in.SeekStart(1)
	}

	p.state = state
	return ResultAgain
}

func (p *Parser) parseHeaders(in *buffer.Buffer) Result {
	state := p.state
	if state == stLineDone {
		state = stHeaderStart
	}

	for !in.Empty() {
		c := in.Raw()[in.Cursor()]

		switch state {
		case stHeaderStart:
			switch {
			case c == '\r':
				state = stAllHeadersAlmostDone
			case isAlpha(c) || c == '-':
				p.nameStart = in.Cursor()
				state = stName
			default:
				return p.fail()
			}

		case stName:
			switch {
			case isAlpha(c) || c == '-':
			case c == ':':
				p.nameEnd = in.Cursor()
				state = stSpaceBeforeValue
			default:
				return p.fail()
			}

		case stSpaceBeforeValue:
			switch {
			case c == ' ':
			case !isCntrl(c):
				p.valueStart = in.Cursor()
				state = stValue
			default:
				return p.fail()
			}

		case stValue:
			if c == '\r' || c == ' ' {
				p.Headers = append(p.Headers, HeaderField{
					NameStart:  p.nameStart,
					NameEnd:    p.nameEnd,
					ValueStart: p.valueStart,
					ValueEnd:   in.Cursor(),
				})
				if c == '\r' {
					state = stHeaderAlmostDone
				} else {
					state = stSpaceBeforeValue
				}
			} else if isCntrl(c) {
				return p.fail()
			}

		case stHeaderAlmostDone:
			if c != '\n' {
				return p.fail()
			}
			state = stHeaderStart

		case stAllHeadersAlmostDone:
			if c != '\n' {
				return p.fail()
			}
			in.SeekStart(1)
			p.state = stAllDone
			return ResultOK

		default:
			return p.fail()
		}

		in.SeekStart(1)
	}

	p.state = state
	return ResultAgain
}

func (p *Parser) fail() Result {
	p.state = stError
	return ResultError
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isCntrl(c byte) bool {
	return c < 0x20 || c == 0x7f
}
