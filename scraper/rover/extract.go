package rover

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sitter-scraper/models"
)

// DefaultMarker is the global the search page assigns its initial state to.
const DefaultMarker = "window.__ROVER_INITIAL_DATA__"

var resultsPath = []string{"search", "fetchSearchResponse", "results"}

// Extractor recovers listing records from the state object a page embeds in
// a <script> element. The payload is a JavaScript literal, not JSON, so it is
// patched up before decoding.
type Extractor struct {
	Marker string
}

// NewExtractor creates an Extractor looking for marker, or DefaultMarker when
// marker is empty.
func NewExtractor(marker string) *Extractor {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Extractor{Marker: marker}
}

// ExtractListings extracts listings using DefaultMarker.
func ExtractListings(markup string) ([]models.RawListing, error) {
	return NewExtractor("").Extract(markup)
}

// Extract returns the listing records embedded in markup. Every failure is an
// *ExtractionError.
func (e *Extractor) Extract(markup string) ([]models.RawListing, error) {
	script, err := e.findScript(markup)
	if err != nil {
		return nil, err
	}

	payload, err := e.repair(script)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		xe := extractionErr(ReasonInvalidJSON, err)
		var se *json.SyntaxError
		switch {
		case errors.As(err, &se):
			xe.Offset = se.Offset
		case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
			xe.Offset = int64(len(payload))
		}
		return nil, xe
	}

	return listingsAt(data, resultsPath)
}

func (e *Extractor) findScript(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", extractionErr(ReasonUnreadableMarkup, err)
	}

	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, e.Marker) {
			found = text
			return false
		}
		return true
	})
	if found == "" {
		return "", extractionErr(ReasonMarkerNotFound, nil)
	}
	return found, nil
}

// repair applies the fixed sequence of textual patches that turn the script
// body into a JSON document.
func (e *Extractor) repair(script string) (string, error) {
	s := unescapeSlashes(script)

	s, ok := e.stripAssignment(s)
	if !ok {
		return "", extractionErr(ReasonNoAssignment, nil)
	}

	s = stripTerminator(s)
	s = replaceUndefined(s)
	s = stripDateConstructors(s)
	s = dropDanglingParens(s)
	return s, nil
}

var slashReplacer = strings.NewReplacer(`\u002F`, "/", `\u002f`, "/", `\/`, "/")

func unescapeSlashes(s string) string {
	return slashReplacer.Replace(s)
}

// stripAssignment drops everything up to and including "<marker> =".
func (e *Extractor) stripAssignment(s string) (string, bool) {
	i := strings.Index(s, e.Marker)
	if i < 0 {
		return "", false
	}
	rest := strings.TrimSpace(s[i+len(e.Marker):])
	if !strings.HasPrefix(rest, "=") {
		return "", false
	}
	return strings.TrimSpace(rest[1:]), true
}

func stripTerminator(s string) string {
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}

func replaceUndefined(s string) string {
	const token = "undefined"
	return rewriteCode(s, func(s string, i int, out *strings.Builder) int {
		if !strings.HasPrefix(s[i:], token) || !tokenBoundary(s, i, i+len(token)) {
			return 0
		}
		out.WriteString(`""`)
		return len(token)
	})
}

func stripDateConstructors(s string) string {
	const call = "new Date("
	return rewriteCode(s, func(s string, i int, out *strings.Builder) int {
		if !strings.HasPrefix(s[i:], call) || !tokenBoundary(s, i, i) {
			return 0
		}
		return len(call)
	})
}

// dropDanglingParens removes closing parens that have no opener, which is
// what stripDateConstructors leaves behind: `"2020-01-01"),` becomes
// `"2020-01-01",`.
func dropDanglingParens(s string) string {
	depth := 0
	return rewriteCode(s, func(s string, i int, out *strings.Builder) int {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return 1
			}
			depth--
		}
		return 0
	})
}

// rewriteCode copies s, calling fn at each byte offset outside double-quoted
// string literals. fn may write a replacement to out and return the number of
// input bytes it consumed; returning 0 copies the byte unchanged.
func rewriteCode(s string, fn func(s string, i int, out *strings.Builder) int) string {
	var out strings.Builder
	out.Grow(len(s))

	inString, escaped := false, false
	for i := 0; i < len(s); {
		c := s[i]
		if inString {
			out.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			i++
			continue
		}

		if c == '"' {
			inString = true
			out.WriteByte(c)
			i++
			continue
		}
		if n := fn(s, i, &out); n > 0 {
			i += n
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

// tokenBoundary reports whether s[start:end] is not glued to identifier
// characters on either side.
func tokenBoundary(s string, start, end int) bool {
	if start > 0 && isIdentByte(s[start-1]) {
		return false
	}
	if end > start && end < len(s) && isIdentByte(s[end]) {
		return false
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func listingsAt(data any, path []string) ([]models.RawListing, error) {
	node := data
	for _, key := range path {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, extractionErr(ReasonUnexpectedShape, fmt.Errorf("%q is not inside an object", key))
		}
		node, ok = obj[key]
		if !ok {
			return nil, extractionErr(ReasonUnexpectedShape, fmt.Errorf("missing %q", key))
		}
	}

	items, ok := node.([]any)
	if !ok {
		return nil, extractionErr(ReasonUnexpectedShape, fmt.Errorf("%s is %T, not a list", strings.Join(path, "."), node))
	}

	listings := make([]models.RawListing, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, extractionErr(ReasonUnexpectedShape, fmt.Errorf("result %d is %T, not an object", i, item))
		}
		listings = append(listings, models.RawListing(obj))
	}
	return listings, nil
}
