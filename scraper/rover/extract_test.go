package rover

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"sitter-scraper/models"
)

// escSlash is the JSON unicode escape for '/', as the site serializes it.
const escSlash = `\` + "u002F"

func wrapScript(body string) string {
	return `<html><head>
<script src="/static/app.js"></script>
<script>window.dataLayer = [];</script>
<script>` + body + `</script>
</head><body><div id="root"></div></body></html>`
}

func decodeStrict(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("decode expected JSON: %v", err)
	}
	return v
}

func TestExtractRepairsQuirks(t *testing.T) {
	quirky := `window.__ROVER_INITIAL_DATA__ = {"search":{"fetchSearchResponse":{"results":[` +
		`{"personOpk":"A1","webUrl":"https:\/\/www.rover.com\/members\/a-1\/","badge":undefined,` +
		`"joined":new Date("2019-05-01T00:00:00Z"),"price":30,"path":"` + escSlash + `members` + escSlash + `a-1",` +
		`"bio":"never undefined here","note":"smile :)"},` +
		`{"personOpk":"B2","seen":new Date("2020-01-01")}` +
		`]}},"flags":[undefined, new Date(1588291200000)]};`

	clean := `{"search":{"fetchSearchResponse":{"results":[` +
		`{"personOpk":"A1","webUrl":"https://www.rover.com/members/a-1/","badge":"",` +
		`"joined":"2019-05-01T00:00:00Z","price":30,"path":"/members/a-1",` +
		`"bio":"never undefined here","note":"smile :)"},` +
		`{"personOpk":"B2","seen":"2020-01-01"}` +
		`]}},"flags":["", 1588291200000]}`

	got, err := ExtractListings(wrapScript(quirky))
	if err != nil {
		t.Fatalf("ExtractListings: %v", err)
	}

	want := decodeStrict(t, clean).(map[string]any)["search"].(map[string]any)["fetchSearchResponse"].(map[string]any)["results"].([]any)
	if len(got) != len(want) {
		t.Fatalf("listings: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !reflect.DeepEqual(map[string]any(got[i]), want[i]) {
			t.Errorf("listing %d:\n got  %#v\n want %#v", i, got[i], want[i])
		}
	}
}

func TestExtractPlainJSONPayload(t *testing.T) {
	body := `window.__ROVER_INITIAL_DATA__={"search":{"fetchSearchResponse":{"results":[]}}}`
	got, err := ExtractListings(wrapScript(body))
	if err != nil {
		t.Fatalf("ExtractListings: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("listings: got %d, want 0", len(got))
	}
}

func TestExtractKeepsNumbersExact(t *testing.T) {
	body := `window.__ROVER_INITIAL_DATA__ = {"search":{"fetchSearchResponse":{"results":[{"personOpk":12345678901234567,"price":25.50}]}}};`
	got, err := ExtractListings(wrapScript(body))
	if err != nil {
		t.Fatal(err)
	}
	if id := got[0].Identity(); id != "12345678901234567" {
		t.Errorf("Identity: got %q", id)
	}
	if p, ok := got[0]["price"].(json.Number); !ok || p.String() != "25.50" {
		t.Errorf("price: got %#v", got[0]["price"])
	}
}

func TestExtractCustomMarker(t *testing.T) {
	body := `window.__INITIAL_DATA__ = {"search":{"fetchSearchResponse":{"results":[{"personOpk":"x"}]}}};`
	got, err := NewExtractor("window.__INITIAL_DATA__").Extract(wrapScript(body))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Identity() != "x" {
		t.Errorf("got %v", got)
	}
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		reason string
	}{
		{
			"no script with marker",
			wrapScript(`window.somethingElse = {};`),
			ReasonMarkerNotFound,
		},
		{
			"marker only in body text",
			`<html><body><p>window.__ROVER_INITIAL_DATA__ = {}</p></body></html>`,
			ReasonMarkerNotFound,
		},
		{
			"marker without assignment",
			wrapScript(`console.log(window.__ROVER_INITIAL_DATA__);`),
			ReasonNoAssignment,
		},
		{
			"irreparable payload",
			wrapScript(`window.__ROVER_INITIAL_DATA__ = {"search": {"fetchSearchResponse": [1, 2,, }};`),
			ReasonInvalidJSON,
		},
		{
			"truncated payload",
			wrapScript(`window.__ROVER_INITIAL_DATA__ = {"search": {"fetchSearchResponse": {`),
			ReasonInvalidJSON,
		},
		{
			"missing results",
			wrapScript(`window.__ROVER_INITIAL_DATA__ = {"search": {"fetchSearchResponse": {}}};`),
			ReasonUnexpectedShape,
		},
		{
			"missing search",
			wrapScript(`window.__ROVER_INITIAL_DATA__ = {"user": {}};`),
			ReasonUnexpectedShape,
		},
		{
			"results not a list",
			wrapScript(`window.__ROVER_INITIAL_DATA__ = {"search": {"fetchSearchResponse": {"results": {"a": 1}}}};`),
			ReasonUnexpectedShape,
		},
		{
			"result not an object",
			wrapScript(`window.__ROVER_INITIAL_DATA__ = {"search": {"fetchSearchResponse": {"results": [1]}}};`),
			ReasonUnexpectedShape,
		},
		{
			"payload is a list",
			wrapScript(`window.__ROVER_INITIAL_DATA__ = [];`),
			ReasonUnexpectedShape,
		},
	}

	for _, tt := range tests {
		_, err := ExtractListings(tt.markup)
		var xe *ExtractionError
		if !errors.As(err, &xe) {
			t.Errorf("%s: error = %v (%T); want *ExtractionError", tt.name, err, err)
			continue
		}
		if xe.Reason != tt.reason {
			t.Errorf("%s: reason = %q; want %q", tt.name, xe.Reason, tt.reason)
		}
	}
}

func TestExtractSyntaxErrorCarriesOffset(t *testing.T) {
	_, err := ExtractListings(wrapScript(`window.__ROVER_INITIAL_DATA__ = {"search": ]};`))
	var xe *ExtractionError
	if !errors.As(err, &xe) {
		t.Fatalf("error = %v; want *ExtractionError", err)
	}
	if xe.Offset <= 0 {
		t.Errorf("Offset: got %d, want a positive position", xe.Offset)
	}
	if !strings.Contains(xe.Error(), "offset") {
		t.Errorf("Error() = %q; want the offset mentioned", xe.Error())
	}
}

func TestRepairSteps(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"slashes", unescapeSlashes, `"a\/b` + escSlash + `c"`, `"a/b/c"`},
		{"terminator", stripTerminator, "{\"a\":1};\n  ", `{"a":1}`},
		{"undefined token", replaceUndefined, `{"a":undefined,"b":[undefined]}`, `{"a":"","b":[""]}`},
		{"undefined inside identifier", replaceUndefined, `{"a":isundefined}`, `{"a":isundefined}`},
		{"undefined inside string", replaceUndefined, `{"a":"undefined"}`, `{"a":"undefined"}`},
		{"date wrapper", stripDateConstructors, `{"d":new Date("x"),"e":1}`, `{"d":"x"),"e":1}`},
		{"dangling paren", dropDanglingParens, `{"d":"x"),"e":"(y)"}`, `{"d":"x","e":"(y)"}`},
		{"escaped quote in string", replaceUndefined, `{"a":"say \"undefined\"","b":undefined}`, `{"a":"say \"undefined\"","b":""}`},
	}

	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("%s: got %q; want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtractedListingsAreRawListings(t *testing.T) {
	body := `window.__ROVER_INITIAL_DATA__ = {"search":{"fetchSearchResponse":{"results":[{"personOpk":"p","shortName":"Pat"}]}}};`
	got, err := ExtractListings(wrapScript(body))
	if err != nil {
		t.Fatal(err)
	}
	var _ models.RawListing = got[0]
	if got[0].Name() != "Pat" {
		t.Errorf("Name: got %q", got[0].Name())
	}
}
