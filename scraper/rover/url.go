package rover

import (
	"net/url"
	"strconv"
	"strings"

	"sitter-scraper/config"
)

// DefaultSearchURL is the search results endpoint.
const DefaultSearchURL = "https://www.rover.com/search/"

// BuildSearchURL returns base with the page number and every configured
// query appended in order. String values are escaped the way browsers'
// encodeURIComponent does; other values are passed through as written.
func BuildSearchURL(base string, page int, queries config.URLQueries) string {
	var b strings.Builder
	b.WriteString(base)
	if strings.Contains(base, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	b.WriteString("page=")
	b.WriteString(strconv.Itoa(page))

	for _, q := range queries {
		b.WriteByte('&')
		b.WriteString(q.Name)
		b.WriteByte('=')
		if q.IsString {
			b.WriteString(encodeComponent(q.Value))
		} else {
			b.WriteString(q.Value)
		}
	}
	return b.String()
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
