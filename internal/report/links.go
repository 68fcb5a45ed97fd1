package report

import (
	"net/url"
	"strings"
)

// DefaultDocumentBaseURL is the public base for source document links.
const DefaultDocumentBaseURL = "https://www.justice.gov/epstein/files/"

// DocumentURL normalizes a hit's source path into a public link. The hosted
// archive cases the path segment as "DataSet" while the search index reports
// "dataset"; the first occurrence is substituted. The path is percent-escaped
// preserving separators, and an absolute path never produces a doubled slash
// against a base URL that ends in one.
func DocumentURL(baseURL, filePath string) string {
	if filePath == "" {
		return ""
	}
	if baseURL == "" {
		baseURL = DefaultDocumentBaseURL
	}

	fixed := strings.Replace(filePath, "dataset", "DataSet", 1)
	escaped := (&url.URL{Path: fixed}).EscapedPath()

	if strings.HasPrefix(fixed, "/") {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return baseURL + escaped
}
