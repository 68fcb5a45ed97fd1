// Package report renders the sorted result aggregate into output artifacts.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mentionlens/mentionlens/internal/core"
)

// Format represents an output artifact format.
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// Renderer turns a report aggregate into a document.
type Renderer interface {
	Render(w io.Writer, report *core.Report) error
}

// Options carry renderer configuration shared across formats.
type Options struct {
	// DocumentBaseURL is the public base for source document links.
	DocumentBaseURL string

	// LogoPath points at an optional PNG inlined into the HTML header.
	LogoPath string
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatHTML):
		return FormatHTML, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported report format: %s", value)
	}
}

// NewRenderer returns a renderer for the requested format.
func NewRenderer(format Format, opts Options) Renderer {
	switch format {
	case FormatJSON:
		return &JSONRenderer{Indent: true}
	default:
		return &HTMLRenderer{
			DocumentBaseURL: opts.DocumentBaseURL,
			LogoPath:        opts.LogoPath,
		}
	}
}
