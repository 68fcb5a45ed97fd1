package report

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/mentionlens/mentionlens/internal/core"
)

// maxPreviewChars bounds the excerpt length shown per hit in the document.
const maxPreviewChars = 500

// HTMLRenderer writes a self-contained HTML report: summary block up top,
// one card per contact with mentions, linked source documents per hit.
type HTMLRenderer struct {
	DocumentBaseURL string
	LogoPath        string
}

type htmlHit struct {
	Preview  string
	FilePath string
	URL      string
}

type htmlContact struct {
	Name     string
	Info     string
	Mentions int
	Hits     []htmlHit
}

type htmlPage struct {
	Logo          template.HTML
	PartialNotice string
	Summary       core.Summary
	Contacts      []htmlContact
}

// Render writes the report document. Contacts without mentions are counted
// in the summary but get no card.
func (r *HTMLRenderer) Render(w io.Writer, rep *core.Report) error {
	if rep == nil {
		return fmt.Errorf("html renderer: nil report")
	}

	page := htmlPage{
		Logo:    r.logoHTML(),
		Summary: rep.Summary,
	}
	if rep.Partial {
		page.PartialNotice = fmt.Sprintf(
			"Partial report: the run was interrupted after %d of %d connections.",
			rep.Summary.TotalSearched, rep.TotalInput)
	}

	for _, result := range rep.Results {
		if result.TotalMentions == 0 {
			continue
		}
		page.Contacts = append(page.Contacts, r.contactView(result))
	}

	return pageTemplate.Execute(w, page)
}

func (r *HTMLRenderer) contactView(result *core.Result) htmlContact {
	contact := htmlContact{
		Name:     result.Name,
		Mentions: result.TotalMentions,
	}

	switch {
	case result.Position != "" && result.Company != "":
		contact.Info = result.Position + " at " + result.Company
	case result.Position != "":
		contact.Info = result.Position
	case result.Company != "":
		contact.Info = result.Company
	}

	for _, hit := range result.Hits {
		preview := hit.Preview
		if len(preview) > maxPreviewChars {
			preview = preview[:maxPreviewChars]
		}
		contact.Hits = append(contact.Hits, htmlHit{
			Preview:  preview,
			FilePath: hit.FilePath,
			URL:      DocumentURL(r.DocumentBaseURL, hit.FilePath),
		})
	}
	return contact
}

// logoHTML inlines the logo image when one is available, otherwise falls
// back to a text header.
func (r *HTMLRenderer) logoHTML() template.HTML {
	if r.LogoPath != "" {
		if data, err := os.ReadFile(r.LogoPath); err == nil {
			encoded := base64.StdEncoding.EncodeToString(data)
			return template.HTML(`<img src="data:image/png;base64,` + encoded + `" alt="MentionLens" class="logo">`)
		}
	}
	return template.HTML(`<h1 class="logo" style="text-align: center;">MentionLens</h1>`)
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>MentionLens: Which LinkedIn Connections Appear in the Epstein Files?</title>
    <style>
        * { box-sizing: border-box; }
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif; line-height: 1.6; max-width: 1200px; margin: 0 auto; padding: 20px; background-color: #f5f5f5; }
        .logo { display: block; max-width: 300px; margin: 0 auto 20px auto; }
        .summary { background: #fff; padding: 20px; border-radius: 8px; margin-bottom: 30px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .partial-notice { background: #fff3cd; border: 1px solid #ffe69c; color: #664d03; padding: 14px 16px; border-radius: 8px; margin-bottom: 20px; }
        .contact { background: #fff; padding: 20px; margin-bottom: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .contact-header { display: flex; justify-content: space-between; align-items: center; border-bottom: 1px solid #eee; padding-bottom: 10px; margin-bottom: 15px; }
        .contact-name { font-size: 1.4em; font-weight: bold; color: #333; }
        .contact-info { color: #666; font-size: 0.9em; }
        .hit-count { background: #e74c3c; color: white; padding: 5px 15px; border-radius: 20px; font-weight: bold; }
        .hit { background: #f9f9f9; padding: 15px; margin-bottom: 10px; border-radius: 4px; border-left: 3px solid #3498db; }
        .hit-preview { color: #444; margin-bottom: 10px; font-size: 0.95em; }
        .hit-link { display: inline-block; color: #3498db; text-decoration: none; font-size: 0.85em; }
        .hit-link:hover { text-decoration: underline; }
        .no-results { color: #999; font-style: italic; }
        .footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #ddd; text-align: center; color: #666; font-size: 0.9em; }
        .footer a { color: #3498db; text-decoration: none; }
        .footer a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    {{.Logo}}
{{- if .PartialNotice}}
    <div class="partial-notice">{{.PartialNotice}}</div>
{{- end}}
    <div class="summary">
        <strong>Total connections searched:</strong> {{.Summary.TotalSearched}}<br>
        <strong>Connections with mentions:</strong> {{.Summary.WithMentions}}
    </div>
{{- range .Contacts}}
    <div class="contact">
        <div class="contact-header">
            <div>
                <div class="contact-name">{{.Name}}</div>
                <div class="contact-info">{{.Info}}</div>
            </div>
            <div class="hit-count">{{.Mentions}} mentions</div>
        </div>
{{- if .Hits}}
{{- range .Hits}}
        <div class="hit">
            <div class="hit-preview">{{.Preview}}</div>
{{- if .URL}}
            <a class="hit-link" href="{{.URL}}" target="_blank">View PDF: {{.FilePath}}</a>
{{- end}}
        </div>
{{- end}}
{{- else}}
        <div class="no-results">Hit details not available</div>
{{- end}}
    </div>
{{- end}}
    <div class="footer">
        Epstein files indexed by <a href="https://dugganusa.com" target="_blank">DugganUSA.com</a>
    </div>
</body>
</html>
`))
