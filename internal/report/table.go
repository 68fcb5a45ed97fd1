package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mentionlens/mentionlens/internal/core"
)

// DefaultTopMentions bounds the terminal summary to the highest-ranked rows.
const DefaultTopMentions = 20

// WriteSummary renders the run summary and the top mentions as a terminal
// table. It complements the report artifact rather than replacing it.
func WriteSummary(w io.Writer, rep *core.Report, topN int) {
	if rep == nil {
		return
	}
	if topN <= 0 {
		topN = DefaultTopMentions
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Mentions", "Name", "Company", "Position"})

	shown := 0
	for _, result := range rep.Results {
		if result.TotalMentions == 0 || shown >= topN {
			break
		}
		shown++
		t.AppendRow(table.Row{shown, result.TotalMentions, result.Name, result.Company, result.Position})
	}

	t.AppendFooter(table.Row{
		"", "",
		fmt.Sprintf("%d/%d with mentions", rep.Summary.WithMentions, rep.Summary.TotalSearched),
		"", "",
	})

	if shown == 0 {
		fmt.Fprintln(w, "No connections found in the indexed files.")
		return
	}
	t.Render()
}
