package replay

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderSummary writes the replay statistics as a table.
func RenderSummary(w io.Writer, s *Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("rinkcast replay")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	var avg time.Duration
	if s.Submitted > 0 {
		avg = s.TotalLatency / time.Duration(s.Submitted)
	}
	t.AppendRows([]table.Row{
		{"Rosters generated", s.Generated},
		{"Rosters submitted", s.Submitted},
		{"Passed", s.Passed},
		{"Failed", s.Failed},
		{"Request errors", s.Errors},
		{"Violations", s.Violations},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Shot fallbacks", s.Fallbacks},
		{"Idempotent", fmt.Sprintf("%d/%d", s.IdempotentRuns, s.Submitted)},
		{"Runs fetched back", s.RunsFetched},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Avg latency", avg.Round(time.Microsecond)},
		{"Max latency", s.MaxLatency.Round(time.Microsecond)},
		{"Duration", s.Duration.Round(time.Millisecond)},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}
