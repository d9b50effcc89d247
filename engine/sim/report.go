package sim

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Report formats accepted by WriteReport.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// WriteReport writes sweep entries as an aligned text table or as YAML.
func WriteReport(w io.Writer, entries []SweepEntry, format string) error {
	switch format {
	case FormatText, "":
		return writeText(w, entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func writeText(w io.Writer, entries []SweepEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "variant\tmodel\tgames\tescape\t95% CI\tcapture\tlimit\tturns\tmelds\tpursuer melds")
	for _, e := range entries {
		r := e.Result
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f%%\t[%.1f%%, %.1f%%]\t%.1f%%\t%d\t%.2f\t%.2f\t%.2f\n",
			e.Name, e.Model, r.Games,
			100*r.EscapePct, 100*r.CI95Low, 100*r.CI95High,
			100*r.CapturePct, r.TerminatedByLimit,
			r.MeanTurns, r.MeanPlayerMelds, r.MeanPursuerMelds)
	}
	return tw.Flush()
}
