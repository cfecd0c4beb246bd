package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harveysanders/soundcard/tone"
	"github.com/harveysanders/soundcard/tune"
)

// table writes one row per note: the full-width timer values, what lands
// in the registers and the pitch actually produced.
func table(w io.Writer, song tune.Song, gen tone.Generator) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tnote\tms\tperiod\tduty\tPR\tDR\tCCPRL\tout Hz\toverflow\t")
	for i, n := range song.Notes() {
		if n.IsRest() {
			fmt.Fprintf(tw, "%d\tR\t%d\t-\t-\t-\t-\t-\t-\t\t\n", i, n.Ms)
			continue
		}
		s := gen.Compute(n.Pitch)
		pr, dr := s.Registers()
		over := ""
		if s.Overflows() {
			over = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%s\t\n",
			i, tune.NameOf(n.Pitch), n.Ms, s.Period, s.Duty, pr, dr, s.CCPRL(), float64(gen.Frequency(pr)), over)
	}
	fmt.Fprintf(tw, "\t%d notes\t%d\t\t\t\t\t\t\t\t\n", song.Len(), song.Duration().Milliseconds())
	return tw.Flush()
}
