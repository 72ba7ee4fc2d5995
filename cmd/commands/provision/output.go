package provision

import (
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/gcpm/internal/domain"

	"github.com/spf13/cobra"
)

// runOutput is the JSON shape printed by -o json.
type runOutput struct {
	Run       *domain.Run `json:"run,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"errorKind,omitempty"`
}

func newRunOutput(run *domain.Run, err error) runOutput {
	out := runOutput{Run: run}
	if err != nil {
		out.Error = err.Error()
		out.ErrorKind = domain.Kind(err)
	}
	return out
}

// printStages prints the final status of every stage.
func printStages(cmd *cobra.Command, run *domain.Run) {
	fmt.Fprintln(cmd.OutOrStdout())
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tSTATUS\tDETAIL")
	fmt.Fprintln(w, "-----\t------\t------")
	for _, s := range run.Stages {
		detail := s.Message
		if detail == "" {
			detail = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Title, s.Status, detail)
	}
	w.Flush()
}

// printLog replays the run log after the full-screen view closes.
func printLog(cmd *cobra.Command, run *domain.Run) {
	for _, line := range run.Lines() {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}
