package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/format"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/timezone"
)

// newTZCmd creates `remindclaw tz`, which shows what a timezone token
// resolves to.
func newTZCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tz <token>",
		Short: "Resolve a timezone token",
		Long: `Resolve a timezone token ("est", "tokyo", "CEST", "Europe/Berlin") the
way !remindme settimezone does.

Examples:
  remindclaw tz jst
  remindclaw tz new_york`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			r := timezone.NewResolver(nil, now)
			loc, err := r.Resolve(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) %s\n", loc, format.ZoneName(loc, now), format.Clock(now.In(loc)))
			tok := strings.ToUpper(strings.TrimSpace(args[0]))
			if abbr, ok := r.Abbreviations().Lookup(tok); ok {
				fmt.Fprintf(out, "abbreviation %s is currently recorded for %s\n", tok, abbr)
			}
			return nil
		},
	}
}
