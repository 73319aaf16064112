package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/format"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/timeparse"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/timezone"
)

// newParseCmd creates `remindclaw parse`, which shows how an expression
// would be scheduled without storing anything.
func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <expression...>",
		Short: "Resolve a reminder expression",
		Long: `Resolve a reminder expression the way !remindme would and print the
due instant, the reminder text and the confirmation line.

Examples:
  remindclaw parse --tz est 4:13 PM call mom
  remindclaw parse --now 2021-01-01T00:00:00Z 5 weeks Do something!`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParse,
	}

	cmd.Flags().String("tz", "", "timezone token (default: UTC)")
	cmd.Flags().String("now", "", "reference time in RFC3339 (default: current time)")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	now := time.Now()
	if s, _ := cmd.Flags().GetString("now"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("--now: %w", err)
		}
		now = t
	}

	loc := time.UTC
	if tz, _ := cmd.Flags().GetString("tz"); tz != "" {
		l, err := timezone.NewResolver(nil, now).Resolve(tz)
		if err != nil {
			return err
		}
		loc = l
	}

	res, err := timeparse.Parse(strings.Join(args, " "), loc, now)
	if err != nil {
		return err
	}

	kind := "relative"
	if res.Absolute {
		kind = "absolute"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "due:      %s\n", res.Due.Format(time.RFC3339))
	fmt.Fprintf(out, "local:    %s\n", res.Due.In(loc).Format(time.RFC3339))
	fmt.Fprintf(out, "kind:     %s\n", kind)
	fmt.Fprintf(out, "text:     %q\n", res.Text)
	fmt.Fprintf(out, "reminder: %s\n", format.Reminder(res.Due, res.Text, loc, now))
	return nil
}
