package cmd

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"spawnbot/internal/tracker"
)

var (
	nextReset string
	nextCount int
)

var bossesCmd = &cobra.Command{
	Use:   "bosses",
	Short: "Print the entity catalog.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, _, err := offlineEnv()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tLOCATION")
		for _, d := range cat.All() {
			typ := "fixed"
			if d.Kind == tracker.KindVariable {
				typ = fmt.Sprintf("%dh", d.IntervalHours)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Name, typ, d.Location)
		}
		return w.Flush()
	},
}

var nextCmd = &cobra.Command{
	Use:   "next <id>",
	Short: "Preview the next occurrences of an entity.",
	Long: `Preview the next occurrences of an entity.

Fixed-time entities list their upcoming weekly slots. Variable entities need
--reset with the reported kill time; the accepted formats are those of
/killtime.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, loc, err := offlineEnv()
		if err != nil {
			return err
		}
		def, ok := cat.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown entity %q", args[0])
		}
		now := time.Now().In(loc)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s) at %s\n", def.Name, def.Kind, def.Location)

		switch def.Kind {
		case tracker.KindFixed:
			occ := tracker.NextSlotOccurrences(def.Slots, now)
			slices.SortFunc(occ, func(a, b time.Time) int { return a.Compare(b) })
			for i, t := range occ {
				if nextCount > 0 && i >= nextCount {
					break
				}
				fmt.Fprintf(out, "  %s  (in %s)\n", tracker.FormatZone(t, tracker.LayoutDateTime), tracker.FormatRemaining(t.Sub(now)))
			}
		default:
			if strings.TrimSpace(nextReset) == "" {
				return fmt.Errorf("%s respawns %d hours after a kill; pass --reset", def.Name, def.IntervalHours)
			}
			at, err := tracker.ParseManualTime(nextReset, now)
			if err != nil {
				return err
			}
			t := tracker.VariableOccurrence(at, def.IntervalHours)
			fmt.Fprintf(out, "  killed   %s\n", tracker.FormatZone(at, tracker.LayoutDateTime))
			fmt.Fprintf(out, "  respawns %s  (in %s)\n", tracker.FormatZone(t, tracker.LayoutDateTime), tracker.FormatRemaining(t.Sub(now)))
		}
		return nil
	},
}

var parseTimeCmd = &cobra.Command{
	Use:   "parse-time <text>",
	Short: "Show how a manual kill time is interpreted.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, loc, err := offlineEnv()
		if err != nil {
			return err
		}
		now := time.Now().In(loc)
		at, err := tracker.ParseManualTime(strings.Join(args, " "), now)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "now:    %s\nparsed: %s\n", now.Format(time.RFC3339), at.Format(time.RFC3339))
		return nil
	},
}

//nolint:gochecknoinits // cobra wiring
func init() {
	nextCmd.Flags().StringVar(&nextReset, "reset", "", "kill time for variable entities")
	nextCmd.Flags().IntVarP(&nextCount, "count", "n", 0, "limit the number of fixed slots shown")
}
