package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/forensics/internal/scorer"
	"github.com/sells-group/forensics/internal/store"
)

var analysesCmd = &cobra.Command{
	Use:   "analyses",
	Short: "Inspect saved analyses",
	Long:  "Commands for listing and viewing analyses saved with analyze --save or the HTTP API.",
}

// -- analyses list --

var analysesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved analyses, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		entity, _ := cmd.Flags().GetString("entity")
		rating, _ := cmd.Flags().GetString("rating")
		interp, _ := cmd.Flags().GetString("interpretation")
		year, _ := cmd.Flags().GetInt("year")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.AnalysisFilter{
			Entity:         entity,
			FiscalYear:     year,
			Rating:         scorer.Rating(rating),
			Interpretation: scorer.Interpretation(interp),
			Limit:          limit,
		}

		list, err := st.ListAnalyses(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "analyses list")
		}

		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No analyses found.")
			return nil
		}

		formatAnalysesList(os.Stdout, list)
		return nil
	},
}

// -- analyses show --

var analysesShowCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Show a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		a, err := st.GetAnalysis(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "analyses show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	},
}

func init() {
	analysesListCmd.Flags().String("entity", "", "filter by entity")
	analysesListCmd.Flags().String("rating", "", "filter by rating (excellent, good, fair, poor, critical)")
	analysesListCmd.Flags().String("interpretation", "", "filter by any score interpretation (e.g. distress)")
	analysesListCmd.Flags().Int("year", 0, "filter by fiscal year")
	analysesListCmd.Flags().Int("limit", 50, "max number of analyses to display")

	analysesCmd.AddCommand(analysesListCmd)
	analysesCmd.AddCommand(analysesShowCmd)
	rootCmd.AddCommand(analysesCmd)
}

// formatAnalysesList writes a tabular list of analyses to w.
func formatAnalysesList(out io.Writer, list []store.Analysis) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tENTITY\tYEAR\tRATING\tINTERPRETATIONS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t----\t------\t---------------\t-------")

	for _, a := range list {
		entity := a.Entity
		if len(entity) > 30 {
			entity = entity[:27] + "..."
		}

		interps := []string{}
		if res, err := a.Decode(); err == nil {
			for _, name := range scorer.Names() {
				if s, ok := res.Scores[name]; ok {
					interps = append(interps, string(s.Interpretation))
				}
			}
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			truncateID(a.ID),
			entity,
			a.FiscalYear,
			a.Rating,
			strings.Join(interps, ","),
			a.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
