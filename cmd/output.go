package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/forensics/internal/financials"
	"github.com/sells-group/forensics/internal/scorer"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
	formatCSV   outputFormat = "csv"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case formatTable, formatJSON, formatYAML, formatCSV:
		return f, nil
	default:
		return "", eris.Errorf("unknown format %q (want table, json, yaml or csv)", s)
	}
}

// headlineFields are the statement lines shown in table output.
var headlineFields = []financials.Field{
	financials.Revenue,
	financials.NetIncome,
	financials.OperatingCashFlow,
	financials.TotalAssets,
	financials.TotalLiabilities,
	financials.Cash,
}

// reportEntry is the serialized form of a fileResult.
type reportEntry struct {
	File   string `json:"file"`
	Entity string `json:"entity"`
	ID     string `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

func writeResults(w io.Writer, format outputFormat, results []fileResult) error {
	switch format {
	case formatJSON:
		return writeJSON(w, results)
	case formatYAML:
		return writeYAML(w, results)
	case formatCSV:
		return writeCSV(w, results)
	default:
		writeTable(w, results)
		return nil
	}
}

func reportEntries(results []fileResult) []reportEntry {
	entries := make([]reportEntry, 0, len(results))
	for _, r := range results {
		e := reportEntry{File: r.Path, Entity: r.Entity, ID: r.ID}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		if r.Result != nil {
			e.Result = r.Result
		}
		entries = append(entries, e)
	}
	return entries
}

func writeJSON(w io.Writer, results []fileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(reportEntries(results)), "write json")
}

// writeYAML round-trips through JSON so YAML keys match the JSON field names.
func writeYAML(w io.Writer, results []fileResult) error {
	data, err := json.Marshal(reportEntries(results))
	if err != nil {
		return eris.Wrap(err, "write yaml")
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return eris.Wrap(err, "write yaml")
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "write yaml")
	}
	return eris.Wrap(enc.Close(), "write yaml")
}

var csvColumns = []string{"file", "entity", "fiscal_year", "rating", "score", "value", "interpretation", "error"}

// writeCSV writes one row per available score. Files without scores still
// get a row so failures are visible.
func writeCSV(w io.Writer, results []fileResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return eris.Wrap(err, "write csv")
	}

	for _, r := range results {
		if r.Err != nil || r.Result == nil {
			msg := ""
			if r.Err != nil {
				msg = r.Err.Error()
			}
			if err := cw.Write([]string{r.Path, r.Entity, "", "", "", "", "", msg}); err != nil {
				return eris.Wrap(err, "write csv")
			}
			continue
		}

		year := strconv.Itoa(r.Result.FiscalYear)
		rating := string(r.Result.Rating.Rating)
		wrote := false
		for _, name := range scorer.Names() {
			s, ok := r.Result.Scores[name]
			if !ok {
				continue
			}
			row := []string{r.Path, r.Entity, year, rating, string(name),
				strconv.FormatFloat(s.Score, 'f', -1, 64), string(s.Interpretation), ""}
			if err := cw.Write(row); err != nil {
				return eris.Wrap(err, "write csv")
			}
			wrote = true
		}
		if !wrote {
			if err := cw.Write([]string{r.Path, r.Entity, year, rating, "", "", "", ""}); err != nil {
				return eris.Wrap(err, "write csv")
			}
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "write csv")
}

// writeTable writes a human-readable report per file.
func writeTable(out io.Writer, results []fileResult) {
	p := message.NewPrinter(language.English)

	for i, r := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		if r.Err != nil {
			_, _ = fmt.Fprintf(out, "%s: error: %v\n", r.Path, r.Err)
			continue
		}

		res := r.Result
		_, _ = fmt.Fprintf(out, "%s (%s)\n", r.Entity, r.Path)
		_, _ = fmt.Fprintf(out, "Fiscal year %d, rating %s", res.FiscalYear, strings.ToUpper(string(res.Rating.Rating)))
		if r.ID != "" {
			_, _ = fmt.Fprintf(out, ", saved as %s", r.ID)
		}
		_, _ = fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, f := range headlineFields {
			if v, ok := res.Financials.Get(f); ok {
				_, _ = p.Fprintf(w, "  %s\t%.0f\n", f, v)
			}
		}
		_ = w.Flush()

		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "SCORE\tVALUE\tINTERPRETATION")
		_, _ = fmt.Fprintln(w, "-----\t-----\t--------------")
		for _, name := range scorer.Names() {
			s, ok := res.Scores[name]
			if !ok {
				_, _ = fmt.Fprintf(w, "%s\t-\twithheld\n", name)
				continue
			}
			_, _ = fmt.Fprintf(w, "%s\t%.2f\t%s\n", name, s.Score, s.Interpretation)
		}
		_ = w.Flush()

		for _, f := range res.Rating.RedFlags {
			_, _ = fmt.Fprintf(out, "  [red] %s\n", f)
		}
		for _, f := range res.Rating.GreenFlags {
			_, _ = fmt.Fprintf(out, "  [green] %s\n", f)
		}
	}
}
