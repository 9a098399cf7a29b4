package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/onnwee/collegefit/internal/college"
	"github.com/onnwee/collegefit/internal/export"
	"github.com/onnwee/collegefit/internal/ranking"
	"github.com/onnwee/collegefit/internal/recommend"
)

type rankOptions struct {
	catalog       string
	states        []string
	maxCost       float64
	sat           float64
	act           float64
	gpa           float64
	priorities    []string
	top           int
	noSelectivity bool
	calibration   string
	jsonOut       bool
	xlsxPath      string
}

func newRankCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	opts := &rankOptions{}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the colleges in a catalog file",
		Example: `  rankctl rank --catalog colleges.json --state CA --state NY --sat 1350 \
    --priority academics=3 --priority cost=1 --top 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd, opts, logger(cmd))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.catalog, "catalog", "", "JSON catalog file (required)")
	f.StringSliceVar(&opts.states, "state", nil, "restrict to state codes (repeatable or comma-separated)")
	f.Float64Var(&opts.maxCost, "max-cost", 0, "maximum cost of attendance")
	f.Float64Var(&opts.sat, "sat", 0, "student SAT score")
	f.Float64Var(&opts.act, "act", 0, "student ACT composite")
	f.Float64Var(&opts.gpa, "gpa", 0, "student GPA")
	f.StringArrayVar(&opts.priorities, "priority", nil, "category weight as name=weight (repeatable)")
	f.IntVar(&opts.top, "top", 0, "number of colleges to show (0 uses the calibrated default)")
	f.BoolVar(&opts.noSelectivity, "no-selectivity", false, "do not treat a low admission rate as better")
	f.StringVar(&opts.calibration, "calibration", "", "JSON calibration file overriding pipeline constants")
	f.BoolVar(&opts.jsonOut, "json", false, "print results as JSON")
	f.StringVar(&opts.xlsxPath, "xlsx", "", "also write results to this .xlsx file")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

// parsePriorities reads name=weight pairs.
func parsePriorities(pairs []string) (ranking.Priorities, error) {
	p := make(ranking.Priorities, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("priority %q must be name=weight", pair)
		}
		c, ok := ranking.ParseCategory(name)
		if !ok {
			return nil, fmt.Errorf("unknown priority category %q", name)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || w < 0 {
			return nil, fmt.Errorf("priority %q needs a non-negative weight", name)
		}
		p[c] = w
	}
	return p, nil
}

func (o *rankOptions) query(cmd *cobra.Command) (recommend.Query, error) {
	priorities, err := parsePriorities(o.priorities)
	if err != nil {
		return recommend.Query{}, err
	}
	if o.top < 0 {
		return recommend.Query{}, errors.New("--top must not be negative")
	}

	q := recommend.Query{
		Filter:            college.Filter{States: o.states},
		Priorities:        priorities,
		TopN:              o.top,
		PreferSelectivity: !o.noSelectivity,
	}
	flags := cmd.Flags()
	if flags.Changed("max-cost") {
		q.Filter.MaxCost = &o.maxCost
	}
	if flags.Changed("sat") {
		q.Profile.SAT = &o.sat
	}
	if flags.Changed("act") {
		q.Profile.ACT = &o.act
	}
	if flags.Changed("gpa") {
		q.Profile.GPA = &o.gpa
	}
	return q, nil
}

func runRank(cmd *cobra.Command, opts *rankOptions, logger *slog.Logger) error {
	q, err := opts.query(cmd)
	if err != nil {
		return err
	}

	repo, err := college.LoadJSON(opts.catalog)
	if err != nil {
		return err
	}
	cal, err := ranking.LoadCalibration(opts.calibration)
	if err != nil {
		return err
	}

	svc := recommend.NewService(repo, ranking.NewEngine(cal, ranking.WithLogger(logger)), logger)
	rec, err := svc.Recommend(cmd.Context(), q)
	if err != nil {
		if ranking.IsNoMatch(err) || ranking.IsInsufficientData(err) {
			return errors.Unwrap(err)
		}
		return err
	}

	if opts.xlsxPath != "" {
		if err := writeXLSXFile(opts.xlsxPath, rec.Results); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	_, err = fmt.Fprintln(out, renderTable(rec.Results))
	if err == nil {
		_, err = fmt.Fprintf(out, "%d of %d candidates shown\n", len(rec.Results), rec.CandidateCount)
	}
	return err
}

func writeXLSXFile(path string, results []ranking.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return export.WriteXLSX(f, results)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// renderTable lays results out one row per college with a column per
// populated bucket. Missing bucket scores print as "-".
func renderTable(results []ranking.Result) string {
	var cats []ranking.Category
	for _, c := range ranking.Categories() {
		for _, r := range results {
			if _, ok := r.Buckets[c]; ok {
				cats = append(cats, c)
				break
			}
		}
	}

	headers := []string{"#", "College", "State", "Score"}
	for _, c := range cats {
		headers = append(headers, c.String())
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Rank),
			r.College.Name,
			r.College.State,
			strconv.FormatFloat(r.Score, 'f', 3, 64),
		}
		for _, c := range cats {
			if v, ok := r.Buckets[c]; ok {
				row = append(row, strconv.FormatFloat(v, 'f', 3, 64))
			} else {
				row = append(row, "-")
			}
		}
		t.Row(row...)
	}
	return t.String()
}
