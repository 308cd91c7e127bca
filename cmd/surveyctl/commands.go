package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"surveystats/internal/analytics"
	surveycfg "surveystats/internal/config"
	"surveystats/internal/ingest"
	"surveystats/internal/model"
	"surveystats/internal/report"
	"surveystats/internal/service"
)

func (c *cli) readTable(path string) (model.ResponseTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := ingest.ReadCSV(f, c.schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.logger.Debug("read responses", zap.String("file", path), zap.Int("records", len(table)))
	return table, nil
}

// writeOut saves t as CSV when path is set
func writeOut(path string, t *report.Table) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *cli) analyzeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "analyze [responses.csv]",
		Short: "Per-question and per-section statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := c.readTable(args[0])
			if err != nil {
				return err
			}
			a, err := analytics.Analyze(table, c.schema, c.options())
			if err != nil {
				return err
			}

			sum := report.NewSummary(a, 0, c.tableOptions())
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Participants: %d\n\n", a.Participants)
			fmt.Fprintln(w, sum.Questions.Render())
			fmt.Fprintln(w, sum.Sections.Render())
			fmt.Fprintln(w, report.OverallLine(a))
			fmt.Fprintln(w, sum.Conclusion)

			return writeOut(out, sum.Questions)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the question table as CSV")
	return cmd
}

func (c *cli) stratifyCmd() *cobra.Command {
	var by, out string
	cmd := &cobra.Command{
		Use:   "stratify [responses.csv]",
		Short: "Section statistics per demographic group",
		Long: "Section statistics per demographic group. Keys: " + keyList() + `.
Use --by all to run every key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := analytics.GroupingKeys
			if !strings.EqualFold(by, "all") {
				k, err := analytics.ParseGroupingKey(by)
				if err != nil {
					return err
				}
				keys = []analytics.GroupingKey{k}
			}

			table, err := c.readTable(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, k := range keys {
				res, err := analytics.Stratify(table, c.schema, k, c.options())
				if err != nil {
					return err
				}
				t := report.StratifiedTable(res)
				fmt.Fprintln(w, t.Render())
				if res.Excluded > 0 {
					fmt.Fprintf(w, "%d record(s) without a %s value were left out\n\n", res.Excluded, report.KeyLabel(k))
				}
				if len(keys) == 1 {
					if err := writeOut(out, t); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", string(analytics.GroupByGender), "grouping key")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the stratified table as CSV (single key only)")
	return cmd
}

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the active schema as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scale := c.schema.Scale()
			f := surveycfg.SchemaFile{
				ID:       c.schema.ID(),
				Title:    c.schema.Title(),
				Scale:    &scale,
				Sections: c.schema.Sections(),
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(f); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [responses.csv]",
		Short: "Store a response file in the survey database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := c.readTable(args[0])
			if err != nil {
				return err
			}
			a, err := c.connect(cmd)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			n, err := a.ResponseService.Import(cmd.Context(), table)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d response(s) into %s\n", n, c.schema.ID())
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var kind, by, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a report table computed from the survey database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.connect(cmd)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return a.ReportService.Export(cmd.Context(), w, kind, by)
		},
	}
	cmd.Flags().StringVar(&kind, "table", service.ExportQuestions, "questions, sections or stratified")
	cmd.Flags().StringVar(&by, "by", string(analytics.GroupByGender), "grouping key for stratified tables")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func keyList() string {
	keys := make([]string, len(analytics.GroupingKeys))
	for i, k := range analytics.GroupingKeys {
		keys[i] = string(k)
	}
	return strings.Join(keys, ", ")
}
