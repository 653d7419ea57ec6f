package main

import (
	"fmt"
	"os"

	"complaint-insights-go/internal/actionable"
	"complaint-insights-go/internal/config"
	"complaint-insights-go/internal/dataset"
	"complaint-insights-go/internal/narrative"
	"complaint-insights-go/internal/processor"
	"complaint-insights-go/internal/report"
	"complaint-insights-go/internal/types"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "complaints-report",
		Short: "Build complaint reports and findings from an export",
	}

	rootCmd.AddCommand(
		newGenerateCmd(),
		newFindingsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// filterFlags are shared by every subcommand.
type filterFlags struct {
	input       string
	city        string
	category    string
	sentiment   string
	productType string
}

func (f *filterFlags) register(cmd *cobra.Command, defaultInput string) {
	cmd.Flags().StringVar(&f.input, "input", defaultInput, "Complaint export (.xlsx or .csv)")
	cmd.Flags().StringVar(&f.city, "city", dataset.All, "Filter by city")
	cmd.Flags().StringVar(&f.category, "category", dataset.All, "Filter by category")
	cmd.Flags().StringVar(&f.sentiment, "sentiment", dataset.All, "Filter by sentiment")
	cmd.Flags().StringVar(&f.productType, "product-type", dataset.All, "Filter by product type")
}

func (f *filterFlags) set() dataset.FilterSet {
	return dataset.FilterSet{
		types.ColCity:        f.city,
		types.ColCategory:    f.category,
		types.ColSentiment:   f.sentiment,
		types.ColProductType: f.productType,
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// the CLI is usable without any environment
		return config.Default()
	}
	return cfg
}

func newGenerateCmd() *cobra.Command {
	cfg := loadConfig()
	var filters filterFlags
	var out, format, logo, themeName string
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render the report to a file",
		Long: `Render the full complaint report (cover, summary, charts, findings,
recommendations and sample comments) for the filtered export.

Example: complaints-report generate --input complaints.xlsx --format pdf --city Austin --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			rc := cfg.Report
			rc.Theme = themeName
			if cmd.Flags().Changed("seed") {
				rc.Seed = &seed
			}
			opts, err := report.OptionsFromConfig(rc)
			if err != nil {
				return err
			}

			t, err := dataset.Load(filters.input)
			if err != nil {
				return err
			}
			res, err := processor.GenerateReportFile(t, processor.Request{
				Filters:  filters.set(),
				Format:   f,
				Options:  opts,
				LogoPath: logo,
			}, out)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "report %s written to %s (%d bytes, %d sections)\n",
				res.Report.ID, res.Path, res.Bytes, len(res.Report.Sections))
			for _, sk := range res.Report.Skipped {
				fmt.Fprintf(w, "  skipped %s: %s\n", sk.Kind, sk.Reason)
			}
			for _, warn := range res.Report.Warnings {
				fmt.Fprintf(w, "  warning: %s\n", warn)
			}
			return nil
		},
	}

	filters.register(cmd, cfg.Paths.Dataset)
	cmd.Flags().StringVar(&out, "out", ".", "Output file or directory")
	cmd.Flags().StringVar(&format, "format", string(report.FormatPDF), "Output format: pdf|xlsx|html")
	cmd.Flags().StringVar(&logo, "logo", cfg.Paths.Logo, "Logo stamped on every PDF page")
	cmd.Flags().StringVar(&themeName, "theme", cfg.Report.Theme, "Colour theme: corporate|classic")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for comment sampling (unset samples randomly)")
	return cmd
}

func newFindingsCmd() *cobra.Command {
	cfg := loadConfig()
	var filters filterFlags
	var withActions bool

	cmd := &cobra.Command{
		Use:   "findings",
		Short: "Print the key findings of the filtered export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := dataset.Load(filters.input)
			if err != nil {
				return err
			}
			ft := dataset.Apply(t, filters.set())
			findings := narrative.Synthesize(ft)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d complaints\n", ft.Len())
			for _, f := range findings {
				fmt.Fprintln(w, f.Text())
			}
			if withActions {
				fmt.Fprintln(w)
				for _, c := range actionable.Generate(findings) {
					fmt.Fprintf(w, "- %s: %s (%s)\n", c.Insight, c.Action, c.Impact)
				}
			}
			return nil
		},
	}

	filters.register(cmd, cfg.Paths.Dataset)
	cmd.Flags().BoolVar(&withActions, "actions", false, "Also print recommendations")
	return cmd
}
