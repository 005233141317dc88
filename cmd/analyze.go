package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/assessment-cli/internal/assessment"
	"github.com/sells-group/assessment-cli/internal/catalog"
	"github.com/sells-group/assessment-cli/internal/model"
)

// answerFile is the input of the analyze command.
type answerFile struct {
	Context model.SessionContext `json:"context" yaml:"context"`
	Answers map[string]any       `json:"answers" yaml:"answers"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <answers-file>",
	Short: "Run the analysis pipeline over an answer file",
	Long:  "Reads a JSON or YAML file of answers keyed by question ID and prints the scores, alerts and recommendations. Nothing is stored.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in, err := readAnswerFile(args[0])
		if err != nil {
			return err
		}

		questions, err := loadCatalog(ctx)
		if err != nil {
			return err
		}
		comps, err := buildComponents(cfg)
		if err != nil {
			return err
		}
		svc := assessment.New(catalog.New(questions), nil, comps)

		res, err := svc.Analyze(ctx, model.AnswerSet(in.Answers), in.Context)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		formatAnalysis(os.Stdout, res)
		return nil
	},
}

// readAnswerFile parses a JSON or YAML answer file, chosen by extension.
func readAnswerFile(path string) (*answerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read answers file")
	}

	var in answerFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &in)
	default:
		err = json.Unmarshal(data, &in)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "parse answers file %s", path)
	}
	if len(in.Answers) == 0 {
		return nil, eris.Errorf("answers file %s has no answers", path)
	}
	return &in, nil
}

func formatAnalysis(w io.Writer, res *model.AnalysisResult) {
	fmt.Fprintf(w, "Composite score: %.1f (%s)\n", res.Score.Composite, res.Score.Maturity)
	if len(res.Analyzers.Failed) > 0 {
		fmt.Fprintf(w, "Failed analyzers: %d\n", len(res.Analyzers.Failed))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nDIMENSION\tSCORE")
	for _, dim := range sortedKeys(res.Dimensions) {
		fmt.Fprintf(tw, "%s\t%.1f\n", dim, res.Dimensions[dim])
	}
	tw.Flush() //nolint:errcheck

	if len(res.Alerts) > 0 {
		fmt.Fprintln(w, "\nAlerts:")
		for _, a := range res.Alerts {
			fmt.Fprintf(w, "  [%s] %s\n", a.Severity, a.Title)
		}
	}

	tiers := []struct {
		name string
		recs []model.Recommendation
	}{
		{"Strategic", res.Recommendations.Strategic},
		{"Tactical", res.Recommendations.Tactical},
		{"Execution", res.Recommendations.Execution},
	}
	for _, tier := range tiers {
		if len(tier.recs) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s recommendations:\n", tier.name)
		for _, r := range tier.recs {
			fmt.Fprintf(w, "  %d. [%s] %s\n", r.Order, r.Priority, r.Title)
		}
	}
}

func sortedKeys(m map[string]float64) []string {
	return slices.Sorted(maps.Keys(m))
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "print the full result as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
