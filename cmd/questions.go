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
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/catalog"
	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/registry"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Inspect and publish the question catalog",
}

// -- questions list --

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active questions in display order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		questions, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		sector, _ := cmd.Flags().GetString("sector")
		lang, _ := cmd.Flags().GetString("lang")
		asJSON, _ := cmd.Flags().GetBool("json")

		active := activeQuestions(catalog.New(questions), sector)
		if len(active) == 0 {
			fmt.Fprintln(os.Stderr, "No questions found.")
			return nil
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(active)
		}
		formatQuestionsList(os.Stdout, active, lang)
		return nil
	},
}

// -- questions validate --

var questionsValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a JSON or YAML question file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		questions, err := registry.LoadQuestionsFromFile(args[0])
		if err != nil {
			return err
		}
		if err := registry.Validate(questions); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: %d questions OK\n", args[0], len(questions))
		return nil
	},
}

// -- questions publish --

var questionsPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Write the catalog into the Notion question database",
	Long:  "Creates or updates one Notion page per question, matched on the question ID, so the catalog can be curated in Notion.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if cfg.Notion.Token == "" || cfg.Notion.QuestionDB == "" {
			return eris.New("notion.token and notion.question_db are required")
		}

		file, _ := cmd.Flags().GetString("file")
		var (
			questions []model.Question
			err       error
		)
		if file != "" {
			questions, err = registry.LoadQuestionsFromFile(file)
		} else {
			questions, err = registry.DefaultQuestions()
		}
		if err != nil {
			return err
		}
		if err := registry.Validate(questions); err != nil {
			return err
		}

		retire, _ := cmd.Flags().GetBool("retire")
		res, err := registry.PublishQuestions(ctx, newNotionClient(), cfg.Notion.QuestionDB, questions,
			registry.PublishOptions{Retire: retire})
		if err != nil {
			return eris.Wrap(err, "questions publish")
		}

		zap.L().Info("catalog published",
			zap.Int("created", res.Created),
			zap.Int("retired", res.Retired),
			zap.Int("updated", res.Updated),
		)
		return nil
	},
}

// activeQuestions returns the active questions for sector, or every active
// question when sector is empty.
func activeQuestions(cat *catalog.Memory, sector string) []model.Question {
	if sector != "" {
		return cat.ActiveQuestions(sector)
	}
	var out []model.Question
	for _, q := range cat.All() {
		if q.Active {
			out = append(out, q)
		}
	}
	return out
}

func formatQuestionsList(w io.Writer, questions []model.Question, lang string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tTYPE\tREQ\tSECTORS\tTEXT")
	for _, q := range questions {
		req := ""
		if q.Required {
			req = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			q.ID,
			q.Category,
			q.Type,
			req,
			strings.Join(q.Sectors, ","),
			truncate(q.Localized(lang), 60),
		)
	}
	tw.Flush() //nolint:errcheck
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func init() {
	questionsListCmd.Flags().String("sector", "", "only questions for this sector")
	questionsListCmd.Flags().String("lang", "", "display language (e.g. fr, es-MX)")
	questionsListCmd.Flags().Bool("json", false, "print questions as JSON")
	questionsPublishCmd.Flags().String("file", "", "publish this question file instead of the built-in catalog")
	questionsPublishCmd.Flags().Bool("retire", false, "mark Notion questions missing from the published set as Retired")

	questionsCmd.AddCommand(questionsListCmd, questionsValidateCmd, questionsPublishCmd)
	rootCmd.AddCommand(questionsCmd)
}
