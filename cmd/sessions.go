package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect assessment sessions",
	Long:  "Commands for listing and viewing sessions, their answers and analysis results.",
}

// -- sessions list --

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assessment sessions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		status, _ := cmd.Flags().GetString("status")
		company, _ := cmd.Flags().GetString("company")
		limit, _ := cmd.Flags().GetInt("limit")

		sessions, err := env.Service.ListSessions(ctx, store.SessionFilter{
			Status:    model.SessionStatus(status),
			CompanyID: company,
			Limit:     limit,
		})
		if err != nil {
			return eris.Wrap(err, "sessions list")
		}

		if len(sessions) == 0 {
			fmt.Fprintln(os.Stderr, "No sessions found.")
			return nil
		}

		formatSessionsList(os.Stdout, sessions)
		return nil
	},
}

// -- sessions show --

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session with its answers and latest result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sess, err := env.Service.GetSession(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "sessions show")
		}
		answers, err := env.Service.Answers(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "sessions show")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Session *model.AssessmentSession `json:"session"`
				Answers []model.Answer           `json:"answers"`
			}{sess, answers})
		}

		formatSessionDetail(os.Stdout, sess, answers)

		res, err := env.Service.LatestResult(ctx, args[0])
		switch {
		case err == nil:
			fmt.Fprintln(os.Stdout)
			formatAnalysis(os.Stdout, res)
		case !eris.Is(err, model.ErrAnalysisNotFound):
			return eris.Wrap(err, "sessions show")
		}
		return nil
	},
}

// -- sessions reanalyze --

var sessionsReanalyzeCmd = &cobra.Command{
	Use:   "reanalyze <session-id>",
	Short: "Re-run analysis for a completed session",
	Long:  "Runs the pipeline again over the stored answers and appends a new result. Earlier results are kept.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.Reanalyze(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "sessions reanalyze")
		}
		formatAnalysis(os.Stdout, res)
		return nil
	},
}

// -- sessions abandon --

var sessionsAbandonCmd = &cobra.Command{
	Use:   "abandon <session-id>",
	Short: "Abandon a draft or in-progress session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.AbandonSession(ctx, args[0]); err != nil {
			return eris.Wrap(err, "sessions abandon")
		}
		fmt.Fprintf(os.Stdout, "Session %s abandoned.\n", args[0])
		return nil
	},
}

func formatSessionsList(w io.Writer, sessions []model.AssessmentSession) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tSECTOR\tSTATUS\tPROGRESS\tUPDATED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d (%.0f%%)\t%s\n",
			shortID(s.ID),
			s.CompanyID,
			s.Context.Sector,
			s.Status,
			s.AnsweredCount, s.TotalCount, s.ProgressPercentage,
			s.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush() //nolint:errcheck
}

func formatSessionDetail(w io.Writer, s *model.AssessmentSession, answers []model.Answer) {
	fmt.Fprintf(w, "Session:   %s\n", s.ID)
	fmt.Fprintf(w, "Company:   %s\n", s.CompanyID)
	fmt.Fprintf(w, "Sector:    %s\n", s.Context.Sector)
	fmt.Fprintf(w, "Status:    %s\n", s.Status)
	fmt.Fprintf(w, "Progress:  %d/%d (%.0f%%)\n", s.AnsweredCount, s.TotalCount, s.ProgressPercentage)
	if s.CurrentQuestionID != "" {
		fmt.Fprintf(w, "Last:      %s\n", s.CurrentQuestionID)
	}
	if s.StartedAt != nil {
		fmt.Fprintf(w, "Started:   %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if s.CompletedAt != nil {
		fmt.Fprintf(w, "Completed: %s\n", s.CompletedAt.Format("2006-01-02 15:04:05"))
	}

	if len(answers) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUESTION\tANSWER")
	for _, a := range answers {
		val := formatValue(a.Value)
		if a.Skipped {
			val = "(skipped)"
			if a.SkipReason != "" {
				val += " " + a.SkipReason
			}
		}
		fmt.Fprintf(tw, "%s\t%s\n", a.QuestionID, truncate(val, 60))
	}
	tw.Flush() //nolint:errcheck
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// shortID returns the first 8 characters of an ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	sessionsListCmd.Flags().String("status", "", "filter by status (draft, in_progress, completed, abandoned)")
	sessionsListCmd.Flags().String("company", "", "filter by company ID")
	sessionsListCmd.Flags().Int("limit", 50, "maximum sessions to list")
	sessionsShowCmd.Flags().Bool("json", false, "print session and answers as JSON")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsReanalyzeCmd, sessionsAbandonCmd)
	rootCmd.AddCommand(sessionsCmd)
}
