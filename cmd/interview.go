package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spigell/star-interviewer/internal/coach"
	"github.com/spigell/star-interviewer/internal/interview"
	"github.com/spigell/star-interviewer/internal/jobfit"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptCustomJob = "직접 입력"
	PromptFinish    = "종료"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interactive STAR interview",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("user", "u", "", "owner of the session (default is $USER)")
	interviewCmd.Flags().StringP("title", "t", "", "a short title for the experience")
	interviewCmd.Flags().StringP("session", "s", "", "resume an unfinished session by id")
	interviewCmd.Flags().StringP("experience-file", "e", "", "a text file with the experience to tell about")
	interviewCmd.Flags().Bool("skip-jobfit", false, "do not offer job-fit scoring after the report")
}

func runInterview(cmd *cobra.Command) {
	ctx := context.Background()

	logger, svc := prepare(ctx)
	defer svc.Close()

	sessionID, message, err := openSession(ctx, cmd, svc)
	if err != nil {
		logger.Fatal("opening a session", zap.Error(err))
	}

	logger.Info("interview session", zap.String("session_id", sessionID))

	for message != "" {
		fmt.Fprintf(os.Stdout, "\n%s\n", message)

		answer, err := (&promptui.Prompt{Label: "답변", Validate: notBlank}).Run()
		if err != nil {
			logger.Info("exiting", zap.Error(err), zap.String("hint", "resume with --session "+sessionID))
			return
		}

		reply, err := svc.Submit(ctx, coach.SubmitInput{SessionID: sessionID, Text: answer})
		switch {
		case interview.IsRetryable(err):
			logger.Warn("the interviewer is unavailable, please answer again", zap.Error(err))
			continue
		case errors.Is(err, interview.ErrValidation):
			logger.Warn("answer rejected", zap.Error(err))
			continue
		case err != nil:
			logger.Fatal("submitting an answer", zap.Error(err))
		}

		fmt.Fprintf(os.Stdout, "[%d%%]\n", reply.Progress)

		if reply.Type == interview.ReplyDone {
			fmt.Fprintln(os.Stdout, reply.Message)
			break
		}
		message = reply.Message
	}

	report, err := svc.Report(ctx, sessionID)
	if err != nil {
		logger.Fatal("getting the report", zap.Error(err))
	}
	if err := printJSON(report); err != nil {
		logger.Fatal("printing the report", zap.Error(err))
	}

	if skip, _ := cmd.Flags().GetBool("skip-jobfit"); skip {
		return
	}

	if err := chooseJobs(ctx, svc, sessionID, logger); err != nil && !errors.Is(err, promptui.ErrInterrupt) {
		logger.Fatal("scoring job fit", zap.Error(err))
	}
}

// openSession starts a new session or resumes the one given by --session and
// returns the message to show first. The message is empty when the resumed
// session is already completed.
func openSession(ctx context.Context, cmd *cobra.Command, svc *coach.Service) (string, string, error) {
	if id, _ := cmd.Flags().GetString("session"); strings.TrimSpace(id) != "" {
		session, err := svc.Session(ctx, id)
		if err != nil {
			return "", "", err
		}
		printTranscript(session.Transcript(), session.Question())
		return session.ID(), session.Question(), nil
	}

	user, _ := cmd.Flags().GetString("user")
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("USER")
	}
	if strings.TrimSpace(user) == "" {
		user = "local"
	}
	title, _ := cmd.Flags().GetString("title")

	var experience string
	if path, _ := cmd.Flags().GetString("experience-file"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", "", fmt.Errorf("read experience file: %w", err)
		}
		experience = string(raw)
	}

	started, err := svc.Start(ctx, coach.StartInput{UserID: user, Title: title, Experience: experience})
	if err != nil {
		return "", "", err
	}

	return started.SessionID, started.Reply.Message, nil
}

// printTranscript replays a resumed session. The pending question is left for
// the prompt loop.
func printTranscript(messages []interview.Message, pending string) {
	if n := len(messages); n > 0 && pending != "" && messages[n-1].Role == interview.RoleAI && messages[n-1].Text == pending {
		messages = messages[:n-1]
	}
	for _, m := range messages {
		fmt.Fprintf(os.Stdout, "%s> %s\n", m.Role, m.Text)
	}
}

func chooseJobs(ctx context.Context, svc *coach.Service, sessionID string, logger *zap.Logger) error {
	items := make([]string, 0, len(jobfit.DefaultJobs)+2)
	for _, job := range jobfit.DefaultJobs {
		items = append(items, fmt.Sprintf("%s (%s)", job.Label, job.ID))
	}
	items = append(items, PromptCustomJob, PromptFinish)

	for {
		jobPrompt := promptui.Select{
			Label: "어떤 직무에 맞춰 평가할까요?",
			Items: items,
		}

		index, selected, err := jobPrompt.Run()
		if err != nil {
			return err
		}

		var job string
		switch selected {
		case PromptFinish:
			return nil
		case PromptCustomJob:
			job, err = (&promptui.Prompt{Label: "직무명", Validate: notBlank}).Run()
			if err != nil {
				return err
			}
		default:
			job = jobfit.DefaultJobs[index].ID
		}

		assessment, err := svc.JobFit(ctx, sessionID, job)
		if err != nil {
			if interview.IsRetryable(err) || errors.Is(err, interview.ErrValidation) {
				logger.Warn("job fit is not available", zap.Error(err))
				continue
			}
			return err
		}

		if err := printJSON(assessment); err != nil {
			return err
		}
	}
}

func notBlank(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("answer must not be empty")
	}
	return nil
}
