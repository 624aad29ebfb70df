package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/session"
)

const (
	practiceSession = "practice"
	stopUtterance   = "stop the interview"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run a mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		practice(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(practiceCmd)

	practiceCmd.Flags().StringP("role", "r", "", "role to practice for; asked interactively when empty")
	viper.BindPFlag("practice.role", practiceCmd.Flags().Lookup("role"))
}

func practice(out io.Writer) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	engine, err := newEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating the interview engine", zap.Error(err))
	}

	sessions := session.NewManager(engine, session.NewMemoryStore(), logger)

	_, greeting, err := sessions.Start(ctx, practiceSession)
	if err != nil {
		logger.Fatal("starting the interview", zap.Error(err))
	}
	say(out, greeting.Text)

	role := viper.GetString("practice.role")
	if role == "" {
		roleSelect := promptui.Select{
			Label: "Choose a role",
			Items: engine.Bank().Roles(),
		}
		if _, role, err = roleSelect.Run(); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	utterance := role
	for {
		outcome, err := sessions.ProcessTurn(ctx, practiceSession, utterance)
		if err != nil {
			logger.Fatal("processing the answer", zap.Error(err))
		}
		say(out, outcome.Utterance.Text)

		if outcome.State.Finished {
			printReport(out, outcome.State.Report)
			return
		}

		answer := promptui.Prompt{
			Label: "You (Ctrl+C ends the interview)",
		}
		utterance, err = answer.Run()
		switch {
		case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
			utterance = stopUtterance
		case err != nil:
			logger.Fatal("reading the answer", zap.Error(err))
		}
	}
}

func say(out io.Writer, text string) {
	fmt.Fprintf(out, "\nInterviewer: %s\n\n", text)
}

func printReport(out io.Writer, r *interview.Report) {
	if r == nil {
		return
	}

	fmt.Fprintf(out, "Feedback for the %s interview\n", r.Role)
	fmt.Fprintf(out, "Score: %.1f/10\n", r.Score)
	fmt.Fprintln(out, "\nStrengths:")
	for _, s := range r.Strengths {
		fmt.Fprintf(out, "  + %s\n", s)
	}
	fmt.Fprintln(out, "\nAreas to improve:")
	for _, s := range r.Improvements {
		fmt.Fprintf(out, "  - %s\n", s)
	}
	if summary := strings.TrimSpace(r.Summary); summary != "" {
		fmt.Fprintf(out, "\n%s\n", summary)
	}
	if r.Fallback {
		fmt.Fprintln(out, "\n(The AI report was unavailable, this is a generic report.)")
	}
}
