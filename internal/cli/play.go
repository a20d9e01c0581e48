package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/config"
	"persona-quiz-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewPlayCmd plays a test in the terminal. Picks are 1-based option
// numbers; questions without a --pick are asked on stdin.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		testID string
		picks  []int
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a test from the configured catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			return play(ctx, b.service(), testID, picks, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&testID, "test", "", "test id to play")
	cmd.Flags().IntSliceVar(&picks, "pick", nil, "option numbers to choose, in question order")
	_ = cmd.MarkFlagRequired("test")
	return cmd
}

func play(ctx context.Context, service *app.QuizService, testID string, picks []int, in io.Reader, out io.Writer) error {
	state, err := service.Start(ctx, testID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", state.Test.Title)

	scanner := bufio.NewScanner(in)
	for state.Phase == app.PhaseInProgress {
		q, _ := state.CurrentQuestion()
		fmt.Fprintf(out, "\n[%d/%d] %s\n", state.Step+1, len(state.Questions), q.Content)
		for i, o := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, o.Content)
		}

		var pick int
		if state.Step < len(picks) {
			pick = picks[state.Step]
			fmt.Fprintf(out, "> %d\n", pick)
		} else {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				return fmt.Errorf("no answer for question %d", state.Step+1)
			}
			pick, err = strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err != nil {
				fmt.Fprintln(out, "enter an option number")
				continue
			}
		}
		if pick < 1 || pick > len(q.Options) {
			if state.Step < len(picks) {
				return fmt.Errorf("pick %d out of range for question %d", pick, state.Step+1)
			}
			fmt.Fprintln(out, "enter an option number")
			continue
		}

		state, err = service.Answer(ctx, state.ID, domain.AnswerSubmission{QuestionID: q.ID, OptionID: q.Options[pick-1].ID})
		if err != nil {
			return err
		}
	}

	switch {
	case state.Phase == app.PhaseEmpty:
		fmt.Fprintln(out, "this test has no questions")
	case state.Outcome != nil && state.Outcome.Found():
		fmt.Fprintf(out, "\nresult %s: %s\n", state.Outcome.Key, state.Outcome.Result.Title)
		if d := state.Outcome.Result.Description; d != "" {
			fmt.Fprintln(out, d)
		}
	case state.Outcome != nil:
		fmt.Fprintf(out, "\nresult %s has no matching result\n", state.Outcome.Key)
	}
	return nil
}
