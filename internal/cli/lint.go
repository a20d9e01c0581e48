package cli

import (
	"fmt"

	"persona-quiz-service/internal/studio"
	"github.com/spf13/cobra"
)

// NewLintCmd checks definitions without touching any store.
func NewLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <definition.yaml>...",
		Short: "Check quiz definitions for unreachable or missing results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				quiz, err := readDefinitionFile(path)
				if err != nil {
					fmt.Fprintf(out, "%s: error: %v\n", path, err)
					failed++
					continue
				}
				issues := studio.Lint(quiz)
				if len(issues) == 0 {
					fmt.Fprintf(out, "%s: ok\n", path)
					continue
				}
				for _, is := range issues {
					fmt.Fprintf(out, "%s: %s\n", path, is)
				}
				if studio.HasErrors(issues) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d definition(s) failed lint", failed)
			}
			return nil
		},
	}
}
