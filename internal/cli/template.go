package cli

import (
	"os"

	"persona-quiz-service/internal/studio"
	"github.com/spf13/cobra"
)

// NewTemplateCmd prints the MBTI starter definition.
func NewTemplateCmd() *cobra.Command {
	var (
		title string
		out   string
	)
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an MBTI starter definition (12 questions, 16 results)",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := studio.MarshalDefinition(studio.MBTITemplate(title))
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&title, "title", "New personality test", "test title")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	return cmd
}
