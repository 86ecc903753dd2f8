package cmd

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/spigell/star-interviewer/internal/star"

	"github.com/spf13/cobra"
)

// star does not touch storage or the oracle, so it skips prepare.
var starCmd = &cobra.Command{
	Use:   "star [narrative]",
	Short: "Split a narrative into Situation, Task, Action and Result",
	Long: "Split a narrative into STAR sections. The narrative is read from --file, " +
		"the arguments, or stdin, in that order.",
	Run: func(cmd *cobra.Command, args []string) {
		text, err := readNarrative(cmd, args)
		if err != nil {
			log.Fatalf("reading the narrative: %s", err)
		}

		if err := printJSON(star.Parse(text)); err != nil {
			log.Fatalf("printing sections: %s", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(starCmd)

	starCmd.Flags().StringP("file", "f", "", "a file with the narrative")
}

func readNarrative(cmd *cobra.Command, args []string) (string, error) {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return string(data), nil
}
