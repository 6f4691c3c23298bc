package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chorus/pkg/sentiment"
)

var sentimentCmd = &cobra.Command{
	Use:   "sentiment <message>",
	Short: "Analyze the emotional signals of a message",
	Long:  "Scores a message for distress, negativity, positivity, and urgency, and prints the analysis as JSON.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd

		_, client, err := bootstrap()
		if err != nil {
			fmt.Printf("%v\n", err)
			return
		}

		analyzer := sentiment.New(client)
		result := analyzer.Analyze(context.Background(), strings.Join(args, " "))

		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Printf("failed to encode result: %v\n", err)
			return
		}

		fmt.Println(string(encoded))

		if result.NeedsAttention() {
			fmt.Println("note: this message crosses the attention threshold")
		}
	},
}

func init() {
	rootCmd.AddCommand(sentimentCmd)
}
