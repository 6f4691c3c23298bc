package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chorus/pkg/gate"
)

var gateKeywords []string

var gateCmd = &cobra.Command{
	Use:   "gate <message>",
	Short: "Classify a single message through the quality gate",
	Long:  "Runs one message through the gibberish and keyword gate and prints the classification as JSON.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd

		_, client, err := bootstrap()
		if err != nil {
			fmt.Printf("%v\n", err)
			return
		}

		checker := gate.New(client, gateKeywords...)
		result := checker.Check(context.Background(), strings.Join(args, " "))

		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Printf("failed to encode result: %v\n", err)
			return
		}

		fmt.Println(string(encoded))
	},
}

func init() {
	rootCmd.AddCommand(gateCmd)
	gateCmd.Flags().StringSliceVarP(&gateKeywords, "keyword", "k", nil, "trigger keyword to flag (repeatable)")
}
