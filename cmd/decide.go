package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"chorus/pkg/engine"
)

var (
	decideTrigger   string
	decideSentiment bool
)

var decideCmd = &cobra.Command{
	Use:   "decide <room.json>",
	Short: "Run one decision over a room snapshot",
	Long:  "Loads a room snapshot from a JSON file, runs the gate and reply decision over it, and prints the outcome as JSON.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd

		room, err := loadRoomFile(args[0])
		if err != nil {
			fmt.Printf("failed to load room: %v\n", err)
			return
		}
		if decideTrigger != "" {
			room.Trigger = decideTrigger
		}

		_, client, err := bootstrap()
		if err != nil {
			fmt.Printf("%v\n", err)
			return
		}

		eng := engine.New(client, nil, engine.Options{
			Keywords:         room.Keywords,
			AnalyzeSentiment: decideSentiment,
		})

		outcome := eng.Process(context.Background(), room.toRoom())

		encoded, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			fmt.Printf("failed to encode outcome: %v\n", err)
			return
		}

		fmt.Println(string(encoded))
	},
}

func init() {
	rootCmd.AddCommand(decideCmd)
	decideCmd.Flags().StringVarP(&decideTrigger, "trigger", "t", "", "override the trigger message from the room file")
	decideCmd.Flags().BoolVar(&decideSentiment, "sentiment", false, "also run sentiment analysis on the trigger")
}
