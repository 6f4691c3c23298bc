package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available from the configured vendor",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd
		_ = args

		_, client, err := bootstrap()
		if err != nil {
			fmt.Printf("%v\n", err)
			return
		}

		models, err := client.ListModels(context.Background())
		if err != nil {
			fmt.Printf("failed to list models: %v\n", err)
			return
		}

		for _, model := range models {
			if model.Name != model.ID {
				fmt.Printf("%s\t%s\n", model.ID, model.Name)
				continue
			}
			fmt.Println(model.ID)
		}
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
