package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"chorus/pkg/roles"
)

var rolesAll bool

var rolesCmd = &cobra.Command{
	Use:   "roles [count]",
	Short: "Draw random bot role archetypes",
	Long:  "Prints role archetypes from the built-in catalogue, either a random draw or the full list.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd

		if rolesAll {
			printArchetypes(roles.All())
			return
		}

		count := 1
		if len(args) == 1 {
			if _, err := fmt.Sscanf(args[0], "%d", &count); err != nil || count < 1 {
				fmt.Printf("invalid count %q\n", args[0])
				return
			}
		}

		printArchetypes(roles.PickN(count))
	},
}

func printArchetypes(archetypes []roles.Archetype) {
	for index, archetype := range archetypes {
		if index > 0 {
			fmt.Println()
		}
		fmt.Printf("role: %s\ngoal: %s\n", archetype.MainRole, archetype.FinalGoal)
	}
}

func init() {
	rootCmd.AddCommand(rolesCmd)
	rolesCmd.Flags().BoolVar(&rolesAll, "all", false, "print the whole catalogue instead of a random draw")
}
