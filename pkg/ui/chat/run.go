// Package chat renders the interactive room playground: a terminal chat
// where typed messages run through the decision pipeline and the chosen
// bot answers in character.
package chat

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chorus/pkg/decider"
	"chorus/pkg/gate"
)

// StepResult is one round trip through the pipeline for a typed message.
type StepResult struct {
	Gate     gate.Result
	Decision decider.Decision
	// Reply is the chosen bot's generated answer, empty when nobody replies.
	Reply string
}

type StepFunc func(ctx context.Context, message string) (StepResult, error)

// RoomInfo feeds the header line of the playground.
type RoomInfo struct {
	RoomID string
	Vendor string
	Model  string
	Bots   []string
}

func Run(ctx context.Context, stepFn StepFunc, info RoomInfo) error {
	program := tea.NewProgram(newModel(ctx, stepFn, info), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(renderGoodbyeBanner())
	return nil
}

func renderGoodbyeBanner() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("60")).
		Padding(1, 2)

	return style.Render("👋 Room closed, thanks for visiting")
}
