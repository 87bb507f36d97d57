package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"zsem/internal/pipeline"
	"zsem/internal/ui"
	"zsem/internal/workspace"
)

type indexOutcome struct {
	results []workspace.PreloadResult
	err     error
}

func runIndexWithUI(ctx context.Context, st *workspace.Store, title, dir string, jobs int, files []string) ([]workspace.PreloadResult, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan indexOutcome, 1)

	go func() {
		res, err := st.Preload(ctx, dir, jobs, pipeline.ChannelSink{Ch: events})
		outcomeCh <- indexOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
