// Command ema-vision runs the voice loop in a terminal: speak, let the
// assistant look at the latest camera frame and listen to its answer.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	orchestration "github.com/koscakluka/ema-vision/core"
	"github.com/koscakluka/ema-vision/internal/config"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	device, err := newAudioDevice(cfg)
	if err != nil {
		log.Fatalf("failed to open audio device: %v", err)
	}
	defer device.Close()

	relay := &programRelay{}
	orchestrator := newOrchestrator(ctx, cfg, device, orchestration.WithEventCallback(relay.event))
	defer orchestrator.Dispose()

	program := tea.NewProgram(newModel(orchestrator), tea.WithContext(ctx))
	relay.set(program)
	orchestrator.OnStatusChange(relay.status)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		log.Printf("terminal error: %v", err)
	}
}
