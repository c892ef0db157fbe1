package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/stairlog/agent/internal/app"
	"github.com/stairlog/agent/internal/clock"
	"github.com/stairlog/agent/internal/session"
	"github.com/stairlog/agent/internal/sim"
	"github.com/stairlog/agent/internal/supervisor"
)

const simLogFile = "stairlog-sim.log"

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the agent in the terminal with a simulated button, IMU and OLED",
	Long: `sim runs the full agent against software devices. The space bar is the
button, the accelerometer is a synthetic gait signal that follows the
current label and the OLED is drawn in the terminal. Samples are written
exactly as on hardware. Log output goes to ` + simLogFile + `.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSim(cmd.Context())
	},
}

func runSim(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logFile, err := tea.LogToFile(simLogFile, "")
	if err != nil {
		return fmt.Errorf("opening %s: %w", simLogFile, err)
	}
	defer logFile.Close()

	bridge := app.NewBridge(256)
	log.SetOutput(io.MultiWriter(logFile, bridge))
	defer log.SetOutput(os.Stderr)

	clk := clock.System{}
	store := session.NewStore(cfg.InitialLabel())
	button := sim.NewButton(clk)
	sensor := sim.NewSensor(clk, store.Label, uint64(time.Now().UnixNano()))
	display := sim.NewDisplay(bridge.Display)

	agent, err := supervisor.New(cfg, supervisor.Devices{
		Input:   button,
		Sensor:  sensor,
		Display: display,
	}, supervisor.WithClock(clk), supervisor.WithStore(store))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	p := tea.NewProgram(app.New(button, sensor, agent.State, bridge, cfg.Button.DoubleClickWindow), tea.WithAltScreen(), tea.WithContext(ctx))

	// The UI quits when the agent stops on its own, e.g. after a loop panic.
	done := make(chan error, 1)
	go func() {
		done <- agent.Run(ctx)
		p.Quit()
	}()

	_, uiErr := p.Run()
	cancel()
	runErr := <-done
	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		return fmt.Errorf("simulator UI: %w", uiErr)
	}
	return runErr
}
