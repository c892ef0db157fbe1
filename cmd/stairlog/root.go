package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stairlog/agent/internal/config"
	"github.com/stairlog/agent/internal/fault"
	"github.com/stairlog/agent/internal/hardware"
	"github.com/stairlog/agent/internal/supervisor"
)

var rootCmd = &cobra.Command{
	Use:   "stairlog",
	Short: "Record labeled stair-walking accelerometer data",
	Long: `stairlog samples an accelerometer while recording is on and appends
labeled samples under the data directory.

One click on the button starts or stops recording. A double click switches
between walkingup and walkingdown. The OLED shows the current state.

Configuration is read from $STAIRLOG_CONFIG or ./stairlog.yaml when present.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runAgent(cmd.Context()); err != nil {
			log.Print(failureMessage(err))
			return err
		}
		return nil
	},
}

// failureMessage tells a startup resource failure apart from a run that
// ended with errors.
func failureMessage(err error) string {
	if fault.IsFatal(err) {
		return fmt.Sprintf("Startup failed, resource unavailable: %v", err)
	}
	return fmt.Sprintf("Agent stopped with errors: %v", err)
}

func init() {
	rootCmd.AddCommand(simCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	path := config.Path()
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func runAgent(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	board, err := hardware.Open(cfg)
	if err != nil {
		return err
	}

	agent, err := supervisor.New(cfg, supervisor.Devices{
		Input:   board.Button,
		Sensor:  board.Sensor,
		Display: board.Display,
		Close:   board.Close,
	})
	if err != nil {
		if cerr := board.Close(); cerr != nil {
			log.Printf("Releasing hardware: %v", cerr)
		}
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return agent.Run(ctx)
}
