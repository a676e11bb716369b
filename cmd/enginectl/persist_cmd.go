package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// saveCmd drives internal/save directly, bypassing the engine's
// in-universe `save` terminal command entirely (SPEC_FULL.md §4.12):
// it builds a fresh engine from the configured blueprint, then writes
// its world to path.
func saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <path>",
		Short: "build the configured blueprint and write a save file to path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			data, err := e.Save()
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}
			if err := os.WriteFile(args[0], data, 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", args[0], err)
			}
			fmt.Printf("wrote %d bytes to %s\n", len(data), args[0])
			return nil
		},
	}
}

// loadCmd round-trips a save file through a freshly built engine to
// confirm it decodes and verifies, then prints a one-line success
// message as a smoke-test signal.
func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <path>",
		Short: "load a save file against the configured blueprint and report whether it loaded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			e, err := buildEngine()
			if err != nil {
				return err
			}
			if err := e.Load(data); err != nil {
				return fmt.Errorf("load: %w", err)
			}
			fmt.Printf("loaded %s successfully\n", args[0])
			return nil
		},
	}
}

// tickCmd steps the clock n times without a REPL, for scripted
// smoke-testing (SPEC_FULL.md §4.12).
func tickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick <n>",
		Short: "advance the configured blueprint's world n ticks and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var n int
			if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil || n < 0 {
				return fmt.Errorf("invalid tick count: %s", args[0])
			}
			e, err := buildEngine()
			if err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				e.Tick()
			}
			fmt.Printf("advanced %d ticks\n", n)
			return nil
		},
	}
}
