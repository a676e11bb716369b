// Package main is the operator-facing reference CLI for internal/engine
// (SPEC_FULL.md §4.12): a small cobra program that loads a blueprint,
// builds a world, and either drops the operator into an interactive
// REPL or drives save/load/tick non-interactively for scripted
// smoke-testing. Grounded on sandia-minimega-minimega's own
// cmd/minimega console (banner, liner-backed cliLocal, flag-driven
// base config) — see DESIGN.md. Not part of the deterministic core's
// public contract.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hollowgrid/engine/internal/engine"
	"github.com/hollowgrid/engine/pkg/minilog"
)

const banner = `enginectl, hollowgrid engine reference CLI`

// EngineConfig is the CLI's flag-driven configuration surface
// (SPEC_FULL.md §3.1): the engine itself takes no environment beyond
// SaveHmacKeyBase64, so everything else here is this binary's own.
type EngineConfig struct {
	BlueprintPath string
	HMACKeyBase64 string
	WorldSeed     int64
	Debug         bool
	PrototypeSave bool
}

var cfg EngineConfig

func main() {
	root := &cobra.Command{
		Use:   "enginectl",
		Short: "interactive reference client for the hacking-game engine core",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			fmt.Println(banner)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			runREPL(e)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfg.BlueprintPath, "blueprint", "", "path to a YAML scenario blueprint (defaults to the bundled sample)")
	root.PersistentFlags().StringVar(&cfg.HMACKeyBase64, "hmac-key", "c2FtcGxlLWVuZ2luZWN0bC1rZXk=", "base64 save-integrity HMAC key")
	root.PersistentFlags().Int64Var(&cfg.WorldSeed, "seed", 1, "deterministic world seed")
	root.PersistentFlags().BoolVar(&cfg.Debug, "debug", false, "enable DEBUG_miniscript")
	root.PersistentFlags().BoolVar(&cfg.PrototypeSave, "prototype-save-load", false, "enable in-universe save/load terminal commands")

	root.AddCommand(saveCmd(), loadCmd(), tickCmd())

	if err := root.Execute(); err != nil {
		minilog.Get("enginectl").Error("%v", err)
		os.Exit(1)
	}
}

// buildEngine loads cfg.BlueprintPath (or the bundled sample when
// blank) and constructs an Engine backed by a FakeScriptRunner, since
// this reference binary has no embedded interpreter to wire in
// (SPEC_FULL.md §5).
func buildEngine() (*engine.Engine, error) {
	bp := sampleBlueprint()
	if cfg.BlueprintPath != "" {
		loaded, err := loadBlueprintYAML(cfg.BlueprintPath)
		if err != nil {
			return nil, fmt.Errorf("loading blueprint: %w", err)
		}
		bp = loaded
	}

	e, err := engine.New(bp, cfg.WorldSeed, engine.FakeScriptEvaluator, engine.NewFakeScriptRunner(), cfg.HMACKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("constructing engine: %w", err)
	}
	e.DebugMode = cfg.Debug
	e.PrototypeSaveLoad = cfg.PrototypeSave
	return e, nil
}
