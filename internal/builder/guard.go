package builder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hollowgrid/engine/internal/event"
)

// ScriptEvaluator runs a guard script's source against the triggering
// event and read-only state, returning its truthy/falsy result. The
// embedded interpreter itself is an external black-box capability
// (spec §6); internal/engine supplies the concrete evaluator backed by
// the real interpreter, the same seam shape as event.GuardCompiler
// and save.Rebuilder.
type ScriptEvaluator func(source string, evt event.GameEvent, state event.ReadOnlyState) (bool, error)

// ScriptGuardCompiler implements event.GuardCompiler by resolving the
// three guard-content prefixes (spec §4.5) against a scenario's Scripts
// table and the loader's project root, then wrapping the resolved
// source in evaluator.
type ScriptGuardCompiler struct {
	Scripts     map[string]string
	ProjectRoot string
	Evaluator   ScriptEvaluator
}

// Compile implements event.GuardCompiler.
func (c *ScriptGuardCompiler) Compile(content string) (event.Guard, error) {
	src, err := c.ParseGuardContent(content)
	if err != nil {
		return nil, err
	}
	if src.Kind == event.GuardInline && src.Body == "" {
		return nil, nil
	}

	source := src.Body
	return func(evt event.GameEvent, state event.ReadOnlyState) (bool, error) {
		return c.Evaluator(source, evt, state)
	}, nil
}

// ParseGuardContent resolves content (already shaped script-/id-/path-,
// per event.ParseGuardContent) into its final script source string: an
// inline body passes through; an id- reference is looked up in Scripts;
// a path- reference is read relative to ProjectRoot.
func (c *ScriptGuardCompiler) ParseGuardContent(content string) (event.GuardSource, error) {
	src, err := event.ParseGuardContent(content)
	if err != nil {
		return src, err
	}

	switch src.Kind {
	case event.GuardInline:
		return src, nil

	case event.GuardScriptRef:
		source, ok := c.Scripts[src.Body]
		if !ok {
			return src, fmt.Errorf("builder: guard references unknown script id %q", src.Body)
		}
		return event.GuardSource{Kind: event.GuardInline, Body: source}, nil

	case event.GuardPathRef:
		data, err := os.ReadFile(filepath.Join(c.ProjectRoot, src.Body))
		if err != nil {
			return src, fmt.Errorf("builder: reading guard script %q: %w", src.Body, err)
		}
		return event.GuardSource{Kind: event.GuardInline, Body: string(data)}, nil

	default:
		return src, fmt.Errorf("builder: unknown guard kind for %q", content)
	}
}
