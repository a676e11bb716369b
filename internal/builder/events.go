package builder

import (
	"fmt"

	"github.com/hollowgrid/engine/internal/blueprint"
	"github.com/hollowgrid/engine/internal/event"
)

func convertActions(specs []blueprint.ActionSpec) []event.Action {
	actions := make([]event.Action, 0, len(specs))
	for _, a := range specs {
		actions = append(actions, event.Action{Kind: event.ActionKind(a.Kind), Args: a.Args})
	}
	return actions
}

// compileHandler turns one EventBlueprint into a registered
// event.HandlerDescriptor (spec §4.5), compiling its guard content (if
// any) via compiler. A blank GuardContent means "always true".
func compileHandler(eb blueprint.EventBlueprint, compiler event.GuardCompiler) (*event.HandlerDescriptor, error) {
	var guard event.Guard
	if eb.GuardContent != "" {
		g, err := compiler.Compile(eb.GuardContent)
		if err != nil {
			return nil, fmt.Errorf("builder: %s/%s: compiling guard: %w", eb.ScenarioID, eb.EventID, err)
		}
		guard = g
	}

	h, err := event.NewHandlerDescriptor(
		eb.ScenarioID, eb.EventID, event.Type(eb.ConditionType),
		eb.NodeID, eb.UserKey, eb.Privilege, eb.FileName,
		guard, convertActions(eb.Actions),
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}
