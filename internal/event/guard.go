package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ReadOnlyState is the read-only view of world state a guard may
// consult. Guards never mutate state directly; only actions do.
type ReadOnlyState interface {
	ScenarioFlag(key string) (interface{}, bool)
	ServerOnline(nodeID string) bool
}

// Guard evaluates a compiled guard expression against the triggering
// event and read-only state.
type Guard func(evt GameEvent, state ReadOnlyState) (bool, error)

// GuardKind is the prefix on a blueprint guard content string (spec
// §4.5): "script-<body>" inline, "id-<scriptId>" a Scripts table
// reference, "path-<project-root-relative>" a file reference.
type GuardKind int

const (
	GuardInline GuardKind = iota
	GuardScriptRef
	GuardPathRef
)

// GuardSource is a parsed, not-yet-compiled guard content string.
type GuardSource struct {
	Kind GuardKind
	Body string // the text after the prefix
}

// ErrMalformedGuardContent is returned by ParseGuardContent for content
// missing one of the three required prefixes.
var ErrMalformedGuardContent = errors.New("event: guard content must start with script-, id- or path-")

// ParseGuardContent splits a raw blueprint guard string into its kind
// and body. Compilers (owned by internal/builder, which has the
// project root and the scenario's Scripts table) use this to decide how
// to resolve Body into an executable Guard.
func ParseGuardContent(content string) (GuardSource, error) {
	switch {
	case strings.HasPrefix(content, "script-"):
		return GuardSource{Kind: GuardInline, Body: content[len("script-"):]}, nil
	case strings.HasPrefix(content, "id-"):
		return GuardSource{Kind: GuardScriptRef, Body: content[len("id-"):]}, nil
	case strings.HasPrefix(content, "path-"):
		return GuardSource{Kind: GuardPathRef, Body: content[len("path-"):]}, nil
	default:
		return GuardSource{}, fmt.Errorf("%w: %q", ErrMalformedGuardContent, content)
	}
}

// GuardCompiler turns raw blueprint guard content into an executable
// Guard. Compile-time syntax errors abort world loading (spec §4.5);
// runtime failures are handled by guardBudget, not the compiler.
type GuardCompiler interface {
	Compile(content string) (Guard, error)
}

// PerCallBudget is the wall-clock ceiling for one guard invocation
// (spec §4.5: 1/60s).
const PerCallBudget = time.Second / 60

// PerTickBudget is the wall-clock ceiling for the sum of all guard
// invocations within one tick (spec §4.5: 1/20s, about 3 calls' worth).
const PerTickBudget = time.Second / 20

// guardBudget enforces both ceilings across a single tick's drain pass.
type guardBudget struct {
	tickRemaining time.Duration
}

func newGuardBudget() *guardBudget {
	return &guardBudget{tickRemaining: PerTickBudget}
}

// exhausted reports whether the per-tick budget has nothing left, at
// which point remaining handlers stay queued for the next tick.
func (b *guardBudget) exhausted() bool {
	return b.tickRemaining <= 0
}

type guardResult struct {
	ok  bool
	err error
}

// run evaluates g under the per-call budget, recovering any panic and
// treating it, a thrown error, or a timeout identically: guard failure
// yields false (spec §4.5) plus a warning the caller logs. It always
// charges the elapsed (capped) time against the tick budget.
func (b *guardBudget) run(g Guard, evt GameEvent, state ReadOnlyState) (bool, string) {
	if g == nil {
		return true, ""
	}

	done := make(chan guardResult, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- guardResult{false, fmt.Errorf("guard panicked: %v", r)}
			}
		}()
		ok, err := g(evt, state)
		done <- guardResult{ok, err}
	}()

	var (
		ok      bool
		warning string
	)
	select {
	case res := <-done:
		if res.err != nil {
			ok, warning = false, res.err.Error()
		} else {
			ok = res.ok
		}
	case <-time.After(PerCallBudget):
		ok, warning = false, "guard exceeded per-call budget"
	}

	elapsed := time.Since(start)
	if elapsed > PerCallBudget {
		elapsed = PerCallBudget
	}
	b.tickRemaining -= elapsed

	return ok, warning
}
