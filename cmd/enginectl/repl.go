package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/hollowgrid/engine/internal/engine"
	"github.com/hollowgrid/engine/pkg/minilog"
)

// termState tracks the one REPL terminal's current location, mirroring
// what a real client would keep between execute_system_call calls
// (spec §6: "the terminal UI tracks its own current location").
type termState struct {
	nodeID, userKey, cwd, promptUser, promptHost, sessionID string
}

// runREPL is enginectl's interactive line-editing loop (SPEC_FULL.md
// §4.12), grounded on cmd/minimega's own cliLocal: liner for input and
// history, a loop that compiles nothing of its own and forwards raw
// lines straight to the engine's command interface.
func runREPL(e *engine.Engine) {
	log := minilog.Get("enginectl")

	dtc := e.GetDefaultTerminalContext("")
	if !dtc.OK {
		log.Error("blueprint's myWorkstation/preferredUserKey did not resolve")
		return
	}
	for _, line := range dtc.MotdLines {
		fmt.Println(line)
	}

	st := termState{
		nodeID: dtc.NodeID, userKey: dtc.UserKey, cwd: dtc.Cwd,
		promptUser: dtc.PromptUser, promptHost: dtc.PromptHost, sessionID: dtc.TerminalSessionID,
	}

	input := liner.NewLiner()
	defer input.Close()
	input.SetCtrlCAborts(true)

	for {
		prompt := fmt.Sprintf("%s@%s:%s$ ", st.promptUser, st.promptHost, st.cwd)
		line, err := input.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			if e.IsTerminalProgramRunning(st.sessionID) {
				e.InterruptTerminalProgram(st.sessionID)
				fmt.Println("^C")
			}
			continue
		}
		if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		input.AppendHistory(line)

		printLines(e.DrainTerminalEventLines(st.nodeID, st.userKey))

		req := engine.Request{
			NodeID: st.nodeID, UserKey: st.userKey, Cwd: st.cwd,
			CommandLine: line, TerminalSessionID: st.sessionID,
		}

		started := e.TryStartTerminalProgram(req)
		res := started.Response
		if !started.Handled {
			res = e.ExecuteSystemCall(req)
		}

		printLines(res.Lines)
		if !res.OK {
			continue
		}
		applyTransition(&st, res.Data, res.NextCwd)
	}
}

// applyTransition updates the REPL's tracked location from a
// successful result's cwd/data transition (connect/disconnect change
// nodeId/userKey; everything else only ever changes cwd).
func applyTransition(st *termState, data map[string]interface{}, nextCwd string) {
	if nextCwd != "" {
		st.cwd = nextCwd
	}
	if data == nil {
		return
	}
	if v, ok := data["nodeId"].(string); ok {
		st.nodeID = v
	}
	if v, ok := data["userKey"].(string); ok {
		st.userKey = v
	}
	if v, ok := data["promptUser"].(string); ok {
		st.promptUser = v
	}
	if v, ok := data["promptHost"].(string); ok {
		st.promptHost = v
	}
}

func printLines(lines []string) {
	for _, l := range lines {
		fmt.Println(l)
	}
}
