package intrinsic

// term is exempt from the shared rate limiter (spec §4.9): scripts
// must always be able to report output, even mid-breach.

// TermPrint implements term.print(opts, text) -> {ok} (spec §4.9):
// appends a line to the terminal's output queue.
func (t *Table) TermPrint(terminalKey string, opts CallOpts, text string) ResultMap {
	t.postTerminalLine(terminalKey, opts, text)
	return Success(0, nil)
}

// TermWarn implements term.warn(opts, text) -> {ok}: a non-fatal
// stderr line, prefixed "warn:" per the interpreter's stderr contract
// (spec §4.9) so the script host never treats it as a failing run.
func (t *Table) TermWarn(terminalKey string, opts CallOpts, text string) ResultMap {
	t.postTerminalLine(terminalKey, opts, "warn: "+text)
	return Success(0, nil)
}

// TermError implements term.error(opts, text) -> {ok}: a non-fatal
// stderr line, prefixed "error:" — still non-fatal because the script
// chose to report it through this intrinsic rather than letting the
// interpreter's raw stderr stream carry an unprefixed line.
func (t *Table) TermError(terminalKey string, opts CallOpts, text string) ResultMap {
	t.postTerminalLine(terminalKey, opts, "error: "+text)
	return Success(0, nil)
}

func (t *Table) postTerminalLine(terminalKey string, opts CallOpts, text string) {
	if t.events == nil || t.events.Terminal == nil {
		return
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	nodeID, userKey := "", ""
	if ok {
		nodeID, userKey = ctx.NodeID, ctx.UserKey
	}
	t.events.Terminal.Post(nodeID, userKey, text)
}
