package syscall

// RegisterBuiltins registers the fixed fs/net command set (spec §4.7)
// that needs no collaborator beyond world state. connect/disconnect
// (owned by internal/session), save/load (internal/save) and
// DEBUG_miniscript are registered separately by internal/engine, which
// holds those collaborators.
func RegisterBuiltins(reg *Registry) {
	reg.MustRegister("pwd", handlePwd)
	reg.MustRegister("ls", handleLs)
	reg.MustRegister("cd", handleCd)
	reg.MustRegister("cat", handleCat)
	reg.MustRegister("edit", handleEdit)
	reg.MustRegister("mkdir", handleMkdir)
	reg.MustRegister("rmdir", handleRmdir)
	reg.MustRegister("rm", handleRm)
	reg.MustRegister("cp", handleCp)
	reg.MustRegister("mv", handleMv)
	reg.MustRegister("clear", handleClear)
	reg.MustRegister("echo", handleEcho)
	reg.MustRegister("help", handleHelp)
	reg.MustRegister("ping", handlePing)
	reg.MustRegister("known", handleKnown)
	reg.MustRegister("scan", handleScan)
	reg.MustRegister("ftp", handleFtp)
}
