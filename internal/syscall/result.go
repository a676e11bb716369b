// Package syscall implements the command-line dispatcher (spec §4.7,
// component C8): a POSIX-quote-aware tokenizer, a case-insensitive
// handler registry, and a fixed response envelope. The
// Register/MustRegister pattern and the Response{Host, Response, Error,
// Data} envelope shape are grounded on sandia-minimega-minimega's
// pkg/minicli (its handler-registry and response-struct design); its
// pattern-DSL/trie command compiler was not kept — this dispatcher
// matches against a fixed, enumerable command set by exact first-token
// lookup instead of a compiled grammar, which fits a fixed game command
// set better than a general pattern language. See DESIGN.md.
package syscall

// Code is the stable, typed response code every system call returns.
type Code string

const (
	OK                  Code = "OK"
	ErrUnknownCommand   Code = "ERR_UNKNOWN_COMMAND"
	ErrInvalidArgs      Code = "ERR_INVALID_ARGS"
	ErrNotFound         Code = "ERR_NOT_FOUND"
	ErrToolMissing      Code = "ERR_TOOL_MISSING"
	ErrPermissionDenied Code = "ERR_PERMISSION_DENIED"
	ErrNotTextFile      Code = "ERR_NOT_TEXT_FILE"
	ErrAlreadyExists    Code = "ERR_ALREADY_EXISTS"
	ErrNotDirectory     Code = "ERR_NOT_DIRECTORY"
	ErrNotEmpty         Code = "ERR_NOT_EMPTY"
	ErrIsDirectory      Code = "ERR_IS_DIRECTORY"
	ErrPortClosed       Code = "ERR_PORT_CLOSED"
	ErrNetDenied        Code = "ERR_NET_DENIED"
	ErrAuthFailed       Code = "ERR_AUTH_FAILED"
	ErrRateLimited      Code = "ERR_RATE_LIMITED"
	ErrTooLarge         Code = "ERR_TOO_LARGE"
	ErrInternalError    Code = "ERR_INTERNAL_ERROR"
)

// Result is the fixed system-call response envelope (spec §4.7):
// (ok, code, lines, nextCwd?, data?).
type Result struct {
	OK      bool
	Code    Code
	Lines   []string
	NextCwd string // optional; "" means unchanged
	Data    map[string]interface{}
}

// Ok builds a successful result with the given output lines.
func Ok(lines ...string) Result {
	return Result{OK: true, Code: OK, Lines: lines}
}

// Err builds a failed result carrying the given code and a single
// user-facing line.
func Err(code Code, line string) Result {
	return Result{OK: false, Code: code, Lines: []string{line}}
}

// WithCwd attaches a terminal-context cwd transition to a result.
func (r Result) WithCwd(cwd string) Result {
	r.NextCwd = cwd
	return r
}

// WithData attaches opaque transition data to a result.
func (r Result) WithData(data map[string]interface{}) Result {
	r.Data = data
	return r
}
