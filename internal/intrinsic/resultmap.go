// Package intrinsic implements the script-facing intrinsic surfaces
// (spec §4.9, component C10): fs.*, net.*, ssh.*, ftp.*, term.*, each
// returning a uniform ResultMap, gated by a shared per-interpreter rate
// limiter. ResultMap mirrors sandia-minimega-minimega/pkg/minicli's
// Response shape (ok/error/data fields) but flattens payload fields to
// the top level instead of nesting them under "data", matching spec
// §4.9's contract exactly. See DESIGN.md.
package intrinsic

import (
	"github.com/google/uuid"

	"github.com/hollowgrid/engine/internal/syscall"
)

// ResultMap is the uniform return shape for every intrinsic call
// (spec §4.9).
type ResultMap map[string]interface{}

// Success builds a successful ResultMap, merging payload fields at the
// top level.
func Success(cost float64, payload map[string]interface{}) ResultMap {
	r := ResultMap{"ok": 1, "err": nil, "code": string(syscall.OK), "cost": cost, "trace": uuid.NewString()}
	for k, v := range payload {
		r[k] = v
	}
	return r
}

// Failure builds a failed ResultMap for the given code and message.
func Failure(code syscall.Code, errMsg string, cost float64) ResultMap {
	return ResultMap{"ok": 0, "err": errMsg, "code": string(code), "cost": cost, "trace": uuid.NewString()}
}

// FromSyscallResult converts a syscall.Result into a ResultMap, for
// intrinsics that delegate to the same handlers the command line uses.
func FromSyscallResult(res syscall.Result, cost float64) ResultMap {
	if !res.OK {
		msg := ""
		if len(res.Lines) > 0 {
			msg = res.Lines[0]
		}
		return Failure(res.Code, msg, cost)
	}
	payload := map[string]interface{}{"lines": res.Lines}
	for k, v := range res.Data {
		payload[k] = v
	}
	if res.NextCwd != "" {
		payload["nextCwd"] = res.NextCwd
	}
	return Success(cost, payload)
}
