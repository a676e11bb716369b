package intrinsic

import (
	"strings"

	"github.com/hollowgrid/engine/internal/syscall"
)

// resolveHost resolves a host-or-ip argument per spec §4.8's target
// resolution order (ipIndex, serverList, case-insensitive name).
// internal/syscall and internal/session each keep their own copy of
// this lookup rather than exporting one, to avoid a cross-package
// dependency for three lines of logic; this one is intrinsic's.
func resolveHost(ctx *syscall.ExecContext, hostOrIP string) (string, bool) {
	w := ctx.World
	if nodeID, ok := w.IPIndex[hostOrIP]; ok {
		return nodeID, true
	}
	if _, ok := w.ServerList[hostOrIP]; ok {
		return hostOrIP, true
	}
	for nodeID, s := range w.ServerList {
		if strings.EqualFold(s.Name, hostOrIP) {
			return nodeID, true
		}
	}
	return "", false
}
