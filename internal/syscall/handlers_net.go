package syscall

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hollowgrid/engine/internal/vfs"
	"github.com/hollowgrid/engine/internal/world"
)

func handlePing(ctx *ExecContext, args []string) Result {
	if len(args) != 1 {
		return Err(ErrInvalidArgs, "usage: ping <host>")
	}
	target, ok := resolveTarget(ctx, args[0])
	if !ok {
		return Err(ErrNotFound, args[0]+": unreachable")
	}
	return Ok(fmt.Sprintf("%s is alive", target))
}

func handleKnown(ctx *ExecContext, args []string) Result {
	var names []string
	for netID := range ctx.World.VisibleNets {
		for nodeID := range ctx.World.KnownNodesByNet[netID] {
			names = append(names, nodeID)
		}
	}
	sort.Strings(names)
	return Ok(names...)
}

func handleScan(ctx *ExecContext, args []string) Result {
	host, ok := ctx.Server()
	if !ok {
		return Err(ErrInternalError, "no current server")
	}

	var lines []string
	for _, neighborID := range host.LANNeighbors {
		neighbor, ok := ctx.World.ServerList[neighborID]
		if !ok {
			continue
		}
		var open []string
		for port, pc := range neighbor.Ports {
			if pc.Type == "none" {
				continue
			}
			if ctx.World.ExposureAllowed(ctx.NodeID, neighborID, port) {
				open = append(open, fmt.Sprintf("%d/%s", port, pc.Type))
			}
		}
		sort.Strings(open)
		lines = append(lines, fmt.Sprintf("%s: %v", neighborID, open))
	}
	return Ok(lines...)
}

// handleFtp implements the `ftp` system call (spec §4.7/§6): `ftp [-p
// port] <host> get <remotePath>` or `ftp [-p port] <host> put
// <remotePath> <content>`, default port 21. Gates on the target having
// an ftp port open at that number and exposed to the caller, mirroring
// the ftp.get/put intrinsics (internal/intrinsic/ftp.go) but against
// the caller's current server directly rather than a route.
func handleFtp(ctx *ExecContext, args []string) Result {
	const usage = "usage: ftp [-p port] <host> <get|put> <remotePath> [content]"

	port := 21
	rest := args
	if len(rest) >= 2 && rest[0] == "-p" {
		p, err := strconv.Atoi(rest[1])
		if err != nil {
			return Err(ErrInvalidArgs, usage)
		}
		port = p
		rest = rest[2:]
	}
	if len(rest) < 3 {
		return Err(ErrInvalidArgs, usage)
	}
	host, op, remotePath := rest[0], rest[1], rest[2]

	targetID, ok := resolveTarget(ctx, host)
	if !ok {
		return Err(ErrNotFound, host+": unreachable")
	}
	target, ok := ctx.World.ServerList[targetID]
	if !ok {
		return Err(ErrNotFound, host+": unreachable")
	}
	pc, ok := target.Ports[port]
	if !ok || pc.Type != world.PortFTP || !ctx.World.ExposureAllowed(ctx.NodeID, targetID, port) {
		return Err(ErrPortClosed, "ftp unavailable")
	}

	switch op {
	case "get":
		if len(rest) != 3 {
			return Err(ErrInvalidArgs, usage)
		}
		meta, ok := target.FS.Resolve(remotePath)
		if !ok || meta.IsDir() {
			return Err(ErrNotFound, "no such file: "+remotePath)
		}
		data, err := ctx.World.BlobStore.Get(meta.ContentID)
		if err != nil {
			return Err(ErrInternalError, err.Error())
		}
		return Ok(string(data))
	case "put":
		if len(rest) != 4 {
			return Err(ErrInvalidArgs, usage)
		}
		content := rest[3]
		target.FS.WriteFile(remotePath, []byte(content), vfs.Text, int64(len(content)))
		return Ok()
	default:
		return Err(ErrInvalidArgs, usage)
	}
}

// resolveTarget resolves a host-or-ip string per spec §4.8's target
// resolution order: ipIndex, then serverList (by nodeId), then by name
// (case-insensitive).
func resolveTarget(ctx *ExecContext, hostOrIP string) (string, bool) {
	if nodeID, ok := ctx.World.IPIndex[hostOrIP]; ok {
		return nodeID, true
	}
	if _, ok := ctx.World.ServerList[hostOrIP]; ok {
		return hostOrIP, true
	}
	for nodeID, s := range ctx.World.ServerList {
		if strings.EqualFold(s.Name, hostOrIP) {
			return nodeID, true
		}
	}
	return "", false
}
