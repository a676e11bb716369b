package intrinsic

import (
	"sort"
	"time"

	"github.com/hollowgrid/engine/internal/syscall"
)

// NetInterfaces implements net.interfaces(opts?) -> {ok, interfaces}
// (spec §4.9): lists the resolved endpoint's own network interfaces.
func (t *Table) NetInterfaces(terminalKey string, opts CallOpts) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	srv, ok := ctx.Server()
	if !ok {
		return Failure(syscall.ErrInternalError, "no current server", 1)
	}
	ifaces := make([]map[string]interface{}, 0, len(srv.Ifaces))
	for _, iface := range srv.Ifaces {
		ifaces = append(ifaces, map[string]interface{}{"netId": iface.NetID, "ip": iface.IP})
	}
	return Success(1, map[string]interface{}{"interfaces": ifaces})
}

// NetScan implements net.scan(opts?) -> {ok, hosts} (spec §4.9): lists
// LAN-neighbor hosts and their exposure-gated open ports, identical to
// the `scan` command.
func (t *Table) NetScan(terminalKey string, opts CallOpts) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	res := t.disp.Execute(ctx, "scan")
	return FromSyscallResult(res, 1)
}

// NetPorts implements net.ports(opts?, host) -> {ok, ports} (spec
// §4.9): exposure-gated open port list for one resolved host.
func (t *Table) NetPorts(terminalKey string, opts CallOpts, host string) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	targetID, ok := resolveHost(ctx, host)
	if !ok {
		return Failure(syscall.ErrNotFound, host+": unreachable", 1)
	}
	target, ok := ctx.World.ServerList[targetID]
	if !ok {
		return Failure(syscall.ErrNotFound, host+": unreachable", 1)
	}
	var open []int
	for port, pc := range target.Ports {
		if pc.Type == "none" {
			continue
		}
		if ctx.World.ExposureAllowed(ctx.NodeID, targetID, port) {
			open = append(open, port)
		}
	}
	sort.Ints(open)
	return Success(1, map[string]interface{}{"ports": open})
}

// NetBanner implements net.banner(opts?, host, port) -> {ok, banner}
// (spec §4.9): the service type string for an exposed open port, used
// by scripts to fingerprint a target before connecting.
func (t *Table) NetBanner(terminalKey string, opts CallOpts, host string, port int) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	targetID, ok := resolveHost(ctx, host)
	if !ok {
		return Failure(syscall.ErrNotFound, host+": unreachable", 1)
	}
	target, ok := ctx.World.ServerList[targetID]
	if !ok {
		return Failure(syscall.ErrNotFound, host+": unreachable", 1)
	}
	pc, ok := target.Ports[port]
	if !ok || pc.Type == "none" {
		return Failure(syscall.ErrPortClosed, "port closed", 1)
	}
	if !ctx.World.ExposureAllowed(ctx.NodeID, targetID, port) {
		return Failure(syscall.ErrNetDenied, "network access denied", 1)
	}
	return Success(1, map[string]interface{}{"banner": string(pc.Type)})
}
