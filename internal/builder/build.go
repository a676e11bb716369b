// Package builder implements the blueprint-to-world construction
// pipeline (spec §4.11, component C12): merges a ServerSpecBlueprint
// base with each ServerSpawn's overrides under strict replace-key
// semantics, resolves AUTO user/password policies off worldSeed,
// allocates interface IPs, computes subnet adjacency, and seeds initial
// visibility. Grounded on sandia-minimega-minimega's own spec-to-running-
// instance materialization (vm.go's BaseConfig.Copy()-then-override
// shape, itself driven by a CLI-populated config struct rather than a
// YAML loader); the deterministic-seed discipline has no teacher
// analogue (minimega VMs are never required to be byte-reproducible)
// and is built directly against spec.md §4.4/§4.11. See DESIGN.md.
package builder

import (
	"fmt"

	"github.com/hollowgrid/engine/internal/blueprint"
	"github.com/hollowgrid/engine/internal/event"
	"github.com/hollowgrid/engine/internal/vfs"
	"github.com/hollowgrid/engine/internal/world"
	"github.com/hollowgrid/engine/pkg/minilog"
)

var buildLog = minilog.Get("builder")

// Build materializes a ScenarioBlueprint into a fresh world and its
// compiled event system, following spec §4.11's eight construction
// steps in order. compiler resolves scenario guard content; a nil
// compiler is valid for blueprints carrying no events.
func Build(bp *blueprint.ScenarioBlueprint, worldSeed int64, compiler event.GuardCompiler) (*world.World, *event.System, error) {
	w, err := world.New(worldSeed)
	if err != nil {
		return nil, nil, err
	}

	specs := buildSpecIndex(bp.Specs)

	seen := map[string]struct{}{}
	for _, spawn := range bp.Spawns {
		if _, dup := seen[spawn.NodeID]; dup {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateNodeID, spawn.NodeID)
		}
		seen[spawn.NodeID] = struct{}{}
	}

	allocs, err := buildAllocators(bp.AddressPlan, w)
	if err != nil {
		return nil, nil, err
	}

	baseTrees := map[string]*vfs.Base{} // specId -> shared base tree

	for _, spawn := range bp.Spawns {
		spec, ok := specs[spawn.SpecID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: spawn %q references %q", ErrUnknownSpec, spawn.NodeID, spawn.SpecID)
		}

		role, err := parseRole(spec.Role)
		if err != nil {
			return nil, nil, fmt.Errorf("builder: spawn %q: %w", spawn.NodeID, err)
		}

		resolved := mergeSpawn(spec, &spawn)

		base, ok := baseTrees[spawn.SpecID]
		if !ok {
			base = buildBaseTree(spec.Disk, w.BlobStore)
			baseTrees[spawn.SpecID] = base
		}
		overlay := vfs.NewOverlay(base, w.BlobStore)
		applyInitialOverlay(overlay, resolved.Overlay)

		ifaces, err := allocateInterfaces(resolved.Interfaces, allocs)
		if err != nil {
			return nil, nil, fmt.Errorf("builder: spawn %q: %w", spawn.NodeID, err)
		}

		s := world.NewServer(spawn.NodeID, resolved.Hostname, role, overlay, resolved.LogCapacity)
		s.Ifaces = ifaces
		s.Status = parseStatus(resolved.InitialStatus)
		s.Reason = parseReason(resolved.InitialReason)
		if len(ifaces) > 0 {
			s.Primary = ifaces[0].IP
		}

		for port, pspec := range resolved.Ports {
			s.Ports[port] = &world.PortConfig{
				Type: parsePortType(pspec.Type), Exposure: parseExposure(pspec.Exposure),
				ServiceID: pspec.ServiceID, Banner: pspec.Banner,
			}
		}
		for daemonType, dspec := range resolved.Daemons {
			s.Daemons[daemonType] = &world.DaemonConfig{DaemonType: dspec.DaemonType, UserKey: dspec.UserKey, Config: dspec.Config}
		}
		if err := buildUsers(s, resolved, spawn.NodeID, worldSeed); err != nil {
			return nil, nil, err
		}

		for _, ispec := range resolved.Interfaces {
			if ispec.InitiallyExposed {
				s.MarkInitiallyExposed(ispec.NetID)
			}
		}

		if err := w.AddServer(s); err != nil {
			return nil, nil, fmt.Errorf("builder: spawn %q: %w", spawn.NodeID, err)
		}
	}

	adjacency := computeAdjacency(bp.Hubs, bp.Links)
	for nodeID, neighbors := range adjacency {
		if s, ok := w.ServerList[nodeID]; ok {
			s.LANNeighbors = neighbors
		}
	}

	w.SeedInitialVisibility()

	if bp.MyWorkstation != "" {
		if _, ok := w.ServerList[bp.MyWorkstation]; !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrMyWorkstationMissing, bp.MyWorkstation)
		}
	}

	warnUnreachable(w, bp.Hubs, bp.Links)

	sys := event.NewSystem(w, w, w)
	for _, eb := range bp.Events {
		h, err := compileHandler(eb, compiler)
		if err != nil {
			return nil, nil, err
		}
		sys.Register(h)
	}

	return w, sys, nil
}

// buildUsers resolves each UserSpec's AUTO policies and validates the
// otp-requires-matching-daemon rule (spec §4.11 step 4).
func buildUsers(s *world.Server, resolved *resolvedServer, nodeID string, worldSeed int64) error {
	for userKey, uspec := range resolved.Users {
		authMode := parseAuthMode(uspec.AuthMode)
		if authMode == world.AuthOTP {
			if !hasOTPDaemon(s, userKey) {
				return fmt.Errorf("%w: node %q user %q", ErrOTPUserWithoutDaemon, nodeID, userKey)
			}
		}
		s.Users[userKey] = &world.UserConfig{
			UserID:   resolveUserID(uspec.UserID, nodeID, userKey, worldSeed),
			Password: resolvePassword(uspec.Password, nodeID, userKey, worldSeed),
			AuthMode: authMode,
			Privileges: world.Privileges{
				Read: uspec.Read, Write: uspec.Write, Execute: uspec.Execute,
			},
			Info: uspec.Info,
		}
	}
	return nil
}

func hasOTPDaemon(s *world.Server, userKey string) bool {
	for _, d := range s.Daemons {
		if d.DaemonType == "otp" && d.UserKey == userKey {
			return true
		}
	}
	return false
}

// warnUnreachable logs (does not fail) servers with no internet
// interface and no internet-capable lan peer, and interfaces on a
// subnet never referenced by any hub/link topology (spec §4.11 step 8).
func warnUnreachable(w *world.World, hubs []blueprint.Hub, links []blueprint.Link) {
	topologyNets := map[string]struct{}{}
	for _, h := range hubs {
		topologyNets[h.NetID] = struct{}{}
	}
	for _, l := range links {
		a, aok := w.ServerList[l.A]
		b, bok := w.ServerList[l.B]
		if !aok || !bok {
			continue
		}
		for netID := range a.SubnetMembership {
			if _, ok := b.SubnetMembership[netID]; ok {
				topologyNets[netID] = struct{}{}
			}
		}
	}

	for nodeID, s := range w.ServerList {
		reachable := false
		if _, ok := s.SubnetMembership["internet"]; ok {
			reachable = true
		}
		for _, peerID := range s.LANNeighbors {
			if peer, ok := w.ServerList[peerID]; ok {
				if _, ok := peer.SubnetMembership["internet"]; ok {
					reachable = true
					break
				}
			}
		}
		if !reachable {
			buildLog.Warn("builder: node %q has no internet interface and no internet-capable lan peer", nodeID)
		}
		for _, iface := range s.Ifaces {
			if _, ok := topologyNets[iface.NetID]; !ok {
				buildLog.Warn("builder: node %q interface on net %q never appears in hub/link topology", nodeID, iface.NetID)
			}
		}
	}
}
