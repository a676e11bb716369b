package main

import "github.com/hollowgrid/engine/internal/blueprint"

// sampleBlueprint is the bundled scenario enginectl builds when no
// --blueprint path is given (SPEC_FULL.md §4.12): a literal Go value
// standing in for the YAML loader, which is explicitly out of scope
// for the deterministic core.
func sampleBlueprint() *blueprint.ScenarioBlueprint {
	return &blueprint.ScenarioBlueprint{
		ScenarioID: "sample",
		Specs: []blueprint.ServerSpecBlueprint{
			{
				SpecID:        "workstation",
				Role:          "terminal",
				Hostname:      "home",
				InitialStatus: "online",
				Interfaces: []blueprint.InterfaceSpec{
					{NetID: "home", HostSuffix: []int{5}, InitiallyExposed: true},
				},
				Users: map[string]blueprint.UserSpec{
					"player": {UserID: "player", Password: "literal", AuthMode: "static", Read: true, Write: true, Execute: true},
				},
				Disk: blueprint.DiskSpec{
					Dirs: []string{"/etc", "/opt/bin"},
					Files: map[string]blueprint.DiskFileSpec{
						"/etc/motd": {FileKind: "text", Content: []byte("welcome to the sample scenario\ntry: connect 10.0.0.6 root hunter2\n")},
					},
				},
				LogCapacity: 50,
			},
			{
				SpecID:        "target",
				Role:          "mainframe",
				Hostname:      "mainframe-01",
				InitialStatus: "online",
				Interfaces: []blueprint.InterfaceSpec{
					{NetID: "home", HostSuffix: []int{6}, InitiallyExposed: true},
				},
				Ports: map[int]blueprint.PortSpec{
					22: {Type: "ssh", Exposure: "lan", ServiceID: "sshd", Banner: "mainframe-01 sshd"},
				},
				Daemons: map[string]blueprint.DaemonSpec{
					"sshd": {DaemonType: "ssh", UserKey: "root"},
				},
				Users: map[string]blueprint.UserSpec{
					"root": {UserID: "root", Password: "hunter2", AuthMode: "static", Read: true, Write: true, Execute: true},
				},
				Disk: blueprint.DiskSpec{
					Dirs: []string{"/etc"},
					Files: map[string]blueprint.DiskFileSpec{
						"/etc/motd": {FileKind: "text", Content: []byte("mainframe-01 -- authorized access only\n")},
					},
				},
			},
		},
		Spawns: []blueprint.ServerSpawn{
			{NodeID: "node-home", SpecID: "workstation"},
			{NodeID: "node-target", SpecID: "target"},
		},
		AddressPlan: []blueprint.AddressPlan{
			{NetID: "home", CIDR: "10.0.0.0/24"},
		},
		Links:            []blueprint.Link{{A: "node-home", B: "node-target"}},
		MyWorkstation:    "node-home",
		PreferredUserKey: "player",
	}
}
