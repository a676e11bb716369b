package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hollowgrid/engine/internal/blueprint"
)

// yamlBlueprint mirrors blueprint.ScenarioBlueprint with yaml tags.
// Kept as a separate DTO rather than tagging the core type directly:
// the YAML shape is this reference CLI's concern (SPEC_FULL.md §3.1
// calls the blueprint loader itself out of scope for the deterministic
// core), not internal/blueprint's.
type yamlBlueprint struct {
	ScenarioID string `yaml:"scenarioId"`

	Specs  []yamlServerSpec  `yaml:"specs"`
	Spawns []yamlServerSpawn `yaml:"spawns"`

	AddressPlan []yamlAddressPlan `yaml:"addressPlan"`
	Hubs        []yamlHub         `yaml:"hubs"`
	Links       []yamlLink        `yaml:"links"`

	Events  []yamlEvent       `yaml:"events"`
	Scripts map[string]string `yaml:"scripts"`

	MyWorkstation    string `yaml:"myWorkstation"`
	PreferredUserKey string `yaml:"preferredUserKey"`
}

type yamlServerSpec struct {
	SpecID        string `yaml:"specId"`
	Role          string `yaml:"role"`
	Hostname      string `yaml:"hostname"`
	InitialStatus string `yaml:"initialStatus"`
	InitialReason string `yaml:"initialReason"`

	Interfaces []yamlInterface       `yaml:"interfaces"`
	Ports      map[int]yamlPort      `yaml:"ports"`
	Daemons    map[string]yamlDaemon `yaml:"daemons"`
	Users      map[string]yamlUser   `yaml:"users"`
	Disk       yamlDisk              `yaml:"disk"`

	LogCapacity int `yaml:"logCapacity"`
}

type yamlInterface struct {
	NetID            string `yaml:"netId"`
	HostSuffix       []int  `yaml:"hostSuffix"`
	InitiallyExposed bool   `yaml:"initiallyExposed"`
}

type yamlPort struct {
	Type      string `yaml:"type"`
	Exposure  string `yaml:"exposure"`
	ServiceID string `yaml:"serviceId"`
	Banner    string `yaml:"banner"`
}

type yamlDaemon struct {
	DaemonType string            `yaml:"daemonType"`
	UserKey    string            `yaml:"userKey"`
	Config     map[string]string `yaml:"config"`
}

type yamlUser struct {
	UserID   string   `yaml:"userId"`
	Password string   `yaml:"password"`
	AuthMode string   `yaml:"authMode"`
	Read     bool     `yaml:"read"`
	Write    bool     `yaml:"write"`
	Execute  bool     `yaml:"execute"`
	Info     []string `yaml:"info"`
}

type yamlDiskFile struct {
	FileKind string `yaml:"fileKind"`
	Content  string `yaml:"content"`
}

type yamlDisk struct {
	Files      map[string]yamlDiskFile `yaml:"files"`
	Dirs       []string                `yaml:"dirs"`
	Tombstones []string                `yaml:"tombstones"`
}

type yamlServerSpawn struct {
	NodeID string `yaml:"nodeId"`
	SpecID string `yaml:"specId"`

	Hostname      *string `yaml:"hostname"`
	InitialStatus *string `yaml:"initialStatus"`
	InitialReason *string `yaml:"initialReason"`

	DiskOverlay yamlDisk `yaml:"diskOverlay"`
}

type yamlAddressPlan struct {
	NetID string `yaml:"netId"`
	CIDR  string `yaml:"cidr"`
}

type yamlHub struct {
	NetID   string   `yaml:"netId"`
	Members []string `yaml:"members"`
}

type yamlLink struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
}

type yamlEvent struct {
	EventID       string `yaml:"eventId"`
	ConditionType string `yaml:"conditionType"`

	NodeID    *string `yaml:"nodeId"`
	UserKey   *string `yaml:"userKey"`
	Privilege *string `yaml:"privilege"`
	FileName  *string `yaml:"fileName"`

	GuardContent string       `yaml:"guardContent"`
	Actions      []yamlAction `yaml:"actions"`
}

type yamlAction struct {
	Kind string                 `yaml:"kind"`
	Args map[string]interface{} `yaml:"args"`
}

// loadBlueprintYAML decodes path into a blueprint.ScenarioBlueprint.
// Port overrides / user overrides / daemon overrides at the spawn level
// are deliberately not exposed in this reference YAML shape — the
// sample scenario format only needs to demonstrate spec composition,
// not the full override surface builder.Build supports.
func loadBlueprintYAML(path string) (*blueprint.ScenarioBlueprint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var y yamlBlueprint
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return nil, err
	}
	return y.toBlueprint(), nil
}

func (y yamlBlueprint) toBlueprint() *blueprint.ScenarioBlueprint {
	bp := &blueprint.ScenarioBlueprint{
		ScenarioID:       y.ScenarioID,
		MyWorkstation:    y.MyWorkstation,
		PreferredUserKey: y.PreferredUserKey,
		Scripts:          y.Scripts,
	}

	for _, s := range y.Specs {
		bp.Specs = append(bp.Specs, s.toSpec())
	}
	for _, s := range y.Spawns {
		bp.Spawns = append(bp.Spawns, s.toSpawn())
	}
	for _, a := range y.AddressPlan {
		bp.AddressPlan = append(bp.AddressPlan, blueprint.AddressPlan{NetID: a.NetID, CIDR: a.CIDR})
	}
	for _, h := range y.Hubs {
		bp.Hubs = append(bp.Hubs, blueprint.Hub{NetID: h.NetID, Members: h.Members})
	}
	for _, l := range y.Links {
		bp.Links = append(bp.Links, blueprint.Link{A: l.A, B: l.B})
	}
	for _, e := range y.Events {
		bp.Events = append(bp.Events, e.toEventBlueprint(y.ScenarioID))
	}
	return bp
}

func (s yamlServerSpec) toSpec() blueprint.ServerSpecBlueprint {
	out := blueprint.ServerSpecBlueprint{
		SpecID: s.SpecID, Role: s.Role, Hostname: s.Hostname,
		InitialStatus: s.InitialStatus, InitialReason: s.InitialReason,
		LogCapacity: s.LogCapacity,
		Disk:        s.Disk.toDiskSpec(),
	}
	for _, iface := range s.Interfaces {
		out.Interfaces = append(out.Interfaces, blueprint.InterfaceSpec{
			NetID: iface.NetID, HostSuffix: iface.HostSuffix, InitiallyExposed: iface.InitiallyExposed,
		})
	}
	if len(s.Ports) > 0 {
		out.Ports = map[int]blueprint.PortSpec{}
		for port, p := range s.Ports {
			out.Ports[port] = blueprint.PortSpec{Type: p.Type, Exposure: p.Exposure, ServiceID: p.ServiceID, Banner: p.Banner}
		}
	}
	if len(s.Daemons) > 0 {
		out.Daemons = map[string]blueprint.DaemonSpec{}
		for key, d := range s.Daemons {
			out.Daemons[key] = blueprint.DaemonSpec{DaemonType: d.DaemonType, UserKey: d.UserKey, Config: d.Config}
		}
	}
	if len(s.Users) > 0 {
		out.Users = map[string]blueprint.UserSpec{}
		for key, u := range s.Users {
			out.Users[key] = blueprint.UserSpec{
				UserID: u.UserID, Password: u.Password, AuthMode: u.AuthMode,
				Read: u.Read, Write: u.Write, Execute: u.Execute, Info: u.Info,
			}
		}
	}
	return out
}

func (d yamlDisk) toDiskSpec() blueprint.DiskSpec {
	out := blueprint.DiskSpec{Dirs: d.Dirs, Tombstones: d.Tombstones}
	if len(d.Files) > 0 {
		out.Files = map[string]blueprint.DiskFileSpec{}
		for path, f := range d.Files {
			out.Files[path] = blueprint.DiskFileSpec{FileKind: f.FileKind, Content: []byte(f.Content)}
		}
	}
	return out
}

func (s yamlServerSpawn) toSpawn() blueprint.ServerSpawn {
	return blueprint.ServerSpawn{
		NodeID: s.NodeID, SpecID: s.SpecID,
		Hostname: s.Hostname, InitialStatus: s.InitialStatus, InitialReason: s.InitialReason,
		DiskOverlay: s.DiskOverlay.toDiskSpec(),
	}
}

func (e yamlEvent) toEventBlueprint(scenarioID string) blueprint.EventBlueprint {
	out := blueprint.EventBlueprint{
		ScenarioID: scenarioID, EventID: e.EventID, ConditionType: e.ConditionType,
		NodeID: e.NodeID, UserKey: e.UserKey, Privilege: e.Privilege, FileName: e.FileName,
		GuardContent: e.GuardContent,
	}
	for _, a := range e.Actions {
		out.Actions = append(out.Actions, blueprint.ActionSpec{Kind: a.Kind, Args: a.Args})
	}
	return out
}
