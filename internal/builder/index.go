package builder

import (
	"fmt"

	"github.com/hollowgrid/engine/internal/blueprint"
	"github.com/hollowgrid/engine/internal/world"
)

// specIndex resolves ServerSpecBlueprint values by specId (spec §4.11
// step 1).
type specIndex map[string]*blueprint.ServerSpecBlueprint

func buildSpecIndex(specs []blueprint.ServerSpecBlueprint) specIndex {
	idx := make(specIndex, len(specs))
	for i := range specs {
		idx[specs[i].SpecID] = &specs[i]
	}
	return idx
}

func parseRole(s string) (world.Role, error) {
	switch world.Role(s) {
	case world.RoleTerminal, world.RoleOTPGenerator, world.RoleMainframe, world.RoleTracer, world.RoleGateway:
		return world.Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func parseStatus(s string) world.Status {
	if world.Status(s) == world.StatusOnline {
		return world.StatusOnline
	}
	return world.StatusOffline
}

func parseReason(s string) world.Reason {
	switch world.Reason(s) {
	case world.ReasonReboot, world.ReasonDisabled, world.ReasonCrashed:
		return world.Reason(s)
	default:
		return world.ReasonOK
	}
}

func parseAuthMode(s string) world.AuthMode {
	switch world.AuthMode(s) {
	case world.AuthStatic, world.AuthOTP, world.AuthOther:
		return world.AuthMode(s)
	default:
		return world.AuthNone
	}
}

func parsePortType(s string) world.PortType {
	switch world.PortType(s) {
	case world.PortSSH, world.PortFTP, world.PortHTTP, world.PortSQL:
		return world.PortType(s)
	default:
		return world.PortNone
	}
}

func parseExposure(s string) world.Exposure {
	switch world.Exposure(s) {
	case world.ExposureLAN, world.ExposureLocalhost:
		return world.Exposure(s)
	default:
		return world.ExposurePublic
	}
}
