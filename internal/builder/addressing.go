package builder

import (
	"fmt"
	"net"

	"github.com/hollowgrid/engine/internal/addr"
	"github.com/hollowgrid/engine/internal/blueprint"
	"github.com/hollowgrid/engine/internal/world"
)

// allocators holds one internal/addr.Allocator per net, built from the
// scenario's AddressPlan (spec §4.11 step 5).
type allocators map[string]*addr.Allocator

func buildAllocators(plan []blueprint.AddressPlan, w *world.World) (allocators, error) {
	out := make(allocators, len(plan))
	for _, p := range plan {
		cidr, err := addr.ParseCIDR(p.CIDR)
		if err != nil {
			return nil, fmt.Errorf("builder: net %q: %w", p.NetID, err)
		}
		out[p.NetID] = addr.NewAllocator(cidr, func(ip net.IP) bool {
			return w.IPInUse(ip.String())
		})
	}
	return out, nil
}

// allocateInterfaces resolves every interface spec into a concrete
// world.Interface, honoring a fixed hostSuffix or auto-allocating.
func allocateInterfaces(specs []blueprint.InterfaceSpec, allocs allocators) ([]world.Interface, error) {
	ifaces := make([]world.Interface, 0, len(specs))
	for _, ispec := range specs {
		a, ok := allocs[ispec.NetID]
		if !ok {
			return nil, fmt.Errorf("builder: interface references unknown net %q", ispec.NetID)
		}
		var ip net.IP
		var err error
		if ispec.HostSuffix != nil {
			ip, err = a.AllocateFixed(ispec.HostSuffix)
		} else {
			ip, err = a.AllocateNext()
		}
		if err != nil {
			return nil, fmt.Errorf("builder: net %q: %w", ispec.NetID, err)
		}
		ifaces = append(ifaces, world.Interface{NetID: ispec.NetID, IP: ip.String()})
	}
	return ifaces, nil
}
