package world

import lru "github.com/hashicorp/golang-lru"

// exposureKey identifies one exposure-rule evaluation: a source server
// reaching a specific port on a target server.
type exposureKey struct {
	sourceNodeID string
	targetNodeID string
	port         int
}

// exposureCache memoizes ExposureAllowed, a pure function of slow-
// changing state (subnet membership, port config), the same way
// zmb3-teleport uses hashicorp/golang-lru to cache a pure function of
// cluster state. AddServer purges the whole cache rather than tracking
// fine-grained invalidation; it is the only purge. Ports and subnet
// membership are plain Server fields, so an edit made to them after
// AddServer is not seen by an already-cached answer.
type exposureCache struct {
	cache *lru.Cache
}

func newExposureCache(size int) *exposureCache {
	c, err := lru.New(size)
	if err != nil {
		// Only returns an error for size <= 0, which callers never pass.
		panic(err)
	}
	return &exposureCache{cache: c}
}

func (e *exposureCache) purge() {
	e.cache.Purge()
}

// ExposureAllowed implements the exposure rule (spec §4.4): a source
// server S may reach port on target T iff the port's exposure is
// public, or lan and S/T share a subnet, or localhost and S==T.
func (w *World) ExposureAllowed(sourceNodeID, targetNodeID string, port int) bool {
	key := exposureKey{sourceNodeID, targetNodeID, port}
	if v, ok := w.exposure.cache.Get(key); ok {
		return v.(bool)
	}

	allowed := w.computeExposure(sourceNodeID, targetNodeID, port)
	w.exposure.cache.Add(key, allowed)
	return allowed
}

func (w *World) computeExposure(sourceNodeID, targetNodeID string, port int) bool {
	target, ok := w.ServerList[targetNodeID]
	if !ok {
		return false
	}
	pc, ok := target.Ports[port]
	if !ok || pc.Type == PortNone {
		return false
	}

	switch pc.Exposure {
	case ExposurePublic:
		return true
	case ExposureLocalhost:
		return sourceNodeID == targetNodeID
	case ExposureLAN:
		source, ok := w.ServerList[sourceNodeID]
		if !ok {
			return false
		}
		for net := range source.SubnetMembership {
			if _, shared := target.SubnetMembership[net]; shared {
				return true
			}
		}
		return false
	default:
		return false
	}
}
