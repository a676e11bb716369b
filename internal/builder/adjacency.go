package builder

import "github.com/hollowgrid/engine/internal/blueprint"

// computeAdjacency derives each server's ordered lanNeighbors set (spec
// §4.11 step 6): every hub's members form a clique, united with
// explicit links. Order follows first-seen insertion order so two
// builds from the same blueprint produce identical slices.
func computeAdjacency(hubs []blueprint.Hub, links []blueprint.Link) map[string][]string {
	seen := map[string]map[string]struct{}{}
	order := map[string][]string{}

	add := func(a, b string) {
		if a == b {
			return
		}
		if seen[a] == nil {
			seen[a] = map[string]struct{}{}
		}
		if _, ok := seen[a][b]; !ok {
			seen[a][b] = struct{}{}
			order[a] = append(order[a], b)
		}
	}

	for _, h := range hubs {
		for i, a := range h.Members {
			for j, b := range h.Members {
				if i == j {
					continue
				}
				add(a, b)
			}
		}
	}
	for _, l := range links {
		add(l.A, l.B)
		add(l.B, l.A)
	}

	return order
}
