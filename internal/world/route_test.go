package world

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoutePrefixesAreNonRecursive(t *testing.T) {
	r := Route{Hops: []Session{{SessionID: 1}, {SessionID: 2}, {SessionID: 3}}}

	require.Equal(t, 3, r.HopCount())
	require.Equal(t, Session{SessionID: 3}, r.LastSession())

	prefixes := r.PrefixRoutes()
	require.Len(t, prefixes, 2)
	require.Equal(t, []Session{{SessionID: 1}}, prefixes[0].Hops)
	require.Equal(t, []Session{{SessionID: 1}, {SessionID: 2}}, prefixes[1].Hops)
}
