package addr

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCIDRRejectsNonBoundary(t *testing.T) {
	_, err := ParseCIDR("10.0.0.5/24")
	require.Error(t, err)
}

func TestParseCIDRRejectsUnsupportedPrefix(t *testing.T) {
	_, err := ParseCIDR("10.0.0.0/20")
	require.Error(t, err)
}

func TestParseCIDRAccepts24(t *testing.T) {
	c, err := ParseCIDR("10.0.0.0/24")
	require.NoError(t, err)
	require.Equal(t, Prefix24, c.Prefix)
	require.Equal(t, "10.0.0.0", c.BaseDot)
}

func TestAllocateFixedComposesHostSuffix(t *testing.T) {
	c, err := ParseCIDR("10.0.0.0/24")
	require.NoError(t, err)

	a := NewAllocator(c, func(net.IP) bool { return false })
	ip, err := a.AllocateFixed([]int{5})
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5", ip.String())
}

func TestAllocateFixedWrongOctetCountFails(t *testing.T) {
	c, err := ParseCIDR("10.0.0.0/24")
	require.NoError(t, err)

	a := NewAllocator(c, func(net.IP) bool { return false })
	_, err = a.AllocateFixed([]int{0, 5})
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestAllocateFixedRejectsReserved(t *testing.T) {
	c, err := ParseCIDR("10.0.0.0/24")
	require.NoError(t, err)

	a := NewAllocator(c, func(net.IP) bool { return false })
	_, err = a.AllocateFixed([]int{0})
	require.ErrorIs(t, err, ErrReserved)

	_, err = a.AllocateFixed([]int{255})
	require.ErrorIs(t, err, ErrReserved)
}

func TestAllocateFixedRejectsDuplicate(t *testing.T) {
	c, err := ParseCIDR("10.0.0.0/24")
	require.NoError(t, err)

	a := NewAllocator(c, func(ip net.IP) bool { return ip.String() == "10.0.0.9" })
	_, err = a.AllocateFixed([]int{9})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestAllocateNextSkipsInUseAndAscends(t *testing.T) {
	c, err := ParseCIDR("10.0.0.0/24")
	require.NoError(t, err)

	used := map[string]bool{"10.0.0.1": true, "10.0.0.2": true}
	a := NewAllocator(c, func(ip net.IP) bool { return used[ip.String()] })

	ip, err := a.AllocateNext()
	require.NoError(t, err)
	require.Equal(t, "10.0.0.3", ip.String())
}

func TestAllocateNextAdvancesHintAcrossCalls(t *testing.T) {
	c, err := ParseCIDR("10.0.0.0/24")
	require.NoError(t, err)

	a := NewAllocator(c, func(net.IP) bool { return false })
	first, err := a.AllocateNext()
	require.NoError(t, err)
	second, err := a.AllocateNext()
	require.NoError(t, err)
	require.NotEqual(t, first.String(), second.String())
}

func TestAllocateNextExhaustsSmallBlock(t *testing.T) {
	c, err := ParseCIDR("10.0.0.0/24")
	require.NoError(t, err)

	// every host but one is already in use
	used := func(ip net.IP) bool { return ip.String() != "10.0.0.254" }
	a := NewAllocator(c, used)

	ip, err := a.AllocateNext()
	require.NoError(t, err)
	require.Equal(t, "10.0.0.254", ip.String())

	a2 := NewAllocator(c, func(net.IP) bool { return true })
	_, err = a2.AllocateNext()
	require.ErrorIs(t, err, ErrExhausted)
}
