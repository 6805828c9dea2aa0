// internal/discovery/discovery_test.go
package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/eg4-bank/internal/bms"
)

type countingQuery struct {
	calls map[bms.UnitAddress]int
	// failures before success per address; missing => always fail
	succeedAfter map[bms.UnitAddress]int
}

func newCountingQuery() *countingQuery {
	return &countingQuery{
		calls:        map[bms.UnitAddress]int{},
		succeedAfter: map[bms.UnitAddress]int{},
	}
}

func (p *countingQuery) query(_ context.Context, addr bms.UnitAddress) (bms.HardwareInfo, error) {
	p.calls[addr]++
	n, ok := p.succeedAfter[addr]
	if !ok || p.calls[addr] <= n {
		return bms.HardwareInfo{}, &bms.TransportError{Address: addr, Kind: bms.KindHardware, Err: errors.New("no reply")}
	}
	return bms.HardwareInfo{Address: addr, Make: "EG4-LL"}, nil
}

func TestDiscover_AlwaysFailingBoundedRetries(t *testing.T) {
	p := newCountingQuery()

	res := Discover(context.Background(), bms.AllAddresses(), 3, p.query, nil)

	assert.True(t, res.Presence.Empty())
	assert.Empty(t, res.Presence.Present())
	require.Len(t, p.calls, 16)
	for _, addr := range bms.AllAddresses() {
		assert.Equal(t, 3, p.calls[addr], "addr=%d", addr)
	}
}

func TestDiscover_StopsAtFirstSuccess(t *testing.T) {
	p := newCountingQuery()
	p.succeedAfter[16] = 0
	p.succeedAfter[1] = 2

	res := Discover(context.Background(), []bms.UnitAddress{16, 1, 2}, 3, p.query, nil)

	assert.Equal(t, []bms.UnitAddress{16, 1}, res.Presence.Present())
	assert.Equal(t, 1, p.calls[16])
	assert.Equal(t, 3, p.calls[1])
	assert.Equal(t, 3, p.calls[2])
	assert.Equal(t, "EG4-LL", res.Hardware[1].Make)
	assert.False(t, res.Presence.Has(2))
}

func TestDiscover_StaticSingleAttempt(t *testing.T) {
	p := newCountingQuery()
	p.succeedAfter[1] = 1 // would need a second attempt

	res := Discover(context.Background(), []bms.UnitAddress{16, 1}, DefaultStaticAttempts, p.query, nil)

	assert.True(t, res.Presence.Empty())
	assert.Equal(t, 1, p.calls[16])
	assert.Equal(t, 1, p.calls[1])
}

func TestDiscover_CancelledContext(t *testing.T) {
	p := newCountingQuery()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Discover(ctx, bms.AllAddresses(), 3, p.query, nil)

	assert.True(t, res.Presence.Empty())
	assert.Empty(t, p.calls)
}
