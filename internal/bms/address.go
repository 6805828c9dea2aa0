// internal/bms/address.go
package bms

import (
	"fmt"
	"sort"
)

// UnitAddress is the DIP-switch id of one BMU on the chain.
// 16 is the master; 1..15 are secondaries.
type UnitAddress uint8

const (
	MinAddress    UnitAddress = 1
	MasterAddress UnitAddress = 16
	MaxAddress    UnitAddress = 16
)

// Valid reports whether a is inside [1,16].
func (a UnitAddress) Valid() bool {
	return a >= MinAddress && a <= MaxAddress
}

func (a UnitAddress) IsMaster() bool { return a == MasterAddress }

func (a UnitAddress) String() string {
	return fmt.Sprintf("bmu-%d", uint8(a))
}

// AllAddresses returns 1..16 in ascending order (auto-scan candidates).
func AllAddresses() []UnitAddress {
	out := make([]UnitAddress, 0, MaxAddress)
	for a := MinAddress; a <= MaxAddress; a++ {
		out = append(out, a)
	}
	return out
}

// RequestKind selects which register block a request frame reads.
type RequestKind uint8

const (
	KindHardware RequestKind = iota + 1
	KindCell
	KindConfig
)

func (k RequestKind) String() string {
	switch k {
	case KindHardware:
		return "hardware"
	case KindCell:
		return "cell"
	case KindConfig:
		return "config"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// PresenceSet records which addresses answered discovery.
type PresenceSet map[UnitAddress]bool

// Present returns the responsive addresses with the master first,
// then secondaries ascending. This is the bus polling order.
func (p PresenceSet) Present() []UnitAddress {
	out := make([]UnitAddress, 0, len(p))
	for a, ok := range p {
		if ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsMaster() != out[j].IsMaster() {
			return out[i].IsMaster()
		}
		return out[i] < out[j]
	})
	return out
}

func (p PresenceSet) Has(a UnitAddress) bool { return p[a] }

// Empty reports whether no unit answered.
func (p PresenceSet) Empty() bool {
	for _, ok := range p {
		if ok {
			return false
		}
	}
	return true
}
