// Package acceptance provides whole-network tests that inject traffic into
// fully wired ring networks and check delivery.
package acceptance

import (
	"log"

	"github.com/sarchlab/ringnet/ring"
	"github.com/sarchlab/ringnet/sim"
)

// A Test collects the packets delivered by all the endpoints of a network
// and checks delivery invariants.
type Test struct {
	expectedPackets map[uint64]*ring.Packet
	receivedPackets []*ring.Packet
	receivedTable   map[uint64]bool

	lastRecvTime sim.VTimeInSec
}

// NewTest creates a new Test.
func NewTest() *Test {
	return &Test{
		expectedPackets: make(map[uint64]*ring.Packet),
		receivedTable:   make(map[uint64]bool),
	}
}

// ExpectPacket registers a packet that must eventually be delivered.
func (t *Test) ExpectPacket(pkt *ring.Packet) {
	t.expectedPackets[pkt.UID] = pkt
}

// PacketReceived records a delivery. It panics on double delivery, which
// would mean a packet was duplicated inside the network.
func (t *Test) PacketReceived(
	pkt *ring.Packet,
	_ ring.Ring,
	now sim.VTimeInSec,
) {
	if t.receivedTable[pkt.UID] {
		panic("packet is double delivered")
	}

	t.receivedTable[pkt.UID] = true
	t.receivedPackets = append(t.receivedPackets, pkt)
	t.lastRecvTime = now
}

// NumReceived returns the number of delivered packets.
func (t *Test) NumReceived() int {
	return len(t.receivedPackets)
}

// LastRecvTime returns the virtual time of the latest delivery.
func (t *Test) LastRecvTime() sim.VTimeInSec {
	return t.lastRecvTime
}

// AllPacketsReceived checks that every expected packet arrived, logging the
// missing ones.
func (t *Test) AllPacketsReceived() bool {
	if len(t.receivedPackets) == len(t.expectedPackets) {
		return true
	}

	for uid, pkt := range t.expectedPackets {
		if !t.receivedTable[uid] {
			log.Printf("packet %s from %d to %d expected, but not received",
				pkt.String(), pkt.Src, pkt.Dst)
		}
	}

	return false
}
