// Package ring defines the data types shared by the components of the ring
// interconnect: packets, node identities, and port identities.
package ring

import (
	"fmt"
	"sync/atomic"
)

// NodeID identifies a position in the ring. It doubles as the destination
// match key for routing.
type NodeID int

// A Packet is the unit of transfer on the interconnect. A packet is immutable
// after creation and is owned by exactly one buffer or pipeline at any time.
type Packet struct {
	// UID is unique and monotonically increasing across the process. It is
	// assigned at creation and never reused.
	UID uint64

	Src NodeID
	Dst NodeID

	// TrafficBytes is the size of the packet on the wire. It determines how
	// long the packet occupies each pipeline stage.
	TrafficBytes int
}

func (p *Packet) String() string {
	return fmt.Sprintf("pkt-%d", p.UID)
}

var packetUID uint64

// ResetPacketUIDs restarts the process-wide packet UID counter. UIDs are not
// reset between runs unless this is called explicitly.
func ResetPacketUIDs() {
	atomic.StoreUint64(&packetUID, 0)
}

func nextPacketUID() uint64 {
	return atomic.AddUint64(&packetUID, 1)
}

// PacketBuilder can build packets.
type PacketBuilder struct {
	src, dst     NodeID
	trafficBytes int
}

// WithSrc sets the source node of the packet to build.
func (b PacketBuilder) WithSrc(src NodeID) PacketBuilder {
	b.src = src
	return b
}

// WithDst sets the destination node of the packet to build.
func (b PacketBuilder) WithDst(dst NodeID) PacketBuilder {
	b.dst = dst
	return b
}

// WithTrafficBytes sets the size of the packet to build.
func (b PacketBuilder) WithTrafficBytes(n int) PacketBuilder {
	b.trafficBytes = n
	return b
}

// Build creates a new packet and assigns its UID.
func (b PacketBuilder) Build() *Packet {
	trafficBytes := b.trafficBytes
	if trafficBytes == 0 {
		trafficBytes = DefaultPacketBytes
	}

	return &Packet{
		UID:          nextPacketUID(),
		Src:          b.src,
		Dst:          b.dst,
		TrafficBytes: trafficBytes,
	}
}

// DefaultPacketBytes is the packet size used when the builder is not given
// an explicit size.
const DefaultPacketBytes = 8
