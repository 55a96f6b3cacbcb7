// Package endpoint provides the processor attached to a router. It injects
// generated packets into the fabric and drains arriving packets with an
// emulated processing delay.
package endpoint

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/ringnet/ring"
	"github.com/sarchlab/ringnet/ring/flowcontrol"
	"github.com/sarchlab/ringnet/sim"
	"github.com/sarchlab/ringnet/tracing"
)

// A Receiver is notified of every packet that reaches its destination
// endpoint.
type Receiver interface {
	PacketReceived(pkt *ring.Packet, r ring.Ring, now sim.VTimeInSec)
}

// Comp is the processor endpoint. Per ring direction it owns one egress
// pipeline into the router and one ingress buffer fed by the router.
type Comp struct {
	*sim.TickingComponent

	nodeID   ring.NodeID
	numNodes int

	egress  [ring.NumRings]flowcontrol.Pipeline
	ingress [ring.NumRings]flowcontrol.Buffer

	toSend    [ring.NumRings][]*ring.Packet
	busyUntil [ring.NumRings]sim.VTimeInSec

	rand               *rand.Rand
	minProcessingDelay int
	maxProcessingDelay int

	receiver Receiver

	numInjected  uint64
	numDelivered uint64
}

// NodeID returns the node identity of the endpoint.
func (c *Comp) NodeID() ring.NodeID {
	return c.nodeID
}

// Egress returns the egress pipeline of a ring direction.
func (c *Comp) Egress(r ring.Ring) flowcontrol.Pipeline {
	return c.egress[r]
}

// Ingress returns the ingress buffer of a ring direction.
func (c *Comp) Ingress(r ring.Ring) flowcontrol.Buffer {
	return c.ingress[r]
}

// Buffers returns the ingress buffers of the endpoint, for monitoring.
func (c *Comp) Buffers() []flowcontrol.Buffer {
	return []flowcontrol.Buffer{
		c.ingress[ring.RingA],
		c.ingress[ring.RingB],
	}
}

// NumInjected returns the number of packets this endpoint has accepted into
// its egress pipelines.
func (c *Comp) NumInjected() uint64 {
	return c.numInjected
}

// NumDelivered returns the number of packets this endpoint has received.
func (c *Comp) NumDelivered() uint64 {
	return c.numDelivered
}

// NumPending returns the number of generated packets not yet injected.
func (c *Comp) NumPending() int {
	return len(c.toSend[ring.RingA]) + len(c.toSend[ring.RingB])
}

// InjectPacket queues a packet addressed to dst on the given ring direction.
// The destination must be a valid node identity other than the endpoint's
// own, which is checked before the simulation continues.
func (c *Comp) InjectPacket(r ring.Ring, dst ring.NodeID) *ring.Packet {
	if dst == c.nodeID {
		log.Panicf("endpoint %s: packet addressed to itself", c.Name())
	}

	if dst < 0 || int(dst) >= c.numNodes {
		log.Panicf("endpoint %s: unreachable destination %d",
			c.Name(), dst)
	}

	pkt := ring.PacketBuilder{}.
		WithSrc(c.nodeID).
		WithDst(dst).
		Build()
	c.toSend[r] = append(c.toSend[r], pkt)

	logrus.WithFields(logrus.Fields{
		"endpoint": c.Name(),
		"packet":   pkt.String(),
		"src":      int(pkt.Src),
		"dst":      int(pkt.Dst),
		"ring":     r.String(),
	}).Info("packet created")

	c.TickLater()

	return pkt
}

// GenerateTraffic queues count packets per ring direction, each addressed
// to a uniformly random node other than this one.
func (c *Comp) GenerateTraffic(count int) {
	for r := 0; r < ring.NumRings; r++ {
		for i := 0; i < count; i++ {
			dst := ring.NodeID(c.rand.Intn(c.numNodes))
			for dst == c.nodeID {
				dst = ring.NodeID(c.rand.Intn(c.numNodes))
			}

			c.InjectPacket(ring.Ring(r), dst)
		}
	}
}

// Tick updates the endpoint state for one cycle.
func (c *Comp) Tick() bool {
	madeProgress := false

	for r := 0; r < ring.NumRings; r++ {
		madeProgress = c.egress[r].Tick() || madeProgress
		madeProgress = c.inject(ring.Ring(r)) || madeProgress
		madeProgress = c.drain(ring.Ring(r)) || madeProgress
	}

	return madeProgress
}

func (c *Comp) inject(r ring.Ring) bool {
	if len(c.toSend[r]) == 0 {
		return false
	}

	pipe := c.egress[r]
	if !pipe.CanAccept() {
		// Waiting for credit. The pipeline wakes us when one returns.
		return false
	}

	pkt := c.toSend[r][0]
	c.toSend[r] = c.toSend[r][1:]
	pipe.Accept(pkt)
	c.numInjected++

	tracing.StartTask(
		packetTaskID(pkt), "",
		c, "packet_e2e", r.String(),
		pkt,
	)

	return true
}

func (c *Comp) drain(r ring.Ring) bool {
	now := c.CurrentTime()

	if now < c.busyUntil[r] {
		// Still emulating the processing of the previous packet.
		c.TickAt(c.busyUntil[r])
		return false
	}

	pkt := c.ingress[r].Pop()
	if pkt == nil {
		return false
	}

	if pkt.Dst != c.nodeID {
		log.Panicf("endpoint %s: received misrouted packet %s for node %d",
			c.Name(), pkt.String(), pkt.Dst)
	}

	c.numDelivered++

	delay := c.minProcessingDelay
	if c.maxProcessingDelay > c.minProcessingDelay {
		delay += c.rand.Intn(c.maxProcessingDelay - c.minProcessingDelay + 1)
	}
	c.busyUntil[r] = c.Freq.NCyclesLater(delay, now)

	logrus.WithFields(logrus.Fields{
		"endpoint": c.Name(),
		"packet":   pkt.String(),
		"src":      int(pkt.Src),
		"ring":     r.String(),
	}).Info("packet received")

	tracing.EndTask(packetTaskID(pkt), c)

	if c.receiver != nil {
		c.receiver.PacketReceived(pkt, r, now)
	}

	return true
}

func packetTaskID(pkt *ring.Packet) string {
	return fmt.Sprintf("%s_e2e", pkt.String())
}
