// Package connector assembles routers and endpoints into a dual-ring
// network. Ring A carries traffic clockwise and ring B counter-clockwise.
package connector

import (
	"fmt"
	"log"

	"github.com/sarchlab/ringnet/ring"
	"github.com/sarchlab/ringnet/ring/endpoint"
	"github.com/sarchlab/ringnet/ring/flowcontrol"
	"github.com/sarchlab/ringnet/ring/router"
	"github.com/sarchlab/ringnet/sim"
)

// A Network is a fully wired dual-ring interconnect. Node i consists of
// Routers[i] and Endpoints[i].
type Network struct {
	Routers   []*router.Comp
	Endpoints []*endpoint.Comp
}

// NumNodes returns the number of nodes in the network.
func (n *Network) NumNodes() int {
	return len(n.Routers)
}

// Endpoint returns the endpoint at a node.
func (n *Network) Endpoint(id ring.NodeID) *endpoint.Comp {
	return n.Endpoints[id]
}

// Router returns the router at a node.
func (n *Network) Router(id ring.NodeID) *router.Comp {
	return n.Routers[id]
}

// TotalInjected returns the number of packets injected by all endpoints.
func (n *Network) TotalInjected() uint64 {
	var total uint64
	for _, e := range n.Endpoints {
		total += e.NumInjected()
	}

	return total
}

// TotalDelivered returns the number of packets delivered to all endpoints.
func (n *Network) TotalDelivered() uint64 {
	var total uint64
	for _, e := range n.Endpoints {
		total += e.NumDelivered()
	}

	return total
}

// Connector can build networks.
type Connector struct {
	engine   sim.Engine
	freq     sim.Freq
	numNodes int
	receiver endpoint.Receiver
	seed     int64

	ringBufCapacity int
	procBufCapacity int
	ringDepth       int
	procDepth       int
	throughput      int

	minProcessingDelay int
	maxProcessingDelay int
}

// MakeConnector creates a connector with the default configuration.
func MakeConnector() Connector {
	return Connector{
		freq:               1 * sim.GHz,
		numNodes:           2,
		seed:               1,
		ringBufCapacity:    4,
		procBufCapacity:    2,
		ringDepth:          4,
		procDepth:          2,
		throughput:         8,
		minProcessingDelay: 5,
		maxProcessingDelay: 30,
	}
}

// WithEngine sets the event engine that drives all components.
func (c Connector) WithEngine(engine sim.Engine) Connector {
	c.engine = engine
	return c
}

// WithFreq sets the tick frequency of all components.
func (c Connector) WithFreq(freq sim.Freq) Connector {
	c.freq = freq
	return c
}

// WithNumNodes sets the number of router and endpoint pairs.
func (c Connector) WithNumNodes(n int) Connector {
	c.numNodes = n
	return c
}

// WithReceiver sets the callback notified on every delivered packet.
func (c Connector) WithReceiver(r endpoint.Receiver) Connector {
	c.receiver = r
	return c
}

// WithSeed sets the base seed for the endpoints' random sources. Each
// endpoint derives its own seed from this value and its node ID.
func (c Connector) WithSeed(seed int64) Connector {
	c.seed = seed
	return c
}

// WithRingBufCapacity sets the capacity of the ring ingress buffers. The
// ring egress credits follow it.
func (c Connector) WithRingBufCapacity(n int) Connector {
	c.ringBufCapacity = n
	return c
}

// WithProcBufCapacity sets the capacity of the processor-side buffers. The
// processor-side credits follow it.
func (c Connector) WithProcBufCapacity(n int) Connector {
	c.procBufCapacity = n
	return c
}

// WithRingPipelineDepth sets the stage count of the ring egress pipelines.
func (c Connector) WithRingPipelineDepth(n int) Connector {
	c.ringDepth = n
	return c
}

// WithProcPipelineDepth sets the stage count of the processor-side egress
// pipelines.
func (c Connector) WithProcPipelineDepth(n int) Connector {
	c.procDepth = n
	return c
}

// WithThroughput sets the bytes-per-cycle rate of all pipelines.
func (c Connector) WithThroughput(bytesPerCycle int) Connector {
	c.throughput = bytesPerCycle
	return c
}

// WithProcessingDelay sets the inclusive range of cycles a delivered packet
// occupies an endpoint.
func (c Connector) WithProcessingDelay(min, max int) Connector {
	c.minProcessingDelay = min
	c.maxProcessingDelay = max
	return c
}

// Build builds a network of numNodes router and endpoint pairs, named
// <name>.Router<i> and <name>.Endpoint<i>.
func (c Connector) Build(name string) *Network {
	if c.engine == nil {
		log.Panicf("network %s: engine is not given", name)
	}

	if c.numNodes < 2 {
		log.Panicf("network %s: need at least 2 nodes, got %d",
			name, c.numNodes)
	}

	n := &Network{
		Routers:   make([]*router.Comp, c.numNodes),
		Endpoints: make([]*endpoint.Comp, c.numNodes),
	}

	for i := 0; i < c.numNodes; i++ {
		n.Routers[i] = router.MakeBuilder().
			WithEngine(c.engine).
			WithFreq(c.freq).
			WithNodeID(ring.NodeID(i)).
			WithRingBufCapacity(c.ringBufCapacity).
			WithProcBufCapacity(c.procBufCapacity).
			WithRingPipelineDepth(c.ringDepth).
			WithProcPipelineDepth(c.procDepth).
			WithThroughput(c.throughput).
			WithRingInitCredits(c.ringBufCapacity).
			WithProcInitCredits(c.procBufCapacity).
			Build(fmt.Sprintf("%s.Router%d", name, i))

		n.Endpoints[i] = endpoint.MakeBuilder().
			WithEngine(c.engine).
			WithFreq(c.freq).
			WithNodeID(ring.NodeID(i)).
			WithNumNodes(c.numNodes).
			WithReceiver(c.receiver).
			WithSeed(c.seed + int64(i)).
			WithBufCapacity(c.procBufCapacity).
			WithPipelineDepth(c.procDepth).
			WithThroughput(c.throughput).
			WithInitCredits(c.procBufCapacity).
			WithProcessingDelay(c.minProcessingDelay, c.maxProcessingDelay).
			Build(fmt.Sprintf("%s.Endpoint%d", name, i))
	}

	c.connectRouters(n)
	c.connectEndpoints(n)

	return n
}

// connectRouters links each router's ring egress to the ring ingress of its
// neighbor. Ring A flows from node i to node i+1, ring B flows from node i
// to node i-1.
func (c Connector) connectRouters(n *Network) {
	for i := 0; i < c.numNodes; i++ {
		next := (i + 1) % c.numNodes
		prev := (i - 1 + c.numNodes) % c.numNodes

		link(n.Routers[i].RingEgress(ring.RingA),
			n.Routers[next].RingIngress(ring.RingA))
		link(n.Routers[i].RingEgress(ring.RingB),
			n.Routers[prev].RingIngress(ring.RingB))
	}
}

func (c Connector) connectEndpoints(n *Network) {
	for i := 0; i < c.numNodes; i++ {
		for r := 0; r < ring.NumRings; r++ {
			link(n.Endpoints[i].Egress(ring.Ring(r)),
				n.Routers[i].ProcIngress(ring.Ring(r)))
			link(n.Routers[i].ProcEgress(ring.Ring(r)),
				n.Endpoints[i].Ingress(ring.Ring(r)))
		}
	}
}

// link ties one pipeline to the buffer it delivers into, closing the credit
// loop between them.
func link(pipe flowcontrol.Pipeline, buf flowcontrol.Buffer) {
	if pipe.InitCredits() != buf.Capacity() {
		log.Panicf(
			"link %s -> %s: init credits %d does not match capacity %d",
			pipe.Name(), buf.Name(), pipe.InitCredits(), buf.Capacity())
	}

	pipe.BindDownstream(buf)
	buf.BindUpstream(pipe)
}
