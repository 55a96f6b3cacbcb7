package endpoint

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/sarchlab/ringnet/ring"
	"github.com/sarchlab/ringnet/ring/flowcontrol"
	"github.com/sarchlab/ringnet/sim"
)

// Builder can build endpoints.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	nodeID   ring.NodeID
	numNodes int
	receiver Receiver
	seed     int64

	bufCapacity int
	depth       int
	throughput  int
	initCredits int

	minProcessingDelay int
	maxProcessingDelay int
}

// MakeBuilder creates a builder with the default configuration: ingress
// capacity 2, egress depth 2, 8 bytes per cycle, and a processing delay
// drawn uniformly from 5 to 30 cycles.
func MakeBuilder() Builder {
	return Builder{
		freq:               1 * sim.GHz,
		bufCapacity:        2,
		depth:              2,
		throughput:         8,
		initCredits:        2,
		minProcessingDelay: 5,
		maxProcessingDelay: 30,
		seed:               1,
	}
}

// WithEngine sets the event engine that drives the endpoint.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the tick frequency of the endpoint.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithNodeID sets the node identity of the endpoint.
func (b Builder) WithNodeID(id ring.NodeID) Builder {
	b.nodeID = id
	return b
}

// WithNumNodes sets the number of nodes in the network. Destinations are
// validated against this count.
func (b Builder) WithNumNodes(n int) Builder {
	b.numNodes = n
	return b
}

// WithReceiver sets the callback notified on every delivered packet.
func (b Builder) WithReceiver(r Receiver) Builder {
	b.receiver = r
	return b
}

// WithSeed sets the seed of the random source used for processing delays
// and random traffic destinations.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithBufCapacity sets the capacity of the ingress buffers.
func (b Builder) WithBufCapacity(n int) Builder {
	b.bufCapacity = n
	return b
}

// WithPipelineDepth sets the stage count of the egress pipelines.
func (b Builder) WithPipelineDepth(n int) Builder {
	b.depth = n
	return b
}

// WithThroughput sets the bytes-per-cycle rate of the egress pipelines.
func (b Builder) WithThroughput(bytesPerCycle int) Builder {
	b.throughput = bytesPerCycle
	return b
}

// WithInitCredits sets the initial credits of the egress pipelines. It must
// match the processor ingress capacity of the attached router.
func (b Builder) WithInitCredits(n int) Builder {
	b.initCredits = n
	return b
}

// WithProcessingDelay sets the inclusive range of cycles a delivered packet
// occupies the endpoint.
func (b Builder) WithProcessingDelay(min, max int) Builder {
	b.minProcessingDelay = min
	b.maxProcessingDelay = max
	return b
}

// Build builds an endpoint.
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		log.Panicf("endpoint %s: engine is not given", name)
	}

	if b.numNodes <= 1 {
		log.Panicf("endpoint %s: the network needs at least 2 nodes", name)
	}

	if b.minProcessingDelay < 0 || b.maxProcessingDelay < b.minProcessingDelay {
		log.Panicf("endpoint %s: invalid processing delay range [%d, %d]",
			name, b.minProcessingDelay, b.maxProcessingDelay)
	}

	c := &Comp{
		nodeID:             b.nodeID,
		numNodes:           b.numNodes,
		receiver:           b.receiver,
		rand:               rand.New(rand.NewSource(b.seed)),
		minProcessingDelay: b.minProcessingDelay,
		maxProcessingDelay: b.maxProcessingDelay,
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	for r := 0; r < ring.NumRings; r++ {
		prefix := fmt.Sprintf("%s.%s", name, ring.Ring(r))

		c.egress[r] = flowcontrol.MakePipelineBuilder().
			WithDepth(b.depth).
			WithThroughput(b.throughput).
			WithInitCredits(b.initCredits).
			Build(prefix + ".Egress")
		c.egress[r].BindOwner(c)

		c.ingress[r] = flowcontrol.NewBuffer(
			prefix+".Ingress", b.bufCapacity)
		c.ingress[r].BindReader(c)
	}

	return c
}
