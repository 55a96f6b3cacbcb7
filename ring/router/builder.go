package router

import (
	"fmt"
	"log"

	"github.com/sarchlab/ringnet/ring"
	"github.com/sarchlab/ringnet/ring/arbitration"
	"github.com/sarchlab/ringnet/ring/flowcontrol"
	"github.com/sarchlab/ringnet/ring/routing"
	"github.com/sarchlab/ringnet/sim"
)

// Builder can build routers.
type Builder struct {
	engine  sim.Engine
	freq    sim.Freq
	nodeID  ring.NodeID
	decider routing.Decider

	ringBufCapacity int
	procBufCapacity int
	ringDepth       int
	procDepth       int
	throughput      int
	ringInitCredits int
	procInitCredits int
}

// MakeBuilder creates a builder with the default configuration: ring-side
// capacity 4 and depth 4, processor-side capacity 2 and depth 2, 8 bytes per
// cycle.
func MakeBuilder() Builder {
	return Builder{
		freq:            1 * sim.GHz,
		ringBufCapacity: 4,
		procBufCapacity: 2,
		ringDepth:       4,
		procDepth:       2,
		throughput:      8,
		ringInitCredits: 4,
		procInitCredits: 2,
	}
}

// WithEngine sets the event engine that drives the router.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the tick frequency of the router.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithNodeID sets the position of the router in the ring.
func (b Builder) WithNodeID(id ring.NodeID) Builder {
	b.nodeID = id
	return b
}

// WithDecider sets the routing policy. The default is the single-bit ring
// turn policy for the router's node ID.
func (b Builder) WithDecider(d routing.Decider) Builder {
	b.decider = d
	return b
}

// WithRingBufCapacity sets the capacity of the ring-facing ingress buffers.
func (b Builder) WithRingBufCapacity(n int) Builder {
	b.ringBufCapacity = n
	return b
}

// WithProcBufCapacity sets the capacity of the processor-facing ingress
// buffers.
func (b Builder) WithProcBufCapacity(n int) Builder {
	b.procBufCapacity = n
	return b
}

// WithRingPipelineDepth sets the stage count of the ring-facing egress
// pipelines.
func (b Builder) WithRingPipelineDepth(n int) Builder {
	b.ringDepth = n
	return b
}

// WithProcPipelineDepth sets the stage count of the processor-facing egress
// pipelines.
func (b Builder) WithProcPipelineDepth(n int) Builder {
	b.procDepth = n
	return b
}

// WithThroughput sets the bytes-per-cycle rate of all egress pipelines.
func (b Builder) WithThroughput(bytesPerCycle int) Builder {
	b.throughput = bytesPerCycle
	return b
}

// WithRingInitCredits sets the initial credits of the ring-facing egress
// pipelines. It must match the ring ingress capacity of the next router.
func (b Builder) WithRingInitCredits(n int) Builder {
	b.ringInitCredits = n
	return b
}

// WithProcInitCredits sets the initial credits of the processor-facing
// egress pipelines. It must match the ingress capacity of the endpoint.
func (b Builder) WithProcInitCredits(n int) Builder {
	b.procInitCredits = n
	return b
}

// Build builds a router. The internal wiring of buffers, crossbars, and
// pipelines is fixed after this call.
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		log.Panicf("router %s: engine is not given", name)
	}

	c := &Comp{nodeID: b.nodeID}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	decider := b.decider
	if decider == nil {
		decider = routing.TurnDecider{NodeID: b.nodeID}
	}

	for r := 0; r < ring.NumRings; r++ {
		c.dirs[r] = b.buildDirection(c, ring.Ring(r), decider)
	}

	return c
}

func (b Builder) buildDirection(
	c *Comp,
	r ring.Ring,
	decider routing.Decider,
) *directionComplex {
	prefix := fmt.Sprintf("%s.%s", c.Name(), r)

	d := &directionComplex{
		ring:    r,
		decider: decider,
	}

	d.ringIn = flowcontrol.NewBuffer(prefix+".RingIn", b.ringBufCapacity)
	d.procIn = flowcontrol.NewBuffer(prefix+".ProcIn", b.procBufCapacity)
	d.ringIn.BindReader(c)
	d.procIn.BindReader(c)

	d.ringOut = flowcontrol.MakePipelineBuilder().
		WithDepth(b.ringDepth).
		WithThroughput(b.throughput).
		WithInitCredits(b.ringInitCredits).
		Build(prefix + ".RingOut")
	d.procOut = flowcontrol.MakePipelineBuilder().
		WithDepth(b.procDepth).
		WithThroughput(b.throughput).
		WithInitCredits(b.procInitCredits).
		Build(prefix + ".ProcOut")
	d.ringOut.BindOwner(c)
	d.procOut.BindOwner(c)

	hook := &hopEndHook{router: c}
	d.ringOut.AcceptHook(hook)
	d.procOut.AcceptHook(hook)

	d.xbar = arbitration.NewRoundRobinArbiter()
	d.xbar.AddInput(d.ringIn)
	d.xbar.AddInput(d.procIn)

	return d
}
