// Package router provides the switching node of the ring interconnect.
package router

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/ringnet/ring"
	"github.com/sarchlab/ringnet/ring/arbitration"
	"github.com/sarchlab/ringnet/ring/flowcontrol"
	"github.com/sarchlab/ringnet/ring/routing"
	"github.com/sarchlab/ringnet/sim"
	"github.com/sarchlab/ringnet/tracing"
)

// A directionComplex is the infrastructure a router owns for one ring
// direction: two ingress buffers feeding one crossbar, whose outputs are the
// ring egress pipeline and the processor egress pipeline.
type directionComplex struct {
	ring ring.Ring

	ringIn flowcontrol.Buffer
	procIn flowcontrol.Buffer

	ringOut flowcontrol.Pipeline
	procOut flowcontrol.Pipeline

	xbar    arbitration.Arbiter
	decider routing.Decider
}

// Comp is the switching node of the ring. Per ring direction it arbitrates
// between through traffic and locally injected traffic, and either forwards
// a packet to the next node or ejects it to the attached processor.
type Comp struct {
	*sim.TickingComponent

	nodeID ring.NodeID
	dirs   [ring.NumRings]*directionComplex
}

// NodeID returns the position of the router in the ring.
func (c *Comp) NodeID() ring.NodeID {
	return c.nodeID
}

// RingIngress returns the ring-facing ingress buffer of a direction.
func (c *Comp) RingIngress(r ring.Ring) flowcontrol.Buffer {
	return c.dirs[r].ringIn
}

// ProcIngress returns the processor-facing ingress buffer of a direction.
func (c *Comp) ProcIngress(r ring.Ring) flowcontrol.Buffer {
	return c.dirs[r].procIn
}

// RingEgress returns the ring-facing egress pipeline of a direction.
func (c *Comp) RingEgress(r ring.Ring) flowcontrol.Pipeline {
	return c.dirs[r].ringOut
}

// ProcEgress returns the processor-facing egress pipeline of a direction.
func (c *Comp) ProcEgress(r ring.Ring) flowcontrol.Pipeline {
	return c.dirs[r].procOut
}

// Buffers returns all the ingress buffers of the router, for monitoring.
func (c *Comp) Buffers() []flowcontrol.Buffer {
	bufs := make([]flowcontrol.Buffer, 0, 4)
	for _, d := range c.dirs {
		bufs = append(bufs, d.ringIn, d.procIn)
	}

	return bufs
}

// Tick updates the router state for one cycle.
func (c *Comp) Tick() bool {
	madeProgress := false

	for _, d := range c.dirs {
		madeProgress = c.movePipelines(d) || madeProgress
		madeProgress = c.arbitrate(d) || madeProgress
	}

	return madeProgress
}

func (c *Comp) movePipelines(d *directionComplex) bool {
	madeProgress := d.ringOut.Tick()
	madeProgress = d.procOut.Tick() || madeProgress

	return madeProgress
}

// arbitrate runs one arbitration cycle for one direction. The round-robin
// pointer of an output is only advanced past a committed winner, so a grant
// withheld for lack of credit does not change priorities.
func (c *Comp) arbitrate(d *directionComplex) bool {
	d.xbar.NewCycle()

	madeProgress := false

	for o := 0; o < ring.NumOutputPorts; o++ {
		output := ring.OutputPort(o)

		input, pkt, ok := d.xbar.Winner(output,
			func(in ring.InputPort, p *ring.Packet) bool {
				return d.decider.DecideOutput(p, in) == output
			})
		if !ok {
			continue
		}

		pipe := c.outputPipeline(d, output)
		if !pipe.CanAccept() {
			// Normal backpressure, retried on a later cycle.
			logrus.WithFields(logrus.Fields{
				"router": c.Name(),
				"ring":   d.ring.String(),
				"packet": pkt.String(),
				"output": output.String(),
			}).Debug("grant withheld, no downstream credit")

			continue
		}

		d.xbar.Commit(arbitration.Grant{
			Input:  input,
			Output: output,
			Packet: pkt,
		})

		granted := c.inputBuffer(d, input).Pop()
		pipe.Accept(granted)

		c.logRouteDecision(d, granted, input, output)
		tracing.StartTask(
			c.hopTaskID(granted),
			packetTaskID(granted),
			c, "hop", output.String(),
			granted,
		)

		madeProgress = true
	}

	return madeProgress
}

func (c *Comp) inputBuffer(
	d *directionComplex,
	input ring.InputPort,
) flowcontrol.Buffer {
	switch input {
	case ring.RingInput:
		return d.ringIn
	case ring.ProcessorInput:
		return d.procIn
	}

	panic(fmt.Sprintf("invalid input port %d", input))
}

func (c *Comp) outputPipeline(
	d *directionComplex,
	output ring.OutputPort,
) flowcontrol.Pipeline {
	switch output {
	case ring.RingOutput:
		return d.ringOut
	case ring.ProcessorOutput:
		return d.procOut
	}

	panic(fmt.Sprintf("invalid output port %d", output))
}

func (c *Comp) logRouteDecision(
	d *directionComplex,
	pkt *ring.Packet,
	input ring.InputPort,
	output ring.OutputPort,
) {
	logrus.WithFields(logrus.Fields{
		"router": c.Name(),
		"ring":   d.ring.String(),
		"packet": pkt.String(),
		"src":    int(pkt.Src),
		"dst":    int(pkt.Dst),
		"input":  input.String(),
		"output": output.String(),
	}).Debug("routed packet")
}

func (c *Comp) hopTaskID(pkt *ring.Packet) string {
	return fmt.Sprintf("%s_%s", pkt.String(), c.Name())
}

func packetTaskID(pkt *ring.Packet) string {
	return fmt.Sprintf("%s_e2e", pkt.String())
}

// A hopEndHook closes the hop task of a packet once the router's egress
// pipeline has delivered it to the next unit.
type hopEndHook struct {
	router *Comp
}

func (h *hopEndHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != flowcontrol.HookPosPipelineDeliver {
		return
	}

	pkt := ctx.Item.(*ring.Packet)

	logrus.WithFields(logrus.Fields{
		"router":   h.router.Name(),
		"packet":   pkt.String(),
		"pipeline": ctx.Domain.(sim.Named).Name(),
	}).Debug("hop delivered")

	tracing.EndTask(h.router.hopTaskID(pkt), h.router)
}
