package flowcontrol

import (
	"log"

	"github.com/sarchlab/ringnet/ring"
	"github.com/sarchlab/ringnet/sim"
)

// HookPosPipelineAccept marks when a pipeline accepts a packet, spending one
// credit.
var HookPosPipelineAccept = &sim.HookPos{Name: "Pipeline Accept"}

// HookPosPipelineDeliver marks when a pipeline delivers a packet into the
// downstream buffer.
var HookPosPipelineDeliver = &sim.HookPos{Name: "Pipeline Deliver"}

// HookPosCreditReturn marks when a pipeline regains one credit.
var HookPosCreditReturn = &sim.HookPos{Name: "Credit Return"}

// A Pipeline is a multi-stage, rate-limited transport that holds a credit
// balance for its downstream buffer. Packets advance one stage per tick,
// occupying each stage for a number of cycles proportional to their size.
// The tail stage stalls while the downstream buffer is full.
type Pipeline interface {
	sim.Named
	sim.Hookable
	CreditReturner

	// Tick moves packets in the pipeline forward, delivering the tail
	// packet into the downstream buffer when its stage time has elapsed.
	Tick() (madeProgress bool)

	// CanAccept checks if the pipeline can accept a new packet this cycle.
	// It requires at least one credit and a free head stage.
	CanAccept() bool

	// Accept adds a packet to the pipeline, spending one credit. It panics
	// if CanAccept would return false.
	Accept(pkt *ring.Packet)

	CreditBalance() int
	InitCredits() int
	Depth() int
	InFlight() int

	// BindDownstream binds the buffer that this pipeline delivers into. A
	// pipeline can be bound to at most one downstream buffer.
	BindDownstream(buf Buffer)

	// BindOwner binds the component that feeds this pipeline, so that it
	// can be woken up when a credit returns.
	BindOwner(w Waker)
}

type stageInfo struct {
	pkt       *ring.Packet
	cycleLeft int
}

type pipelineImpl struct {
	sim.HookableBase

	name                    string
	depth                   int
	throughputBytesPerCycle int
	initCredits             int
	creditBalance           int

	stages     []stageInfo
	downstream Buffer
	owner      Waker
}

func (p *pipelineImpl) Name() string {
	return p.name
}

func (p *pipelineImpl) Tick() (madeProgress bool) {
	for i := p.depth - 1; i >= 0; i-- {
		stage := &p.stages[i]

		if stage.pkt == nil {
			continue
		}

		if stage.cycleLeft > 0 {
			stage.cycleLeft--
			madeProgress = true
			continue
		}

		if i == p.depth-1 {
			madeProgress = p.tryDeliver(stage) || madeProgress
		} else {
			madeProgress = p.tryMoveToNextStage(i) || madeProgress
		}
	}

	return madeProgress
}

func (p *pipelineImpl) tryDeliver(stage *stageInfo) bool {
	if p.downstream == nil {
		log.Panicf("pipeline %s: no downstream buffer bound", p.name)
	}

	if !p.downstream.CanPush() {
		// Tail stall. Backpressure propagates to earlier stages because
		// they cannot move into an occupied stage.
		return false
	}

	pkt := stage.pkt
	stage.pkt = nil
	p.downstream.Push(pkt)

	if p.NumHooks() > 0 {
		p.InvokeHook(sim.HookCtx{
			Domain: p,
			Pos:    HookPosPipelineDeliver,
			Item:   pkt,
		})
	}

	return true
}

func (p *pipelineImpl) tryMoveToNextStage(i int) bool {
	stage := &p.stages[i]
	nextStage := &p.stages[i+1]

	if nextStage.pkt != nil {
		return false
	}

	nextStage.pkt = stage.pkt
	nextStage.cycleLeft = p.stageOccupancy(stage.pkt) - 1
	stage.pkt = nil

	return true
}

// stageOccupancy is the number of cycles a packet holds one stage, derived
// from the packet size and the per-cycle byte throughput.
func (p *pipelineImpl) stageOccupancy(pkt *ring.Packet) int {
	cycles := (pkt.TrafficBytes + p.throughputBytesPerCycle - 1) /
		p.throughputBytesPerCycle
	if cycles < 1 {
		cycles = 1
	}

	return cycles
}

func (p *pipelineImpl) CanAccept() bool {
	return p.creditBalance > 0 && p.stages[0].pkt == nil
}

func (p *pipelineImpl) Accept(pkt *ring.Packet) {
	if p.creditBalance <= 0 {
		log.Panicf("pipeline %s: accepting a packet without credit", p.name)
	}

	if p.stages[0].pkt != nil {
		log.Panicf("pipeline %s: head stage occupied, use CanAccept first",
			p.name)
	}

	p.creditBalance--
	p.stages[0].pkt = pkt
	p.stages[0].cycleLeft = p.stageOccupancy(pkt) - 1

	if p.NumHooks() > 0 {
		p.InvokeHook(sim.HookCtx{
			Domain: p,
			Pos:    HookPosPipelineAccept,
			Item:   pkt,
		})
	}
}

func (p *pipelineImpl) ReceiveCredit() {
	if p.creditBalance >= p.initCredits {
		log.Panicf("pipeline %s: credit balance exceeding initial credits",
			p.name)
	}

	p.creditBalance++

	if p.NumHooks() > 0 {
		p.InvokeHook(sim.HookCtx{
			Domain: p,
			Pos:    HookPosCreditReturn,
		})
	}

	if p.owner != nil {
		p.owner.TickLater()
	}
}

func (p *pipelineImpl) CreditBalance() int {
	return p.creditBalance
}

func (p *pipelineImpl) InitCredits() int {
	return p.initCredits
}

func (p *pipelineImpl) Depth() int {
	return p.depth
}

func (p *pipelineImpl) InFlight() int {
	count := 0
	for i := range p.stages {
		if p.stages[i].pkt != nil {
			count++
		}
	}

	return count
}

func (p *pipelineImpl) BindDownstream(buf Buffer) {
	if p.downstream != nil {
		log.Panicf("pipeline %s: downstream already bound", p.name)
	}

	p.downstream = buf
}

func (p *pipelineImpl) BindOwner(w Waker) {
	if p.owner != nil {
		log.Panicf("pipeline %s: owner already bound", p.name)
	}

	p.owner = w
}

// PipelineBuilder can build pipelines.
type PipelineBuilder struct {
	depth                   int
	throughputBytesPerCycle int
	initCredits             int
}

// MakePipelineBuilder creates a builder with the default configuration.
func MakePipelineBuilder() PipelineBuilder {
	return PipelineBuilder{
		depth:                   1,
		throughputBytesPerCycle: 8,
		initCredits:             1,
	}
}

// WithDepth sets the number of pipeline stages.
func (b PipelineBuilder) WithDepth(n int) PipelineBuilder {
	b.depth = n
	return b
}

// WithThroughput sets the number of bytes that can enter a stage per cycle.
func (b PipelineBuilder) WithThroughput(bytesPerCycle int) PipelineBuilder {
	b.throughputBytesPerCycle = bytesPerCycle
	return b
}

// WithInitCredits sets the initial credit balance. It must equal the
// capacity of the downstream buffer.
func (b PipelineBuilder) WithInitCredits(n int) PipelineBuilder {
	b.initCredits = n
	return b
}

// Build builds a pipeline. Invalid configurations panic before the
// simulation starts.
func (b PipelineBuilder) Build(name string) Pipeline {
	if b.depth <= 0 {
		log.Panicf("pipeline %s: depth must be positive, got %d",
			name, b.depth)
	}

	if b.throughputBytesPerCycle <= 0 {
		log.Panicf("pipeline %s: throughput must be positive, got %d",
			name, b.throughputBytesPerCycle)
	}

	if b.initCredits <= 0 {
		log.Panicf("pipeline %s: initCredits must be positive, got %d",
			name, b.initCredits)
	}

	return &pipelineImpl{
		name:                    name,
		depth:                   b.depth,
		throughputBytesPerCycle: b.throughputBytesPerCycle,
		initCredits:             b.initCredits,
		creditBalance:           b.initCredits,
		stages:                  make([]stageInfo, b.depth),
	}
}
