// Package flowcontrol implements the credit-based buffered link: the bounded
// ingress buffer and the multi-stage egress pipeline that feeds it.
//
// A pipeline and the buffer it delivers into form one credit domain. The
// pipeline starts with as many credits as the buffer has slots. It spends one
// credit per packet accepted and regains one credit each time the buffer pops
// a packet. The sum of the pipeline's credit balance and its uncredited
// packets therefore never exceeds the initial credit count.
package flowcontrol

import (
	"log"

	"github.com/sarchlab/ringnet/ring"
	"github.com/sarchlab/ringnet/sim"
)

// HookPosBufPush marks when a packet is pushed into a buffer.
var HookPosBufPush = &sim.HookPos{Name: "Buffer Push"}

// HookPosBufPop marks when a packet is popped from a buffer.
var HookPosBufPop = &sim.HookPos{Name: "Buffer Pop"}

// A Waker can resume a suspended component. It is implemented by
// sim.TickScheduler.
type Waker interface {
	TickLater()
}

// A CreditReturner accepts credit signals from a downstream buffer.
type CreditReturner interface {
	ReceiveCredit()
}

// A Buffer is a bounded FIFO of packets with credit-based backpressure. The
// feeding pipeline may only push while the buffer has a free slot, and each
// pop returns exactly one credit upstream.
type Buffer interface {
	sim.Named
	sim.Hookable

	CanPush() bool
	Push(pkt *ring.Packet)
	Pop() *ring.Packet
	Peek() *ring.Packet
	Capacity() int
	Size() int

	// BindUpstream binds the pipeline that receives this buffer's credit
	// signals. A buffer can be bound to at most one upstream.
	BindUpstream(up CreditReturner)

	// BindReader binds the component that drains this buffer, so that it can
	// be woken up when a packet arrives.
	BindReader(w Waker)
}

// NewBuffer creates a buffer with the given capacity. The capacity must be
// positive.
func NewBuffer(name string, capacity int) Buffer {
	if capacity <= 0 {
		log.Panicf("buffer %s: capacity must be positive, got %d",
			name, capacity)
	}

	return &bufferImpl{
		name:     name,
		capacity: capacity,
	}
}

type bufferImpl struct {
	sim.HookableBase

	name     string
	capacity int
	queue    []*ring.Packet

	upstream CreditReturner
	reader   Waker
}

func (b *bufferImpl) Name() string {
	return b.name
}

func (b *bufferImpl) CanPush() bool {
	return len(b.queue) < b.capacity
}

func (b *bufferImpl) Push(pkt *ring.Packet) {
	if len(b.queue) >= b.capacity {
		log.Panicf("buffer %s overflow", b.name)
	}

	b.queue = append(b.queue, pkt)

	if b.NumHooks() > 0 {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    HookPosBufPush,
			Item:   pkt,
		})
	}

	if b.reader != nil {
		b.reader.TickLater()
	}
}

func (b *bufferImpl) Pop() *ring.Packet {
	if len(b.queue) == 0 {
		return nil
	}

	pkt := b.queue[0]
	b.queue = b.queue[1:]

	if b.NumHooks() > 0 {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    HookPosBufPop,
			Item:   pkt,
		})
	}

	if b.upstream != nil {
		b.upstream.ReceiveCredit()
	}

	return pkt
}

func (b *bufferImpl) Peek() *ring.Packet {
	if len(b.queue) == 0 {
		return nil
	}

	return b.queue[0]
}

func (b *bufferImpl) Capacity() int {
	return b.capacity
}

func (b *bufferImpl) Size() int {
	return len(b.queue)
}

func (b *bufferImpl) BindUpstream(up CreditReturner) {
	if b.upstream != nil {
		log.Panicf("buffer %s: upstream already bound", b.name)
	}

	b.upstream = up
}

func (b *bufferImpl) BindReader(w Waker) {
	if b.reader != nil {
		log.Panicf("buffer %s: reader already bound", b.name)
	}

	b.reader = w
}
