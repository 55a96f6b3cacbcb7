// Package arbitration provides round-robin crossbar arbitration among
// credit-controlled input buffers.
package arbitration

import (
	"log"

	"github.com/sarchlab/ringnet/ring"
	"github.com/sarchlab/ringnet/ring/flowcontrol"
)

// A Grant records one committed (input, output) pair. It is transient state
// for the current cycle, kept for diagnostics.
type Grant struct {
	Input  ring.InputPort
	Output ring.OutputPort
	Packet *ring.Packet
}

// An Arbiter selects, per output port and per cycle, at most one winning
// input among the contenders, with round-robin fairness.
//
// The round-robin pointer of an output only advances past a committed
// winner. A grant withheld for lack of downstream credit leaves the pointer
// unchanged, so the same input keeps its priority once credit returns.
type Arbiter interface {
	// AddInput registers an input buffer. Registration order is the
	// priority order used to break same-cycle ties deterministically.
	AddInput(buf flowcontrol.Buffer)

	NumInputs() int

	// Winner returns the round-robin winner among the inputs whose head
	// packet contends for the given output. The contends function judges
	// the head packet of an input. An input that was already granted in
	// the current cycle is not considered again, so each input dequeues at
	// most once per cycle. Winner does not advance any pointer.
	Winner(
		output ring.OutputPort,
		contends func(input ring.InputPort, pkt *ring.Packet) bool,
	) (input ring.InputPort, pkt *ring.Packet, ok bool)

	// Commit advances the round-robin pointer of the output to just past
	// the winner and records the grant for the current cycle.
	Commit(grant Grant)

	// NewCycle clears the transient per-cycle grant records.
	NewCycle()

	// Grants returns the grants committed in the current cycle.
	Grants() []Grant
}

// NewRoundRobinArbiter creates an arbiter with one round-robin pointer per
// output port.
func NewRoundRobinArbiter() Arbiter {
	return &roundRobinArbiter{
		pointers: make([]int, ring.NumOutputPorts),
	}
}

type roundRobinArbiter struct {
	inputs   []flowcontrol.Buffer
	pointers []int
	grants   []Grant
}

func (a *roundRobinArbiter) AddInput(buf flowcontrol.Buffer) {
	a.inputs = append(a.inputs, buf)
}

func (a *roundRobinArbiter) NumInputs() int {
	return len(a.inputs)
}

func (a *roundRobinArbiter) Winner(
	output ring.OutputPort,
	contends func(input ring.InputPort, pkt *ring.Packet) bool,
) (ring.InputPort, *ring.Packet, bool) {
	numInputs := len(a.inputs)
	if numInputs == 0 {
		log.Panic("arbitrating without input buffers")
	}

	start := a.pointers[output]
	for i := 0; i < numInputs; i++ {
		input := ring.InputPort((start + i) % numInputs)

		if a.grantedThisCycle(input) {
			continue
		}

		pkt := a.inputs[input].Peek()
		if pkt == nil {
			continue
		}

		if !contends(input, pkt) {
			continue
		}

		return input, pkt, true
	}

	return 0, nil, false
}

func (a *roundRobinArbiter) grantedThisCycle(input ring.InputPort) bool {
	for _, g := range a.grants {
		if g.Input == input {
			return true
		}
	}

	return false
}

func (a *roundRobinArbiter) Commit(grant Grant) {
	a.pointers[grant.Output] = (int(grant.Input) + 1) % len(a.inputs)
	a.grants = append(a.grants, grant)
}

func (a *roundRobinArbiter) NewCycle() {
	a.grants = a.grants[:0]
}

func (a *roundRobinArbiter) Grants() []Grant {
	return a.grants
}
