// Package routing defines the routing capability used by routers to decide
// the output port of a packet.
package routing

import "github.com/sarchlab/ringnet/ring"

// A Decider maps the head packet of an input port to an output port. It must
// be deterministic and stateless. Implementations are selected at router
// construction time, keeping routing policies pluggable.
type Decider interface {
	DecideOutput(pkt *ring.Packet, input ring.InputPort) ring.OutputPort
}

// TurnDecider implements the single-bit ring policy: a packet exits to the
// processor side only when its destination matches the local node and it
// arrived from the ring. Everything else continues straight through in its
// current rotational direction.
type TurnDecider struct {
	NodeID ring.NodeID
}

// DecideOutput returns the output port for the given head packet.
func (d TurnDecider) DecideOutput(
	pkt *ring.Packet,
	input ring.InputPort,
) ring.OutputPort {
	if pkt.Dst == d.NodeID && input == ring.RingInput {
		return ring.ProcessorOutput
	}

	return ring.RingOutput
}
