package ring

// A Ring is one of the two counter-rotating paths around the topology. Each
// ring has its own buffers, pipelines, and crossbar per router.
type Ring int

// The two ring directions. RingA rotates clockwise, RingB counter-clockwise.
const (
	RingA Ring = iota
	RingB

	NumRings int = iota
)

func (r Ring) String() string {
	switch r {
	case RingA:
		return "RingA"
	case RingB:
		return "RingB"
	}
	return "InvalidRing"
}

// InputPort identifies one of the crossbar inputs of a router direction.
// The set is fixed per unit type, so an unknown port cannot occur at run
// time.
type InputPort int

// Crossbar inputs, in priority registration order.
const (
	RingInput InputPort = iota
	ProcessorInput

	NumInputPorts int = iota
)

func (p InputPort) String() string {
	switch p {
	case RingInput:
		return "RingInput"
	case ProcessorInput:
		return "ProcessorInput"
	}
	return "InvalidInputPort"
}

// OutputPort identifies one of the crossbar outputs of a router direction.
type OutputPort int

// Crossbar outputs.
const (
	RingOutput OutputPort = iota
	ProcessorOutput

	NumOutputPorts int = iota
)

func (p OutputPort) String() string {
	switch p {
	case RingOutput:
		return "RingOutput"
	case ProcessorOutput:
		return "ProcessorOutput"
	}
	return "InvalidOutputPort"
}
