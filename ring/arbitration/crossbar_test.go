package arbitration

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ringnet/ring"
)

func contendAll(_ ring.InputPort, _ *ring.Packet) bool {
	return true
}

var _ = Describe("Round-Robin Arbiter", func() {
	var (
		mockCtrl *gomock.Controller
		ringIn   *MockBuffer
		procIn   *MockBuffer
		arbiter  Arbiter
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		ringIn = NewMockBuffer(mockCtrl)
		procIn = NewMockBuffer(mockCtrl)

		arbiter = NewRoundRobinArbiter()
		arbiter.AddInput(ringIn)
		arbiter.AddInput(procIn)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should report no winner when all inputs are empty", func() {
		ringIn.EXPECT().Peek().Return(nil)
		procIn.EXPECT().Peek().Return(nil)

		_, _, ok := arbiter.Winner(ring.RingOutput, contendAll)

		Expect(ok).To(BeFalse())
	})

	It("should grant the only contender", func() {
		pkt := ring.PacketBuilder{}.WithDst(2).Build()

		ringIn.EXPECT().Peek().Return(pkt)

		input, winner, ok := arbiter.Winner(ring.RingOutput, contendAll)

		Expect(ok).To(BeTrue())
		Expect(input).To(Equal(ring.RingInput))
		Expect(winner).To(BeIdenticalTo(pkt))
	})

	It("should skip inputs that do not contend for the output", func() {
		ringPkt := ring.PacketBuilder{}.WithDst(1).Build()
		procPkt := ring.PacketBuilder{}.WithDst(2).Build()

		ringIn.EXPECT().Peek().Return(ringPkt).AnyTimes()
		procIn.EXPECT().Peek().Return(procPkt).AnyTimes()

		input, winner, ok := arbiter.Winner(ring.RingOutput,
			func(in ring.InputPort, _ *ring.Packet) bool {
				return in == ring.ProcessorInput
			})

		Expect(ok).To(BeTrue())
		Expect(input).To(Equal(ring.ProcessorInput))
		Expect(winner).To(BeIdenticalTo(procPkt))
	})

	It("should rotate priority past a committed winner", func() {
		ringPkt := ring.PacketBuilder{}.WithDst(1).Build()
		procPkt := ring.PacketBuilder{}.WithDst(2).Build()

		ringIn.EXPECT().Peek().Return(ringPkt).AnyTimes()
		procIn.EXPECT().Peek().Return(procPkt).AnyTimes()

		input, winner, ok := arbiter.Winner(ring.RingOutput, contendAll)
		Expect(ok).To(BeTrue())
		Expect(input).To(Equal(ring.RingInput))

		arbiter.Commit(Grant{
			Input:  input,
			Output: ring.RingOutput,
			Packet: winner,
		})
		arbiter.NewCycle()

		input, winner, ok = arbiter.Winner(ring.RingOutput, contendAll)
		Expect(ok).To(BeTrue())
		Expect(input).To(Equal(ring.ProcessorInput))
		Expect(winner).To(BeIdenticalTo(procPkt))
	})

	It("should keep the pointer when a grant is not committed", func() {
		ringPkt := ring.PacketBuilder{}.WithDst(1).Build()
		procPkt := ring.PacketBuilder{}.WithDst(2).Build()

		ringIn.EXPECT().Peek().Return(ringPkt).AnyTimes()
		procIn.EXPECT().Peek().Return(procPkt).AnyTimes()

		input, _, ok := arbiter.Winner(ring.RingOutput, contendAll)
		Expect(ok).To(BeTrue())
		Expect(input).To(Equal(ring.RingInput))

		// No commit. The same input must win the next cycle.
		arbiter.NewCycle()

		input, _, ok = arbiter.Winner(ring.RingOutput, contendAll)
		Expect(ok).To(BeTrue())
		Expect(input).To(Equal(ring.RingInput))
	})

	It("should keep per-output pointers independent", func() {
		ringPkt := ring.PacketBuilder{}.WithDst(1).Build()
		procPkt := ring.PacketBuilder{}.WithDst(2).Build()

		ringIn.EXPECT().Peek().Return(ringPkt).AnyTimes()
		procIn.EXPECT().Peek().Return(procPkt).AnyTimes()

		input, winner, _ := arbiter.Winner(ring.RingOutput, contendAll)
		arbiter.Commit(Grant{
			Input:  input,
			Output: ring.RingOutput,
			Packet: winner,
		})
		arbiter.NewCycle()

		// Only the RingOutput pointer rotated.
		input, _, ok := arbiter.Winner(ring.ProcessorOutput, contendAll)
		Expect(ok).To(BeTrue())
		Expect(input).To(Equal(ring.RingInput))

		input, _, ok = arbiter.Winner(ring.RingOutput, contendAll)
		Expect(ok).To(BeTrue())
		Expect(input).To(Equal(ring.ProcessorInput))
	})

	It("should grant an input at most once per cycle", func() {
		pkt1 := ring.PacketBuilder{}.WithDst(1).Build()
		pkt2 := ring.PacketBuilder{}.WithDst(2).Build()

		ringIn.EXPECT().Peek().Return(pkt1)
		procIn.EXPECT().Peek().Return(nil).AnyTimes()

		input, winner, ok := arbiter.Winner(ring.RingOutput, contendAll)
		Expect(ok).To(BeTrue())
		Expect(input).To(Equal(ring.RingInput))

		arbiter.Commit(Grant{
			Input:  input,
			Output: ring.RingOutput,
			Packet: winner,
		})

		// The same input must not dequeue again for the other output in
		// the same cycle, even though it has another packet at its head.
		_, _, ok = arbiter.Winner(ring.ProcessorOutput, contendAll)
		Expect(ok).To(BeFalse())

		arbiter.NewCycle()

		ringIn.EXPECT().Peek().Return(pkt2)
		input, winner, ok = arbiter.Winner(ring.ProcessorOutput, contendAll)
		Expect(ok).To(BeTrue())
		Expect(input).To(Equal(ring.RingInput))
		Expect(winner).To(BeIdenticalTo(pkt2))
	})

	It("should record grants until the next cycle", func() {
		pkt := ring.PacketBuilder{}.WithDst(1).Build()

		arbiter.Commit(Grant{
			Input:  ring.RingInput,
			Output: ring.RingOutput,
			Packet: pkt,
		})

		Expect(arbiter.Grants()).To(HaveLen(1))

		arbiter.NewCycle()

		Expect(arbiter.Grants()).To(BeEmpty())
	})
})
