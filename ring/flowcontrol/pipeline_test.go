package flowcontrol

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ringnet/ring"
)

var _ = Describe("Pipeline", func() {
	var (
		pipeline   Pipeline
		downstream Buffer
	)

	BeforeEach(func() {
		downstream = NewBuffer("Buf", 2)
		pipeline = MakePipelineBuilder().
			WithDepth(2).
			WithThroughput(8).
			WithInitCredits(2).
			Build("Pipeline")
		pipeline.BindDownstream(downstream)
	})

	It("should reject invalid configurations", func() {
		Expect(func() {
			MakePipelineBuilder().WithDepth(0).Build("Bad")
		}).To(Panic())

		Expect(func() {
			MakePipelineBuilder().WithThroughput(0).Build("Bad")
		}).To(Panic())

		Expect(func() {
			MakePipelineBuilder().WithInitCredits(0).Build("Bad")
		}).To(Panic())
	})

	It("should move a packet through the stages into the buffer", func() {
		pkt := ring.PacketBuilder{}.WithTrafficBytes(8).Build()

		pipeline.Accept(pkt)
		Expect(pipeline.InFlight()).To(Equal(1))
		Expect(pipeline.CreditBalance()).To(Equal(1))

		madeProgress := pipeline.Tick()
		Expect(madeProgress).To(BeTrue())
		Expect(downstream.Size()).To(Equal(0))

		madeProgress = pipeline.Tick()
		Expect(madeProgress).To(BeTrue())
		Expect(downstream.Size()).To(Equal(1))
		Expect(downstream.Peek()).To(BeIdenticalTo(pkt))
		Expect(pipeline.InFlight()).To(Equal(0))
	})

	It("should hold large packets in a stage for more cycles", func() {
		pkt := ring.PacketBuilder{}.WithTrafficBytes(16).Build()

		pipeline.Accept(pkt)

		// 16 bytes at 8 bytes per cycle is 2 cycles per stage.
		pipeline.Tick()
		pipeline.Tick()
		Expect(downstream.Size()).To(Equal(0))

		pipeline.Tick()
		pipeline.Tick()
		Expect(downstream.Size()).To(Equal(1))
	})

	It("should spend one credit per accepted packet", func() {
		Expect(pipeline.CreditBalance()).To(Equal(2))
		Expect(pipeline.CanAccept()).To(BeTrue())

		pipeline.Accept(ring.PacketBuilder{}.Build())
		Expect(pipeline.CreditBalance()).To(Equal(1))

		pipeline.Tick()
		Expect(pipeline.CanAccept()).To(BeTrue())

		pipeline.Accept(ring.PacketBuilder{}.Build())
		Expect(pipeline.CreditBalance()).To(Equal(0))
		Expect(pipeline.CanAccept()).To(BeFalse())
	})

	It("should panic when accepting without credit", func() {
		pipeline.Accept(ring.PacketBuilder{}.Build())
		pipeline.Tick()
		pipeline.Accept(ring.PacketBuilder{}.Build())

		Expect(func() {
			pipeline.Accept(ring.PacketBuilder{}.Build())
		}).To(Panic())
	})

	It("should panic when accepting into an occupied head stage", func() {
		pipeline.Accept(ring.PacketBuilder{}.Build())

		Expect(func() {
			pipeline.Accept(ring.PacketBuilder{}.Build())
		}).To(Panic())
	})

	It("should regain credit when the downstream buffer pops", func() {
		downstream.BindUpstream(pipeline)

		pipeline.Accept(ring.PacketBuilder{}.Build())
		pipeline.Tick()
		pipeline.Tick()
		Expect(downstream.Size()).To(Equal(1))
		Expect(pipeline.CreditBalance()).To(Equal(1))

		downstream.Pop()
		Expect(pipeline.CreditBalance()).To(Equal(2))
	})

	It("should panic when credits exceed the initial balance", func() {
		Expect(func() {
			pipeline.ReceiveCredit()
		}).To(Panic())
	})

	It("should stall the tail stage while the buffer is full", func() {
		full := NewBuffer("Full", 1)
		stalled := MakePipelineBuilder().
			WithDepth(1).
			WithThroughput(8).
			WithInitCredits(1).
			Build("Stalled")
		stalled.BindDownstream(full)

		full.Push(ring.PacketBuilder{}.Build())

		pkt := ring.PacketBuilder{}.Build()
		stalled.Accept(pkt)

		madeProgress := stalled.Tick()
		Expect(madeProgress).To(BeFalse())
		Expect(stalled.InFlight()).To(Equal(1))

		full.Pop()

		madeProgress = stalled.Tick()
		Expect(madeProgress).To(BeTrue())
		Expect(full.Peek()).To(BeIdenticalTo(pkt))
	})

	It("should wake the owner when a credit returns", func() {
		owner := &wakerRecorder{}
		pipeline.BindOwner(owner)
		downstream.BindUpstream(pipeline)

		pipeline.Accept(ring.PacketBuilder{}.Build())
		pipeline.Tick()
		pipeline.Tick()

		downstream.Pop()

		Expect(owner.wakeCount).To(Equal(1))
	})
})
