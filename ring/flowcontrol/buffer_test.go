package flowcontrol

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ringnet/ring"
)

type wakerRecorder struct {
	wakeCount int
}

func (w *wakerRecorder) TickLater() {
	w.wakeCount++
}

type creditRecorder struct {
	creditCount int
}

func (c *creditRecorder) ReceiveCredit() {
	c.creditCount++
}

var _ = Describe("Buffer", func() {
	var (
		buf  Buffer
		pkt1 *ring.Packet
		pkt2 *ring.Packet
	)

	BeforeEach(func() {
		buf = NewBuffer("Buf", 2)
		pkt1 = ring.PacketBuilder{}.WithSrc(0).WithDst(1).Build()
		pkt2 = ring.PacketBuilder{}.WithSrc(0).WithDst(2).Build()
	})

	It("should reject a non-positive capacity", func() {
		Expect(func() {
			NewBuffer("Bad", 0)
		}).To(Panic())
	})

	It("should allow push and pop in order", func() {
		Expect(buf.Capacity()).To(Equal(2))
		Expect(buf.CanPush()).To(BeTrue())

		buf.Push(pkt1)
		Expect(buf.CanPush()).To(BeTrue())
		Expect(buf.Size()).To(Equal(1))

		buf.Push(pkt2)
		Expect(buf.CanPush()).To(BeFalse())
		Expect(buf.Size()).To(Equal(2))

		Expect(buf.Peek()).To(BeIdenticalTo(pkt1))
		Expect(buf.Pop()).To(BeIdenticalTo(pkt1))
		Expect(buf.Pop()).To(BeIdenticalTo(pkt2))
		Expect(buf.Peek()).To(BeNil())
		Expect(buf.Pop()).To(BeNil())
	})

	It("should panic on overflow", func() {
		buf.Push(pkt1)
		buf.Push(pkt2)

		Expect(func() {
			buf.Push(ring.PacketBuilder{}.Build())
		}).To(Panic())
	})

	It("should wake the reader on push", func() {
		reader := &wakerRecorder{}
		buf.BindReader(reader)

		buf.Push(pkt1)

		Expect(reader.wakeCount).To(Equal(1))
	})

	It("should return one credit upstream per pop", func() {
		upstream := &creditRecorder{}
		buf.BindUpstream(upstream)

		buf.Push(pkt1)
		buf.Push(pkt2)
		Expect(upstream.creditCount).To(Equal(0))

		buf.Pop()
		Expect(upstream.creditCount).To(Equal(1))

		buf.Pop()
		Expect(upstream.creditCount).To(Equal(2))

		buf.Pop()
		Expect(upstream.creditCount).To(Equal(2))
	})

	It("should refuse a second upstream binding", func() {
		buf.BindUpstream(&creditRecorder{})

		Expect(func() {
			buf.BindUpstream(&creditRecorder{})
		}).To(Panic())
	})

	It("should refuse a second reader binding", func() {
		buf.BindReader(&wakerRecorder{})

		Expect(func() {
			buf.BindReader(&wakerRecorder{})
		}).To(Panic())
	})
})
