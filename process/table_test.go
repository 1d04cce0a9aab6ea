package process

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/swapstore/workload"
)

var _ = Describe("Table", func() {
	var (
		t     *Table
		clock time.Time
	)

	BeforeEach(func() {
		t = NewTable(1000, 300)
		clock = time.Unix(100, 0)
		t.now = func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}
	})

	It("should assign increasing PIDs", func() {
		a := t.Create("editor", 64, 3)
		b := t.Create("browser", 128, 5)

		Expect(a.PID).To(Equal(FirstPID))
		Expect(b.PID).To(Equal(FirstPID + 1))
		Expect(a.Status).To(Equal(Active))
		Expect(a.CreatedAt).To(Equal(a.LastActivity))

		p, err := t.Get(b.PID)
		Expect(err).ToNot(HaveOccurred())
		Expect(p.Name).To(Equal("browser"))
		Expect(p.Priority).To(Equal(5))
	})

	It("should swap a process out and in", func() {
		p := t.Create("editor", 200, 1)

		out, err := t.SwapOut(p.PID)
		Expect(err).ToNot(HaveOccurred())
		Expect(out.Status).To(Equal(SwappedOut))
		Expect(out.SwapBytes).To(Equal(uint64(200)))
		Expect(out.LastActivity).To(BeTemporally(">", p.LastActivity))
		Expect(t.StorageStats().SwapUsed).To(Equal(uint64(200)))

		_, err = t.SwapOut(p.PID)
		Expect(err).To(MatchError(ErrBadStatus))

		in, err := t.SwapIn(p.PID)
		Expect(err).ToNot(HaveOccurred())
		Expect(in.Status).To(Equal(Active))
		Expect(in.SwapBytes).To(BeZero())
		Expect(t.StorageStats().SwapUsed).To(BeZero())

		_, err = t.SwapIn(p.PID)
		Expect(err).To(MatchError(ErrBadStatus))
	})

	It("should refuse to overfill the swap space", func() {
		a := t.Create("a", 200, 0)
		b := t.Create("b", 200, 0)

		_, err := t.SwapOut(a.PID)
		Expect(err).ToNot(HaveOccurred())

		_, err = t.SwapOut(b.PID)
		Expect(err).To(MatchError(ErrSwapFull))

		p, _ := t.Get(b.PID)
		Expect(p.Status).To(Equal(Active))
	})

	It("should change statuses other than swapped out", func() {
		p := t.Create("a", 10, 0)

		w, err := t.SetStatus(p.PID, Waiting)
		Expect(err).ToNot(HaveOccurred())
		Expect(w.Status).To(Equal(Waiting))

		_, err = t.SetStatus(p.PID, SwappedOut)
		Expect(err).To(MatchError(ErrBadStatus))

		_, err = t.SwapOut(p.PID)
		Expect(err).ToNot(HaveOccurred())

		_, err = t.SetStatus(p.PID, Active)
		Expect(err).To(MatchError(ErrBadStatus))
	})

	It("should list by status", func() {
		a := t.Create("a", 10, 0)
		b := t.Create("b", 10, 0)
		c := t.Create("c", 10, 0)

		_, err := t.SwapOut(b.PID)
		Expect(err).ToNot(HaveOccurred())
		_, err = t.SetStatus(c.PID, Blocked)
		Expect(err).ToNot(HaveOccurred())

		Expect(t.List()).To(HaveLen(3))
		Expect(t.List()[0].PID).To(Equal(a.PID))
		Expect(t.List(SwappedOut)).To(ConsistOf(HaveField("PID", b.PID)))
		Expect(t.List(Active, Blocked)).To(HaveLen(2))
	})

	It("should remove processes", func() {
		p := t.Create("a", 10, 0)
		_, err := t.SwapOut(p.PID)
		Expect(err).ToNot(HaveOccurred())

		removed, err := t.Remove(p.PID)
		Expect(err).ToNot(HaveOccurred())
		Expect(removed.Name).To(Equal("a"))
		Expect(t.StorageStats().SwapUsed).To(BeZero())

		_, err = t.Remove(p.PID)
		Expect(err).To(MatchError(ErrNotFound))

		_, err = t.Get(p.PID)
		Expect(err).To(MatchError(ErrNotFound))
	})

	It("should account for loaded files", func() {
		t.LoadFile("a.bin", 600)
		t.LoadFile("b.bin", 700)

		st := t.StorageStats()

		Expect(st.FilesLoaded).To(Equal(2))
		Expect(st.TotalFileSize).To(Equal(uint64(1300)))
		Expect(st.SecondaryUsed).To(Equal(uint64(1300)))
		Expect(st.SecondaryTotal).To(Equal(uint64(1000)))
		Expect(st.SecondaryAvailable).To(BeZero())
		Expect(st.SwapAvailable).To(Equal(uint64(300)))
	})

	It("should admit workload descriptors", func() {
		created := t.Admit([]workload.Descriptor{
			{ID: 0, Name: "data.bin", PageCount: 2, SizeBytes: 5000},
			{ID: 1, Name: "editor", PageCount: 3},
		}, 4096)

		Expect(created).To(HaveLen(2))
		Expect(created[0].MemoryBytes).To(Equal(uint64(8192)))
		Expect(created[1].Name).To(Equal("editor"))
		Expect(t.Files()).To(Equal([]File{{Name: "data.bin", SizeBytes: 5000}}))
	})

	It("should clear everything", func() {
		t.Create("a", 10, 0)
		t.LoadFile("a.bin", 1)

		t.Clear()

		Expect(t.List()).To(BeEmpty())
		Expect(t.StorageStats().FilesLoaded).To(BeZero())
		Expect(t.Create("b", 1, 0).PID).To(Equal(FirstPID))
	})

	It("should encode statuses by name", func() {
		p := t.Create("a", 10, 0)
		_, err := t.SwapOut(p.PID)
		Expect(err).ToNot(HaveOccurred())
		p, _ = t.Get(p.PID)

		b, err := json.Marshal(p)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(b)).To(ContainSubstring(`"status":"swapped_out"`))

		var s Status
		Expect(s.UnmarshalText([]byte("Blocked"))).To(Succeed())
		Expect(s).To(Equal(Blocked))
		Expect(s.UnmarshalText([]byte("running"))).ToNot(Succeed())
	})
})
