package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qtunnel/internal/quantum"
	"github.com/san-kum/qtunnel/internal/sim"
)

func smallParams() quantum.Params {
	return quantum.Params{
		NX: 64, DX: 0.25, DT: 0.005, Hbar: 1, Mass: 1, XStart: -8,
		K0: 3, X0: -3, Sigma: 1, BarrierHeight: 4, BarrierWidth: 0.5,
		AbsorbWidth: 8, AbsorbStrength: 0.02,
	}
}

func runSmall(p quantum.Params) (*sim.Result, sim.Config) {
	cfg := sim.Config{Steps: 40, SampleEvery: 10}
	s := sim.New(p, sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	res, err := s.Run(context.Background(), cfg)
	Expect(err).NotTo(HaveOccurred())
	res.Metrics["norm"] = res.Norms[len(res.Norms)-1]
	res.Metrics["transmission"] = quantum.Transmitted(res.Final, p)
	return res, cfg
}

var _ = Describe("Store", func() {
	var (
		dir string
		st  *Store
		p   quantum.Params
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		st = New(dir).WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
		Expect(st.Init()).To(Succeed())
		p = smallParams()
	})

	It("lists nothing in an empty directory", func() {
		runs, err := st.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(BeEmpty())
	})

	It("lists nothing when the directory does not exist", func() {
		runs, err := New(filepath.Join(dir, "missing")).List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(BeEmpty())
	})

	It("creates the run files", func() {
		res, cfg := runSmall(p)
		meta, err := st.Save("tunneling", p, cfg, res)
		Expect(err).NotTo(HaveOccurred())

		for _, name := range []string{"metadata.json", "series.csv", "final.csv"} {
			Expect(filepath.Join(dir, meta.ID, name)).To(BeARegularFile())
		}
	})

	It("round-trips metadata", func() {
		res, cfg := runSmall(p)
		meta, err := st.Save("tunneling", p, cfg, res)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.ID).To(HaveLen(36))

		loaded, err := st.Load(meta.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Label).To(Equal("tunneling"))
		Expect(loaded.Params).To(Equal(p))
		Expect(loaded.Steps).To(Equal(40))
		Expect(loaded.SampleEvery).To(Equal(10))
		Expect(loaded.Duration).To(BeNumerically("~", 40*p.DT, 1e-12))
		Expect(loaded.Metrics).To(HaveKeyWithValue("norm", res.Metrics["norm"]))
	})

	It("round-trips the sampled series exactly", func() {
		res, cfg := runSmall(p)
		meta, _ := st.Save("x", p, cfg, res)

		series, err := st.LoadSeries(meta.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(series.Times).To(Equal(res.Times))
		Expect(series.Norms).To(Equal(res.Norms))
		Expect(series.Densities).To(HaveLen(len(res.Densities)))
		Expect(series.Densities[2]).To(Equal(res.Densities[2]))
	})

	It("restores the final state so it can keep evolving", func() {
		res, cfg := runSmall(p)
		meta, _ := st.Save("x", p, cfg, res)

		final, fp, err := st.LoadFinal(meta.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(fp).To(Equal(p))
		Expect(final.Real).To(Equal(res.Final.Real))
		Expect(final.Imag).To(Equal(res.Final.Imag))
		Expect(final.Absorption).To(Equal(res.Final.Absorption))
		Expect(final.Time).To(Equal(res.Final.Time))

		Expect(quantum.Step(final, fp)).To(Succeed())
		Expect(quantum.Step(res.Final, p)).To(Succeed())
		Expect(final.Real).To(Equal(res.Final.Real))
	})

	It("reports unknown runs", func() {
		_, err := st.Load("nope")
		Expect(err).To(MatchError(ErrRunNotFound))
		_, err = st.LoadSeries("nope")
		Expect(err).To(MatchError(ErrRunNotFound))
		_, _, err = st.LoadFinal("nope")
		Expect(err).To(MatchError(ErrRunNotFound))
	})

	It("lists newest first and skips foreign directories", func() {
		res, cfg := runSmall(p)
		first, _ := st.Save("first", p, cfg, res)
		time.Sleep(5 * time.Millisecond)
		second, _ := st.Save("second", p, cfg, res)
		Expect(os.Mkdir(filepath.Join(dir, "junk"), 0755)).To(Succeed())

		runs, err := st.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(2))
		Expect(runs[0].ID).To(Equal(second.ID))
		Expect(runs[1].ID).To(Equal(first.ID))
	})

	Describe("export", func() {
		It("writes JSON with positions", func() {
			res, cfg := runSmall(p)
			meta, _ := st.Save("x", p, cfg, res)
			series, _ := st.LoadSeries(meta.ID)

			var buf bytes.Buffer
			Expect(ExportJSON(&buf, meta, series)).To(Succeed())

			var data ExportData
			Expect(json.Unmarshal(buf.Bytes(), &data)).To(Succeed())
			Expect(data.ID).To(Equal(meta.ID))
			Expect(data.Positions).To(HaveLen(p.NX))
			Expect(data.Positions[0]).To(Equal(p.XStart))
			Expect(data.Times).To(Equal(series.Times))
		})

		It("writes long-form CSV", func() {
			res, cfg := runSmall(p)
			meta, _ := st.Save("x", p, cfg, res)
			series, _ := st.LoadSeries(meta.ID)

			var buf bytes.Buffer
			Expect(ExportCSV(&buf, meta, series)).To(Succeed())

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			Expect(lines[0]).To(Equal("time,x,density"))
			Expect(lines).To(HaveLen(1 + len(series.Times)*p.NX))
			Expect(lines[1]).To(HavePrefix("0,-8,"))
		})
	})
})

var _ = Describe("Index", func() {
	var (
		idx  *Index
		meta func(id, label string, at time.Time) *RunMetadata
	)

	BeforeEach(func() {
		var err error
		idx, err = OpenIndex(filepath.Join(GinkgoT().TempDir(), "runs.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(idx.Close)

		meta = func(id, label string, at time.Time) *RunMetadata {
			return &RunMetadata{
				ID:        id,
				Label:     label,
				Timestamp: at,
				Params:    smallParams(),
				Steps:     100,
				Metrics:   map[string]float64{"norm": 0.9, "transmission": 0.3, "reflection": 0.6},
			}
		}
	})

	It("records and fetches runs", func() {
		now := time.Now()
		Expect(idx.Record(meta("a", "tunneling", now))).To(Succeed())

		e, err := idx.Get("a")
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Label).To(Equal("tunneling"))
		Expect(e.NX).To(Equal(64))
		Expect(e.Transmitted).To(Equal(0.3))
		Expect(e.Created().Equal(now)).To(BeTrue())
	})

	It("orders recent runs newest first and honours the limit", func() {
		base := time.Now()
		for i, id := range []string{"a", "b", "c"} {
			Expect(idx.Record(meta(id, "x", base.Add(time.Duration(i)*time.Second)))).To(Succeed())
		}

		recent, err := idx.Recent(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(recent).To(HaveLen(2))
		Expect(recent[0].ID).To(Equal("c"))
		Expect(recent[1].ID).To(Equal("b"))
	})

	It("replaces rows with the same ID", func() {
		m := meta("a", "old", time.Now())
		Expect(idx.Record(m)).To(Succeed())
		m.Label = "new"
		Expect(idx.Record(m)).To(Succeed())

		all, err := idx.Recent(10)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].Label).To(Equal("new"))
	})

	It("filters by label and forgets runs", func() {
		now := time.Now()
		Expect(idx.Record(meta("a", "free", now))).To(Succeed())
		Expect(idx.Record(meta("b", "rough", now))).To(Succeed())

		rough, err := idx.ByLabel("rough")
		Expect(err).NotTo(HaveOccurred())
		Expect(rough).To(HaveLen(1))
		Expect(rough[0].ID).To(Equal("b"))

		Expect(idx.Forget("b")).To(Succeed())
		_, err = idx.Get("b")
		Expect(err).To(MatchError(ErrRunNotFound))
	})
})
