package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qtunnel/internal/quantum"
)

func testParams() quantum.Params {
	return quantum.Params{
		NX:             256,
		DX:             0.1,
		DT:             0.005,
		Hbar:           1,
		Mass:           1,
		XStart:         -12.8,
		K0:             5,
		X0:             -5,
		Sigma:          1,
		BarrierHeight:  10,
		BarrierWidth:   0.5,
		AbsorbWidth:    24,
		AbsorbStrength: 0.01,
	}
}

type countMetric struct {
	count int
}

func (c *countMetric) Name() string  { return "count" }
func (c *countMetric) Value() float64 { return float64(c.count) }
func (c *countMetric) Reset()         { c.count = 0 }

func (c *countMetric) Observe(*quantum.State, quantum.Params) { c.count++ }

var quiet = WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

var _ = Describe("Simulator", func() {
	var (
		ctx context.Context
		p   quantum.Params
	)

	BeforeEach(func() {
		ctx = context.Background()
		p = testParams()
	})

	Describe("Run", func() {
		It("samples at the configured interval", func() {
			res, err := New(p, quiet).Run(ctx, Config{Steps: 100, SampleEvery: 25})
			Expect(err).NotTo(HaveOccurred())

			Expect(res.StepsTaken).To(Equal(100))
			Expect(res.Times).To(HaveLen(5))
			Expect(res.Norms).To(HaveLen(5))
			Expect(res.Densities).To(HaveLen(5))
			Expect(res.Times[0]).To(Equal(0.0))
			Expect(res.Times[4]).To(BeNumerically("~", 100*p.DT, 1e-9))
			Expect(res.Densities[0]).To(HaveLen(p.NX))
		})

		It("always records the final state", func() {
			res, err := New(p, quiet).Run(ctx, Config{Steps: 30, SampleEvery: 20})
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Times).To(HaveLen(3))
			Expect(res.Times[2]).To(BeNumerically("~", 30*p.DT, 1e-9))
			Expect(res.Duration()).To(BeNumerically("~", 30*p.DT, 1e-9))
		})

		It("starts from a normalized packet", func() {
			res, err := New(p, quiet).Run(ctx, Config{Steps: 0, SampleEvery: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Norms).To(HaveLen(1))
			Expect(res.Norms[0]).To(BeNumerically("~", 1, 1e-9))
		})

		It("feeds metrics the initial state and every step", func() {
			m := &countMetric{}
			s := New(p, quiet)
			s.AddMetric(m)

			res, err := s.Run(ctx, Config{Steps: 40, SampleEvery: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKeyWithValue("count", 41.0))

			res, err = s.Run(ctx, Config{Steps: 5, SampleEvery: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics["count"]).To(Equal(6.0))
		})

		It("notifies observers with the step index", func() {
			var steps []int
			s := New(p, quiet)
			s.AddObserver(ObserverFunc(func(_ *quantum.State, step int) {
				steps = append(steps, step)
			}))

			_, err := s.Run(ctx, Config{Steps: 3, SampleEvery: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(steps).To(Equal([]int{1, 2, 3}))
		})

		It("never gains probability", func() {
			res, err := New(p, quiet).Run(ctx, Config{Steps: 1500, SampleEvery: 100})
			Expect(err).NotTo(HaveOccurred())

			for i := 1; i < len(res.Norms); i++ {
				Expect(res.Norms[i]).To(BeNumerically("<=", res.Norms[i-1]+1e-12))
			}
		})

		It("returns the partial result when cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			s := New(p, quiet)
			s.AddObserver(ObserverFunc(func(_ *quantum.State, step int) {
				if step == 10 {
					cancel()
				}
			}))

			res, err := s.Run(cctx, Config{Steps: 1000, SampleEvery: 5})
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(res).NotTo(BeNil())
			Expect(res.StepsTaken).To(Equal(10))
		})

		It("stops on a diverged state", func() {
			s := New(p, quiet)
			s.AddObserver(ObserverFunc(func(st *quantum.State, step int) {
				if step == 4 {
					st.Real[0] = math.Inf(1)
				}
			}))

			res, err := s.Run(ctx, Config{Steps: 50, SampleEvery: 10, ValidateState: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StepsTaken).To(Equal(4))
			Expect(res.Errors).To(HaveLen(1))

			var simErr SimError
			Expect(errors.As(res.Errors[0], &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(4))
		})

		It("rejects invalid configurations", func() {
			s := New(p, quiet)
			_, err := s.Run(ctx, Config{Steps: -1, SampleEvery: 1})
			Expect(err).To(HaveOccurred())
			_, err = s.Run(ctx, Config{Steps: 10, SampleEvery: 0})
			Expect(err).To(HaveOccurred())
		})

		It("propagates initialization errors", func() {
			p.Sigma = 0
			_, err := New(p, quiet).Run(ctx, DefaultConfig())
			Expect(err).To(MatchError(quantum.ErrDegenerateState))

			p = testParams()
			p.NX = 300
			_, err = New(p, quiet).Run(ctx, DefaultConfig())
			Expect(err).To(MatchError(quantum.ErrInvalidLength))
		})
	})

	Describe("RunWithCallback", func() {
		It("starts with the initial state and stops on request", func() {
			var seen []int
			err := New(p, quiet).RunWithCallback(ctx, Config{Steps: 100, SampleEvery: 1}, func(s *quantum.State, step int) bool {
				seen = append(seen, step)
				return step < 5
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal([]int{0, 1, 2, 3, 4, 5}))
		})

		It("visits every step up to the limit", func() {
			var last *quantum.State
			calls := 0
			err := New(p, quiet).RunWithCallback(ctx, Config{Steps: 8, SampleEvery: 1}, func(s *quantum.State, _ int) bool {
				calls++
				last = s
				return true
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal(9))
			Expect(last.Time).To(BeNumerically("~", 8*p.DT, 1e-9))
		})
	})

	Describe("SimError", func() {
		It("formats step and time", func() {
			err := SimError{Time: 1.5, Step: 150, Message: "test error"}
			Expect(err.Error()).To(Equal("step 150 (t=1.5000): test error"))
		})
	})
})

var _ = Describe("Sweep", func() {
	It("returns points in input order", func() {
		values := []float64{0, 5, 20, 60}
		points, err := Sweep(context.Background(), testParams(), "barrier_height", values,
			Config{Steps: 400, SampleEvery: 400}, quiet)
		Expect(err).NotTo(HaveOccurred())
		Expect(points).To(HaveLen(len(values)))

		for i, pt := range points {
			Expect(pt.Value).To(Equal(values[i]))
			Expect(pt.Absorbed).To(BeNumerically(">=", -1e-9))
			Expect(pt.Transmitted + pt.Reflected).To(BeNumerically("<=", 1+1e-9))
		}
		Expect(points[0].Transmitted).To(BeNumerically(">", points[3].Transmitted))
	})

	It("rejects unknown fields", func() {
		_, err := Sweep(context.Background(), testParams(), "temperature", []float64{1}, DefaultConfig())
		Expect(err).To(MatchError(ErrUnknownField))
	})

	It("fails when any run fails", func() {
		_, err := Sweep(context.Background(), testParams(), "sigma", []float64{1, 0},
			Config{Steps: 10, SampleEvery: 10}, quiet)
		Expect(err).To(MatchError(quantum.ErrDegenerateState))
	})

	It("sets fields by name", func() {
		p := testParams()
		Expect(SetField(&p, "k0", 7)).To(Succeed())
		Expect(p.K0).To(Equal(7.0))
		Expect(SweepFields()).To(ContainElement("barrier_width"))
	})

	It("reads back every sweepable field", func() {
		p := testParams()
		for i, name := range SweepFields() {
			Expect(SetField(&p, name, float64(i)+0.5)).To(Succeed())
			v, err := Field(p, name)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(float64(i) + 0.5))
		}
		_, err := Field(p, "mass")
		Expect(err).To(MatchError(ErrUnknownField))
	})
})
