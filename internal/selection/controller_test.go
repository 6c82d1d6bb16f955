package selection_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/clustermap/internal/geo"
	"github.com/san-kum/clustermap/internal/render"
	"github.com/san-kum/clustermap/internal/selection"
)

// countingMap records how often layers are added and removed.
type countingMap struct {
	render.LayerSet
	adds, removes int
}

func (m *countingMap) AddLayer(l render.Layer) {
	m.adds++
	m.LayerSet.AddLayer(l)
}

func (m *countingMap) RemoveLayer(l render.Layer) {
	m.removes++
	m.LayerSet.RemoveLayer(l)
}

func metricWithSlices(name string, n int) *geo.Metric {
	clusters := make([][]geo.ClusterTuple, n)
	for t := range clusters {
		clusters[t] = []geo.ClusterTuple{
			{48.7, 44.5, 0, float64(t + 1)},
			{48.8, 44.6, 1, 0},
		}
	}
	m, err := geo.BuildMetric(name, clusters, nil)
	Expect(err).NotTo(HaveOccurred())
	return m
}

var _ = Describe("Controller", func() {
	var (
		euclid, route *geo.Metric
		target        *countingMap
		ctrl          *selection.Controller
	)

	BeforeEach(func() {
		euclid = metricWithSlices("euclid", 10)
		route = metricWithSlices("route", 4)
		target = &countingMap{}
		ctrl = selection.New([]*geo.Metric{euclid, route}, render.NewRenderer(nil), target, nil)
	})

	It("starts with nothing selected", func() {
		Expect(ctrl.State().Metric).To(BeNil())
		for _, b := range ctrl.Buttons() {
			Expect(b.Selected).To(BeFalse())
		}
	})

	It("selects by short key and by full name", func() {
		Expect(ctrl.Select("euc")).To(BeTrue())
		Expect(ctrl.State().Metric).To(Equal(euclid))
		Expect(ctrl.Select("ROUTE")).To(BeTrue())
		Expect(ctrl.State().Metric).To(Equal(route))
	})

	It("selects metrics with non-ASCII names by their key", func() {
		a := metricWithSlices("евклид", 3)
		b := metricWithSlices("маршрут", 5)
		c := selection.New([]*geo.Metric{a, b}, render.NewRenderer(nil), target, nil)

		Expect(a.Key()).To(Equal("евк"))
		Expect(c.Select(a.Key())).To(BeTrue())
		Expect(c.State().Metric).To(Equal(a))
		Expect(c.Select("МАР")).To(BeTrue())
		Expect(c.State().Metric).To(Equal(b))
		Expect(c.Slider().Max).To(Equal(4))
		Expect(c.Buttons()[1].Selected).To(BeTrue())
		Expect(target.Layers()).To(HaveLen(1))
	})

	It("keeps the current metric for unknown keys", func() {
		ctrl.Select("rou")
		Expect(ctrl.Select("nope")).To(BeFalse())
		Expect(ctrl.Select("")).To(BeFalse())
		Expect(ctrl.State().Metric).To(Equal(route))
	})

	It("sets the slider max to slices-1 after every switch", func() {
		ctrl.Select("euc")
		Expect(ctrl.Slider().Max).To(Equal(9))
		ctrl.Select("rou")
		Expect(ctrl.Slider().Max).To(Equal(3))
		ctrl.Select("euc")
		Expect(ctrl.Slider().Max).To(Equal(9))
	})

	It("clamps the slider value when the new metric is shorter", func() {
		ctrl.Select("euc")
		ctrl.Seek(8)
		Expect(ctrl.State().Time).To(Equal(8))

		ctrl.Select("rou")
		Expect(ctrl.Slider().Value).To(Equal(3))
		Expect(ctrl.State().Time).To(Equal(3))
	})

	It("keeps the slider value when it still fits", func() {
		ctrl.Select("euc")
		ctrl.Seek(2)
		ctrl.Select("rou")
		Expect(ctrl.State().Time).To(Equal(2))
	})

	It("clamps seeks to the slider range", func() {
		ctrl.Select("rou")
		ctrl.Seek(42)
		Expect(ctrl.State().Time).To(Equal(3))
		ctrl.Seek(-5)
		Expect(ctrl.State().Time).To(Equal(0))
		ctrl.Step(2)
		Expect(ctrl.State().Time).To(Equal(2))
	})

	It("highlights exactly the selected button", func() {
		ctrl.Select("rou")
		buttons := ctrl.Buttons()
		Expect(buttons).To(HaveLen(2))
		Expect(buttons[0]).To(Equal(selection.Button{Key: "euc", Label: "euclid", Selected: false}))
		Expect(buttons[1]).To(Equal(selection.Button{Key: "rou", Label: "route", Selected: true}))
	})

	It("treats reselecting the current metric as a no-op", func() {
		ctrl.Select("euc")
		ctrl.Seek(5)
		before := ctrl.Buttons()
		slider := ctrl.Slider()

		Expect(ctrl.Select("euclid")).To(BeFalse())
		Expect(ctrl.Buttons()).To(Equal(before))
		Expect(ctrl.Slider()).To(Equal(slider))
		Expect(ctrl.State().Time).To(Equal(5))

		// the redraw is idempotent: one group, same content
		Expect(target.Layers()).To(HaveLen(1))
		g := target.Layers()[0].(*render.Group)
		Expect(g.ID).To(HavePrefix("euclid/5#"))
	})

	It("redraws on every interaction and keeps a single group", func() {
		ctrl.Select("euc")
		ctrl.Seek(1)
		ctrl.Select("rou")
		Expect(target.adds).To(Equal(3))
		Expect(target.removes).To(Equal(2))
		Expect(target.Layers()).To(HaveLen(1))
	})

	It("never draws empty clusters", func() {
		ctrl.Select("euc")
		target.Each(func(l render.Layer) {
			m, ok := l.(*render.CircleMarker)
			Expect(ok).To(BeTrue())
			Expect(m.Cluster).To(Equal(0))
		})
	})

	It("cycles through metrics", func() {
		Expect(ctrl.Cycle()).To(BeTrue())
		Expect(ctrl.State().Metric).To(Equal(euclid))
		ctrl.Cycle()
		Expect(ctrl.State().Metric).To(Equal(route))
		ctrl.Cycle()
		Expect(ctrl.State().Metric).To(Equal(euclid))
	})
})

var _ = Describe("Slider", func() {
	It("never lets max drop below min", func() {
		s := selection.Slider{}
		s.SetMax(-1)
		Expect(s.Max).To(Equal(0))
		Expect(s.Set(3)).To(Equal(0))
	})
})
