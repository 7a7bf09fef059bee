package store

import "github.com/prometheus/client_golang/prometheus"

const (
	persistOK         = "ok"
	persistError      = "error"
	persistSuperseded = "superseded"
)

type metrics struct {
	persists *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer, s *Store) *metrics {
	if reg == nil {
		return nil
	}

	m := &metrics{
		persists: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_store_persists_total",
				Help: "Durable file writes by result",
			},
			[]string{"result"},
		),
	}

	products := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "inventory_store_products",
		Help: "Products currently held in memory",
	}, func() float64 { return float64(s.productCount()) })

	users := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "inventory_store_users",
		Help: "Users currently held in memory",
	}, func() float64 { return float64(s.userCount()) })

	reg.MustRegister(m.persists, products, users)
	return m
}

func (m *metrics) persisted(result string) {
	if m == nil {
		return
	}
	m.persists.WithLabelValues(result).Inc()
}
