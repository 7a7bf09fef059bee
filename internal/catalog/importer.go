package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniInventory/internal/store"
)

const maxSyntheticQuantity = 1000

type Feed interface {
	Fetch(ctx context.Context) ([]FeedItem, error)
}

// Importer loads the external catalog into a store exactly once per store
// lifetime. It implements store.Bootstrapper.
type Importer struct {
	Feed Feed
	Log  *zap.Logger
	// Quantity synthesizes stock for imported items; defaults to uniform [0, 1000].
	Quantity func() int

	runs *prometheus.CounterVec
}

var _ store.Bootstrapper = (*Importer)(nil)

func NewImporter(feed Feed, log *zap.Logger, reg prometheus.Registerer) *Importer {
	if log == nil {
		log = zap.NewNop()
	}

	im := &Importer{Feed: feed, Log: log}
	if reg != nil {
		im.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_catalog_imports_total",
			Help: "Catalog import attempts by result",
		}, []string{"result"})
		reg.MustRegister(im.runs)
	}
	return im
}

func (im *Importer) Bootstrap(ctx context.Context, s *store.Store) error {
	return im.ImportOnce(ctx, s)
}

// ImportOnce is a no-op on a bootstrapped store. Otherwise it fetches the feed
// once, drops items that are not valid products, then stages the rest and
// marks the store bootstrapped with a single write. A failed fetch touches
// nothing. Losing a race to a concurrent import is not an error.
func (im *Importer) ImportOnce(ctx context.Context, s *store.Store) error {
	if s.Bootstrapped() {
		im.Log.Info("catalog already imported, skipping")
		im.count("skipped")
		return nil
	}

	runID := uuid.NewString()
	log := im.Log.With(zap.String("import_id", runID))

	items, err := im.Feed.Fetch(ctx)
	if err != nil {
		log.Error("could not fetch catalog", zap.Error(err))
		im.count("failed")
		return fmt.Errorf("fetch catalog: %w", err)
	}

	products := make([]store.Product, 0, len(items))
	for i, it := range items {
		p := store.Product{
			Name:        it.Title,
			Description: it.Description,
			Price:       it.Price,
			Quantity:    im.quantity(),
		}
		if err := p.Validate(); err != nil {
			log.Warn("skipping invalid catalog item",
				zap.Int("index", i),
				zap.String("title", it.Title),
				zap.Error(err),
			)
			continue
		}
		products = append(products, p)
	}

	note := fmt.Sprintf("catalog import %s: %d products", runID, len(products))
	if _, err := s.CompleteImport(products, note); err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Info("catalog imported concurrently, discarding this run")
			im.count("skipped")
			return nil
		}
		log.Error("could not persist imported catalog", zap.Error(err))
		im.count("failed")
		return err
	}

	log.Info("catalog imported",
		zap.Int("products", len(products)),
		zap.Int("skipped_items", len(items)-len(products)),
	)
	im.count("ok")
	return nil
}

func (im *Importer) quantity() int {
	if im.Quantity != nil {
		return im.Quantity()
	}
	return rand.Intn(maxSyntheticQuantity + 1)
}

func (im *Importer) count(result string) {
	if im.runs != nil {
		im.runs.WithLabelValues(result).Inc()
	}
}
