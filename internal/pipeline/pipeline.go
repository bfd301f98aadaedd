// Package pipeline post-processes extracted records before storage.
package pipeline

import (
	"log/slog"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/config"
	"github.com/IshaanNene/ReelGoat/internal/observability"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

// Middleware processes a record and returns the (possibly replaced)
// record. Returning nil drops it. Middleware must not mutate its input;
// return a modified copy instead.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a record. Return nil to drop it.
	Process(m *catalog.Movie) (*catalog.Movie, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// New creates a new Pipeline. metrics may be nil.
func New(metrics *observability.Metrics, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		metrics: metrics,
		logger:  logger.With("component", "pipeline"),
	}
}

// FromConfig builds the standard chain: trim and sanitize, then the
// configured type filter, required fields and dedup.
func FromConfig(cfg *config.PipelineConfig, metrics *observability.Metrics, logger *slog.Logger) (*Pipeline, error) {
	p := New(metrics, logger)
	p.Use(&TrimMiddleware{})
	p.Use(NewHTMLSanitizeMiddleware())

	if len(cfg.Types) > 0 {
		p.Use(NewTypeFilterMiddleware(cfg.Types))
	}
	if len(cfg.RequiredFields) > 0 {
		mw, err := NewRequiredFieldsMiddleware(cfg.RequiredFields)
		if err != nil {
			return nil, err
		}
		p.Use(mw)
	}
	if cfg.Dedup {
		p.Use(NewDedupMiddleware())
	}
	return p, nil
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order.
func (p *Pipeline) Process(m *catalog.Movie) (*catalog.Movie, error) {
	current := m

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:    mw.Name(),
				RecordID: current.ID,
				Err:      err,
			}
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", mw.Name(), "id", m.ID)
			if p.metrics != nil {
				p.metrics.RecordsDropped.Add(1)
			}
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Run processes a batch and returns the surviving records in input order.
func (p *Pipeline) Run(records []*catalog.Movie) ([]*catalog.Movie, error) {
	out := make([]*catalog.Movie, 0, len(records))
	for _, m := range records {
		r, err := p.Process(m)
		if err != nil {
			return nil, err
		}
		if r != nil {
			out = append(out, r)
		}
	}
	p.logger.Debug("batch processed", "in", len(records), "out", len(out))
	return out, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
