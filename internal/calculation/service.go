package calculation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eugenenazirov/load-planner/internal/cache"
	"github.com/eugenenazirov/load-planner/internal/packing"
)

const previewKeyPrefix = "preview"

// ServiceConfig tunes a Service.
type ServiceConfig struct {
	// MaxUnits caps the total requested units per calculation. Zero disables the cap.
	MaxUnits int
	// CacheTTL is how long previews stay cached.
	CacheTTL time.Duration
}

// Service persists calculations and caches previews around a Calculator.
type Service struct {
	calc     *Calculator
	store    Store
	cache    cache.Cache
	logger   *zap.Logger
	maxUnits int
	cacheTTL time.Duration

	now   func() time.Time
	newID func() string
}

// NewService wires a Service. A nil cache disables preview caching and a nil
// logger discards log output.
func NewService(calc *Calculator, store Store, c cache.Cache, logger *zap.Logger, cfg ServiceConfig) *Service {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		calc:     calc,
		store:    store,
		cache:    c,
		logger:   logger,
		maxUnits: cfg.MaxUnits,
		cacheTTL: cfg.CacheTTL,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Preview computes a calculation without persisting it. Results are cached by
// container type and lines; the label never affects the packing.
func (s *Service) Preview(ctx context.Context, label string, lines []LineRequest, containerTypeID string) (*Result, error) {
	if err := s.checkUnits(lines); err != nil {
		return nil, err
	}

	key := cache.Key(previewKeyPrefix, containerTypeID, lines)
	if cached, ok := s.cachedPreview(ctx, key); ok {
		cached.Label = label
		return cached, nil
	}

	result, err := s.calc.Compute(ctx, lines, containerTypeID, label)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			s.logger.Warn("cache preview failed", zap.String("key", key), zap.Error(err))
		}
	}

	s.logger.Debug("calculation previewed",
		zap.String("container_type", containerTypeID),
		zap.Int("containers", result.ContainerCount),
	)
	return result, nil
}

func (s *Service) cachedPreview(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("read preview cache failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !hit {
		return nil, false
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	return &result, true
}

// Create computes a calculation and stores it as a Planned record.
func (s *Service) Create(ctx context.Context, label string, lines []LineRequest, containerTypeID string) (Record, error) {
	if err := s.checkUnits(lines); err != nil {
		return Record{}, err
	}

	result, err := s.calc.Compute(ctx, lines, containerTypeID, label)
	if err != nil {
		return Record{}, err
	}

	now := s.now().UTC()
	rec := Record{
		ID:              s.newID(),
		Label:           label,
		Status:          StatusPlanned,
		Lines:           append([]LineRequest(nil), lines...),
		ContainerTypeID: containerTypeID,
		Result:          result,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("store calculation: %w", err)
	}

	s.logger.Info("calculation saved",
		zap.String("id", rec.ID),
		zap.String("label", rec.Label),
		zap.String("container_type", containerTypeID),
		zap.Int("containers", result.ContainerCount),
		zap.Float64("average_utilization", result.AverageUtilization),
	)
	return rec, nil
}

// Get returns the record with the given id.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.store.Get(ctx, id)
}

// List returns every stored record, oldest first.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.store.List(ctx)
}

// SearchPlanned returns the planned calculations recorded for label.
func (s *Service) SearchPlanned(ctx context.Context, label string) ([]Record, error) {
	return s.store.FindByLabel(ctx, label, StatusPlanned)
}

// Update applies patch to the stored record with the given id.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Record, error) {
	if patch.Lines != nil {
		if err := s.checkUnits(patch.Lines); err != nil {
			return Record{}, err
		}
	}

	prior, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}

	next, resimulated, err := s.calc.Update(ctx, prior, patch)
	if err != nil {
		return Record{}, err
	}
	next.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, next); err != nil {
		return Record{}, fmt.Errorf("update calculation %s: %w", id, err)
	}

	s.logger.Info("calculation updated",
		zap.String("id", id),
		zap.String("status", string(next.Status)),
		zap.Bool("resimulated", resimulated),
	)
	return next, nil
}

// Recommend lists catalog items that fit the given remaining capacity.
func (s *Service) Recommend(ctx context.Context, remainingVolume, remainingWeight float64) ([]packing.Recommendation, error) {
	return s.calc.Recommend(ctx, remainingVolume, remainingWeight)
}

func (s *Service) checkUnits(lines []LineRequest) error {
	if s.maxUnits <= 0 {
		return nil
	}
	total := 0
	for _, line := range lines {
		if line.Quantity > 0 {
			total += line.Quantity
		}
		if total > s.maxUnits {
			return fmt.Errorf("%w: more than %d units requested", ErrTooManyUnits, s.maxUnits)
		}
	}
	return nil
}
