package app

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"car_dealership/internal/adapters/observability"
	"car_dealership/internal/domain"
)

//go:embed seed/cars.json
var defaultCatalogJSON []byte

// DefaultCatalog returns the built-in makes and models.
func DefaultCatalog() ([]domain.CarMake, error) {
	return parseCatalog(defaultCatalogJSON)
}

// LoadCatalog reads a catalogue file with the same shape as seed/cars.json.
func LoadCatalog(path string) ([]domain.CarMake, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseCatalog(b)
}

func parseCatalog(b []byte) ([]domain.CarMake, error) {
	var makes []domain.CarMake
	if err := json.Unmarshal(b, &makes); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return makes, nil
}

type CatalogService struct {
	repo domain.CarRepository
	seed []domain.CarMake
	sf   singleflight.Group
}

func NewCatalogService(r domain.CarRepository, seed []domain.CarMake) *CatalogService {
	return &CatalogService{repo: r, seed: seed}
}

// EnsureSeeded populates the catalogue when it has no makes and reports whether
// it seeded. Concurrent callers share one seed run; the repository upserts, so a
// second process seeding at the same time cannot duplicate rows either.
func (s *CatalogService) EnsureSeeded(ctx context.Context) (bool, error) {
	n, err := s.repo.CountMakes(ctx)
	if err != nil {
		return false, fmt.Errorf("count makes: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	v, err, _ := s.sf.Do("seed", func() (any, error) {
		// the seed outlives a cancelled first caller; others may be waiting on it
		sctx := context.WithoutCancel(ctx)
		if n, err := s.repo.CountMakes(sctx); err != nil || n > 0 {
			return false, err
		}
		if err := s.repo.SeedCatalog(sctx, s.seed); err != nil {
			return false, fmt.Errorf("seed catalog: %w", err)
		}
		observability.ObserveSeed()
		log.Info().Int("makes", len(s.seed)).Msg("car catalog seeded")
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// ListCars returns every model with its make name, seeding an empty catalogue first.
func (s *CatalogService) ListCars(ctx context.Context) ([]domain.CarModel, error) {
	if _, err := s.EnsureSeeded(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListCarModels(ctx)
}
