package workspace

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/orrery-labs/orrery/backend/internal/domain/window"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/logging"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// Layout is the boot-time workspace manifest.
type Layout struct {
	Windows []LayoutWindow `yaml:"windows"`
}

// LayoutWindow is one seeded window. An omitted id means next free.
type LayoutWindow struct {
	ID       int            `yaml:"id"`
	Kind     string         `yaml:"kind"`
	Position LayoutPosition `yaml:"position"`
	Content  string         `yaml:"content"`
	Tags     []string       `yaml:"tags"`
}

// LayoutPosition is the manifest's placement block. Zero width or height
// falls back to the default geometry.
type LayoutPosition struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Z      float64 `yaml:"z"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Seeder populates an empty store from a layout manifest at boot.
type Seeder struct {
	store  *window.Store
	path   string
	logger *logging.Logger
}

// NewSeeder creates a seeder reading the manifest at path.
func NewSeeder(store *window.Store, path string, logger *logging.Logger) *Seeder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Seeder{store: store, path: path, logger: logger}
}

// Seed loads the manifest into the store. A store that already holds
// windows is left alone, as are an empty path and a missing file; both are
// normal at boot. Individual bad manifest entries are skipped, a manifest
// that fails to parse is an error.
func (s *Seeder) Seed() error {
	if s.path == "" {
		return nil
	}
	if count := s.store.Count(); count > 0 {
		s.logger.Info("skipping layout seed, store not empty", zap.Int("windows", count))
		return nil
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.Info("no layout manifest found", zap.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read layout manifest: %w", err)
	}

	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return fmt.Errorf("parse layout manifest: %w", err)
	}

	var seeded, failed int
	for i, entry := range layout.Windows {
		if err := s.seedWindow(entry); err != nil {
			s.logger.Warn("skipping layout window",
				zap.Int("index", i),
				zap.Error(err))
			failed++
			continue
		}
		seeded++
	}

	s.logger.Info("workspace seeded",
		zap.String("path", s.path),
		zap.Int("seeded", seeded),
		zap.Int("failed", failed))
	return nil
}

func (s *Seeder) seedWindow(entry LayoutWindow) error {
	kind := types.Kind(entry.Kind)
	if !kind.Valid() {
		return fmt.Errorf("unknown window kind %q", entry.Kind)
	}

	id := entry.ID
	if id <= 0 {
		id = s.store.NextID()
	}

	pos := types.Position{
		X:      entry.Position.X,
		Y:      entry.Position.Y,
		Z:      entry.Position.Z,
		Width:  entry.Position.Width,
		Height: entry.Position.Height,
	}
	if pos.Width <= 0 {
		pos.Width = 400
	}
	if pos.Height <= 0 {
		pos.Height = 300
	}

	s.store.Create(kind, id, pos)
	if entry.Content != "" || len(entry.Tags) > 0 {
		s.store.Update(id, func(rec *types.WindowRecord) {
			rec.State.Content = entry.Content
			rec.State.Tags = append([]string(nil), entry.Tags...)
			rec.State.NormalizeTags()
		})
	}
	return nil
}
