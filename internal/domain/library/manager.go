package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/orrery-labs/orrery/backend/internal/infrastructure/logging"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/monitoring"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
	"github.com/orrery-labs/orrery/backend/internal/shared/utils"
)

// Extension is the document file suffix under the library root.
const Extension = ".ipynb"

// listPattern matches documents anywhere under the root.
const listPattern = "**/*" + Extension

// Stats summarizes the library contents.
type Stats struct {
	Notebooks  int       `json:"notebooks"`
	TotalBytes int64     `json:"total_bytes"`
	NewestSave time.Time `json:"newest_save"`
}

// Manager stores notebook documents under a root directory. Loads go
// through an in-memory cache invalidated on save and delete; writes are
// atomic (write-then-rename), so a crashed save never leaves a torn file.
type Manager struct {
	root    string
	pattern string
	cache   sync.Map // name -> *types.Document
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a manager rooted at dir, creating it if absent.
func NewManager(dir string, logger *logging.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create library root: %w", err)
	}
	return &Manager{root: dir, pattern: listPattern, logger: logger}, nil
}

// WithMetrics attaches library gauges and counters.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithPattern narrows the listing glob, e.g. "reports/**/*.ipynb". An
// empty pattern keeps the default of every notebook under the root.
func (m *Manager) WithPattern(pattern string) *Manager {
	if pattern != "" {
		m.pattern = pattern
	}
	return m
}

// Root returns the library root directory.
func (m *Manager) Root() string {
	return m.root
}

// path resolves a validated name, or a root-relative path for nested
// documents as List reports them, to its file path.
func (m *Manager) path(name string) (string, error) {
	name = strings.TrimSuffix(filepath.ToSlash(name), Extension)
	if err := utils.ValidateNotebookPath(name); err != nil {
		return "", types.WrapError(types.ErrFileRead, err, "invalid notebook name")
	}
	return filepath.Join(m.root, filepath.FromSlash(name)+Extension), nil
}

// List walks the root and returns every notebook document, sorted by
// name. Files whose content is not JSON are excluded even when they carry
// the extension. The walk is concurrent; a cancelled context aborts it.
func (m *Manager) List(ctx context.Context) ([]types.NotebookEntry, error) {
	var (
		mu      sync.Mutex
		entries []types.NotebookEntry
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, m.root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil || d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(m.root, p)
		if err != nil {
			return nil
		}
		if ok, _ := doublestar.Match(m.pattern, filepath.ToSlash(rel)); !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if mime, err := mimetype.DetectFile(p); err != nil || !mime.Is("application/json") {
			return nil
		}

		entry := types.NotebookEntry{
			Name:         strings.TrimSuffix(filepath.Base(p), Extension),
			Path:         filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		}
		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk library: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name == entries[j].Name {
			return entries[i].Path < entries[j].Path
		}
		return entries[i].Name < entries[j].Name
	})

	if m.metrics != nil {
		m.metrics.SetLibraryNotebooks(len(entries))
	}
	return entries, nil
}

// Load reads a document by name, serving repeated loads from cache.
func (m *Manager) Load(name string) (*types.Document, error) {
	path, err := m.path(name)
	if err != nil {
		return nil, err
	}

	if cached, ok := m.cache.Load(cacheKey(name)); ok {
		return cached.(*types.Document), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.ErrFileRead, err, fmt.Sprintf("read notebook %q", name))
	}
	if err := utils.DefaultJSONValidator().ValidateSize(data); err != nil {
		return nil, types.WrapError(types.ErrDocumentParse, err, fmt.Sprintf("notebook %q", name))
	}

	var doc types.Document
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		return nil, types.WrapError(types.ErrDocumentParse, err, fmt.Sprintf("notebook %q is not valid JSON", name))
	}

	m.cache.Store(cacheKey(name), &doc)
	return &doc, nil
}

// Save writes a document atomically and replaces the cache entry.
func (m *Manager) Save(name string, doc *types.Document) error {
	path, err := m.path(name)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != m.root {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create notebook dir %q: %w", name, err)
		}
	}

	data, err := sonic.ConfigStd.MarshalIndent(doc, "", " ")
	if err != nil {
		return fmt.Errorf("marshal notebook %q: %w", name, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(m.root, ".save-*")
	if err != nil {
		return fmt.Errorf("stage notebook %q: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("stage notebook %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stage notebook %q: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stage notebook %q: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save notebook %q: %w", name, err)
	}

	m.cache.Store(cacheKey(name), doc)
	if m.metrics != nil {
		m.metrics.IncLibrarySaves()
	}
	m.logger.Info("notebook saved",
		zap.String("name", name),
		zap.Int("bytes", len(data)))
	return nil
}

// Delete removes a document and drops it from cache.
func (m *Manager) Delete(name string) error {
	path, err := m.path(name)
	if err != nil {
		return err
	}
	m.cache.Delete(cacheKey(name))
	if err := os.Remove(path); err != nil {
		return types.WrapError(types.ErrFileRead, err, fmt.Sprintf("delete notebook %q", name))
	}
	m.logger.Info("notebook deleted", zap.String("name", name))
	return nil
}

// Stats aggregates the current listing.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	entries, err := m.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Notebooks: len(entries)}
	for _, e := range entries {
		stats.TotalBytes += e.Size
		if e.LastModified.After(stats.NewestSave) {
			stats.NewestSave = e.LastModified
		}
	}
	return stats, nil
}

func cacheKey(name string) string {
	return strings.TrimSuffix(filepath.ToSlash(name), Extension)
}
