package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/cuin/pkg/util"
)

// ParserManager owns one lazily created parser pool per grammar.
//
// Memory Management:
//   - ParserManager owns the pools and must be closed via Close()
//   - Callers own the returned Tree and must call tree.Close()
//
// Thread Safety:
//   - Parse is safe for concurrent use; each pool holds up to
//     util.GetOptimalPoolSize() parsers so the analysis workers never
//     starve waiting for one
//
// Example:
//
//	manager := NewParserManager(logger)
//	defer manager.Close()
//
//	tree, err := manager.ParseFile(source, "src/App.tsx")
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type ParserManager struct {
	pools map[Language]*parserPool
	mutex sync.RWMutex

	logger   *slog.Logger
	poolSize int

	parsesCalled int
}

// NewParserManager creates a new ParserManager. A nil logger falls back to
// slog.Default().
func NewParserManager(logger *slog.Logger) *ParserManager {
	return NewParserManagerWithPoolSize(logger, 0)
}

// NewParserManagerWithPoolSize is NewParserManager with an explicit
// per-grammar pool size; 0 selects the CPU based default.
func NewParserManagerWithPoolSize(logger *slog.Logger, poolSize int) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}

	return &ParserManager{
		pools:    make(map[Language]*parserPool),
		logger:   logger,
		poolSize: util.GetOptimalPoolSizeWithOverride(poolSize),
	}
}

// Parse parses source with the grammar for lang.
//
// The returned tree may contain ERROR nodes; partial trees are still
// useful for occurrence extraction, so they are returned with a debug log
// instead of an error.
func (pm *ParserManager) Parse(source []byte, lang Language) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	pm.mutex.Lock()
	pm.parsesCalled++
	pm.mutex.Unlock()

	pool, err := pm.getOrCreatePool(lang)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", lang, err)
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}

	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("parser.Parse returned nil tree")
	}

	if tree.RootNode().HasError() {
		pm.logger.Debug("parse tree contains errors", "language", lang.String())
	}

	return tree, nil
}

// ParseFile detects the grammar from filePath and parses source.
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	return pm.Parse(source, lang)
}

// Close releases all parser pools. The manager cannot be used afterwards.
func (pm *ParserManager) Close() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	created := 0
	for _, pool := range pm.pools {
		created += pool.getCreatedCount()
		pool.close()
	}
	pm.pools = make(map[Language]*parserPool)

	pm.logger.Debug("closed ParserManager",
		"parsers_created", created,
		"parses_called", pm.parsesCalled)

	return nil
}

// getOrCreatePool uses double-checked locking so the common path only
// takes the read lock.
func (pm *ParserManager) getOrCreatePool(lang Language) (*parserPool, error) {
	pm.mutex.RLock()
	pool, exists := pm.pools[lang]
	pm.mutex.RUnlock()
	if exists {
		return pool, nil
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pool, exists = pm.pools[lang]; exists {
		return pool, nil
	}

	langPtr, err := languagePointer(lang)
	if err != nil {
		return nil, err
	}

	pool = newParserPool(lang, langPtr, pm.poolSize, pm.logger)
	pm.pools[lang] = pool

	pm.logger.Debug("created new parser pool",
		"language", lang.String(),
		"maxSize", pm.poolSize)

	return pool, nil
}

func languagePointer(lang Language) (unsafe.Pointer, error) {
	switch lang {
	case LanguageTSX:
		return ts_typescript.LanguageTSX(), nil
	case LanguageTypeScript:
		return ts_typescript.LanguageTypescript(), nil
	case LanguageJavaScript:
		return ts_javascript.Language(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang.String())
	}
}

// GetStats returns parser usage statistics.
func (pm *ParserManager) GetStats() ParserStats {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	total := 0
	for _, pool := range pm.pools {
		total += pool.getCreatedCount()
	}

	return ParserStats{
		ParsersCreated: total,
		ParsesCalled:   pm.parsesCalled,
	}
}

// ParserStats contains parser usage statistics.
type ParserStats struct {
	ParsersCreated int
	ParsesCalled   int
}
