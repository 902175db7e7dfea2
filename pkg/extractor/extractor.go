package extractor

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/gnana997/cuin/pkg/metrics"
	"github.com/gnana997/cuin/pkg/parser"
)

// Extractor produces raw occurrence facts for source files.
//
// Usage:
//
//	extractor := NewExtractor(parserManager, logger)
//	parsed, err := extractor.ExtractFile(file, source)
//	if err != nil {
//	    return err
//	}
//	// Use parsed.Occurrences, parsed.Imports, parsed.Declarations
type Extractor struct {
	parserManager *parser.ParserManager
	logger        *slog.Logger
}

// NewExtractor creates a new extractor backed by pm.
func NewExtractor(pm *parser.ParserManager, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{
		parserManager: pm,
		logger:        logger,
	}
}

// ExtractFile parses source ONCE and extracts occurrences, imports and
// declarations from the same tree.
//
// A file with no '<' cannot contain JSX and yields an empty result without
// being parsed.
func (e *Extractor) ExtractFile(file SourceFile, source []byte) (*ParsedFile, error) {
	lang := parser.DetectLanguage(file.Canonical)
	if lang == parser.LanguageUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", file.Canonical)
	}

	result := &ParsedFile{File: file, Language: lang}
	if !bytes.ContainsRune(source, '<') {
		return result, nil
	}

	started := time.Now()
	tree, err := e.parserManager.Parse(source, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", file.Canonical, err)
	}
	defer tree.Close() // CRITICAL: Close tree after extraction to avoid memory leak
	metrics.ParseDuration.WithLabelValues(lang.String()).Observe(time.Since(started).Seconds())

	root := tree.RootNode()
	result.Imports = extractImports(root, source)

	w := &fileWalker{
		file:   file,
		source: source,
		lines:  newLineIndex(source),
		result: result,
	}
	w.walk(root)

	e.logger.Debug("extracted file",
		"file", file.DisplayPath(),
		"occurrences", len(result.Occurrences),
		"imports", len(result.Imports),
		"declarations", len(result.Declarations))

	return result, nil
}
