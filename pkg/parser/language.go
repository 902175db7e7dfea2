package parser

import (
	"path/filepath"
	"strings"
)

// Language identifies the tree-sitter grammar used for a source file.
//
// JSX is only legal in .tsx files for TypeScript (a `<T>x` cast in a .ts
// file would otherwise be read as an element), while the JavaScript
// grammar always accepts JSX.
type Language int

const (
	// LanguageTSX is TypeScript with JSX (.tsx)
	LanguageTSX Language = iota
	// LanguageTypeScript is plain TypeScript (.ts, .mts, .cts)
	LanguageTypeScript
	// LanguageJavaScript is JavaScript with JSX (.js, .jsx, .mjs, .cjs)
	LanguageJavaScript
	// LanguageUnknown represents an unsupported file
	LanguageUnknown
)

// String returns the string representation of the language.
func (l Language) String() string {
	switch l {
	case LanguageTSX:
		return "tsx"
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// SupportsJSX reports whether the grammar can contain JSX elements.
func (l Language) SupportsJSX() bool {
	return l == LanguageTSX || l == LanguageJavaScript
}

// DetectLanguage picks the grammar from a file extension.
func DetectLanguage(filePath string) Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".tsx":
		return LanguageTSX
	case ".ts", ".mts", ".cts":
		return LanguageTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// SupportedLanguages returns every grammar the manager can load.
func SupportedLanguages() []Language {
	return []Language{LanguageTSX, LanguageTypeScript, LanguageJavaScript}
}
