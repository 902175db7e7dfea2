package extractor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// normalizeText trims s and collapses every whitespace run to one space.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeIndentation removes the common leading whitespace of every
// non-blank line after the first. The first line and blank lines are kept
// as they are; relative indentation is preserved.
func normalizeIndentation(text string) string {
	lines := strings.Split(text, "\n")

	minIndent := -1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeftFunc(line, unicode.IsSpace))
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return text
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" || len(lines[i]) < minIndent {
			continue
		}
		lines[i] = lines[i][minIndent:]
	}
	return strings.Join(lines, "\n")
}

// lineIndex converts byte offsets to 1-based line/column pairs, counting
// columns in characters.
type lineIndex struct {
	source     []byte
	lineStarts []int
}

func newLineIndex(source []byte) *lineIndex {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{source: source, lineStarts: starts}
}

// position returns the line and column of offset. Offsets past the end of
// the source map to (1, 1).
func (li *lineIndex) position(offset uint32) (uint32, uint32) {
	off := int(offset)
	if off > len(li.source) {
		return 1, 1
	}

	// Index of the last line starting at or before off.
	line := sort.Search(len(li.lineStarts), func(i int) bool {
		return li.lineStarts[i] > off
	}) - 1

	col := utf8.RuneCount(li.source[li.lineStarts[line]:off]) + 1
	return uint32(line + 1), uint32(col)
}

func (li *lineIndex) span(start, end uint32) Span {
	startLine, startCol := li.position(start)
	endLine, endCol := li.position(end)
	return Span{
		Start:     start,
		End:       end,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   endLine,
		EndCol:    endCol,
	}
}
