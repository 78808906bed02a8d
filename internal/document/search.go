package document

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dshills/agentide/internal/coord"
)

// SearchOptions control FindMatches and Replace.
type SearchOptions struct {
	// IsRegex compiles the query as a regular expression instead of a
	// literal string.
	IsRegex bool `json:"is_regex,omitempty"`

	// MatchCase makes the search case-sensitive.
	MatchCase bool `json:"match_case,omitempty"`

	// WordSeparators, when non-empty, constrain matches to be bounded by
	// one of these characters or a line boundary (whole-word search).
	WordSeparators string `json:"word_separators,omitempty"`

	// CaptureMatches includes the matched text in each result.
	CaptureMatches bool `json:"capture_matches,omitempty"`

	// Limit truncates the result list. Zero means unlimited.
	Limit int `json:"limit,omitempty"`
}

// SearchResult is a single match.
type SearchResult struct {
	Range coord.Range `json:"range"`
	Match string      `json:"match,omitempty"`
}

// FindMatches searches the document for query. Scopes may be nil (whole
// document) or a list of ranges, which are resolved and collapsed into a
// minimal cover before scanning so overlapping scopes never yield
// duplicate matches.
func (d *Document) FindMatches(query string, scopes []coord.Range, opts SearchOptions) ([]SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	re, multiline, err := compileQuery(query, opts)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	cover, err := d.searchCoverLocked(scopes)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, scope := range cover {
		if opts.Limit > 0 && len(results) >= opts.Limit {
			break
		}
		if multiline {
			results = d.findMultilineLocked(re, scope, opts, results)
		} else {
			results = d.findByLineLocked(re, scope, opts, results)
		}
	}
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// Replace substitutes every match of query inside the scopes with
// replacement, applied as a single undoable edit batch. Returns the
// number of replacements made and the applied batch; the batch ranges
// are resolved against the pre-replace content, so callers can relay
// them downstream.
func (d *Document) Replace(query, replacement string, scopes []coord.Range, opts SearchOptions) (int, []EditOperation, error) {
	opts.CaptureMatches = false
	opts.Limit = 0
	matches, err := d.FindMatches(query, scopes, opts)
	if err != nil {
		return 0, nil, err
	}
	if len(matches) == 0 {
		return 0, nil, nil
	}

	edits := make([]EditOperation, len(matches))
	for i, m := range matches {
		edits[i] = EditOperation{Range: m.Range, Text: replacement}
	}
	if _, err := d.ApplyEdits(edits, true); err != nil {
		return 0, nil, err
	}
	return len(matches), edits, nil
}

// searchCoverLocked resolves the scopes into a minimal ordered cover,
// defaulting to the full document.
func (d *Document) searchCoverLocked(scopes []coord.Range) ([]coord.Range, error) {
	if len(scopes) == 0 {
		return []coord.Range{d.fullRangeLocked()}, nil
	}
	resolved := make([]coord.Range, len(scopes))
	for i, s := range scopes {
		r, err := d.resolveRangeLocked(s)
		if err != nil {
			return nil, err
		}
		resolved[i] = r
	}
	return coord.Union(resolved), nil
}

// findByLineLocked scans the scope one line at a time.
func (d *Document) findByLineLocked(re *regexp.Regexp, scope coord.Range, opts SearchOptions, results []SearchResult) []SearchResult {
	for line := scope.Start.Line; line <= scope.End.Line; line++ {
		text := d.lines[line-1]
		lo, hi := 0, len(text)
		if line == scope.Start.Line {
			lo = byteOffset(text, scope.Start.Character-1)
		}
		if line == scope.End.Line {
			hi = byteOffset(text, scope.End.Character-1)
		}
		segment := text[lo:hi]

		for _, loc := range re.FindAllStringIndex(segment, -1) {
			if opts.Limit > 0 && len(results) >= opts.Limit {
				return results
			}
			match := segment[loc[0]:loc[1]]
			startCh := runeLen(text[:lo+loc[0]]) + 1
			endCh := startCh + runeLen(match)
			if !wordBounded(text, lo+loc[0], lo+loc[1], opts.WordSeparators) {
				continue
			}
			results = append(results, newResult(
				coord.NewRange(line, startCh, line, endCh), match, opts.CaptureMatches))
		}
	}
	return results
}

// findMultilineLocked scans the scope as one LF-joined text.
func (d *Document) findMultilineLocked(re *regexp.Regexp, scope coord.Range, opts SearchOptions, results []SearchResult) []SearchResult {
	base := d.offsetAtLocked(scope.Start)
	text := d.valueLocked(scope)

	for _, loc := range re.FindAllStringIndex(text, -1) {
		if opts.Limit > 0 && len(results) >= opts.Limit {
			return results
		}
		match := text[loc[0]:loc[1]]
		start := d.positionAtLocked(base + runeLen(text[:loc[0]]))
		end := d.positionAtLocked(base + runeLen(text[:loc[1]]))
		results = append(results, newResult(coord.Range{Start: start, End: end}, match, opts.CaptureMatches))
	}
	return results
}

func newResult(rng coord.Range, match string, capture bool) SearchResult {
	res := SearchResult{Range: rng}
	if capture {
		res.Match = match
	}
	return res
}

// compileQuery builds the search pattern. Literal queries are escaped;
// case folding is applied via a flag so literal and regex paths agree.
func compileQuery(query string, opts SearchOptions) (*regexp.Regexp, bool, error) {
	pattern := query
	if !opts.IsRegex {
		pattern = regexp.QuoteMeta(query)
	}
	if !opts.MatchCase {
		pattern = "(?i)" + pattern
	}

	multiline := strings.Contains(query, "\n")
	if opts.IsRegex && !multiline {
		multiline = regexSpansLines(query)
	}
	if multiline {
		pattern = "(?s)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false, fmt.Errorf("compile search pattern: %w", err)
	}
	return re, multiline, nil
}

// regexSpansLines reports whether a regex source can match across line
// boundaries: a literal newline, or one of the escapes \n \r \W \s.
func regexSpansLines(source string) bool {
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			return true
		}
		if source[i] == '\\' && i+1 < len(source) {
			switch source[i+1] {
			case 'n', 'r', 'W', 's':
				return true
			}
			i++
		}
	}
	return false
}

// wordBounded checks whole-word constraints: the runes adjacent to the
// match must be separators or line boundaries. start and end are byte
// offsets, so the boundary runes are decoded, not indexed.
func wordBounded(line string, start, end int, separators string) bool {
	if separators == "" {
		return true
	}
	if start > 0 {
		before, _ := utf8.DecodeLastRuneInString(line[:start])
		if !strings.ContainsRune(separators, before) {
			return false
		}
	}
	if end < len(line) {
		after, _ := utf8.DecodeRuneInString(line[end:])
		if !strings.ContainsRune(separators, after) {
			return false
		}
	}
	return true
}

// byteOffset converts a rune index within s to a byte offset.
func byteOffset(s string, runeIdx int) int {
	if runeIdx <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == runeIdx {
			return i
		}
		n++
	}
	return len(s)
}
