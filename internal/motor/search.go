package motor

import "strings"

// search.go implements the synchronous half of C7: current_page search
// against a session's cached last page, plus the shared substring matcher
// scan_all (search_worker.go) also uses. Grounded on the teacher's
// compile-pattern-once principle (motor/search_pattern.go): the needle is
// lowered a single time up front rather than per record.

// textMatcher is a compiled SearchQuery: the needle is normalised once so
// every subsequent match call is a plain strings.Contains.
type textMatcher struct {
	needle        string
	caseSensitive bool
}

func newTextMatcher(text string, caseSensitive bool) textMatcher {
	if caseSensitive {
		return textMatcher{needle: text, caseSensitive: true}
	}
	return textMatcher{needle: strings.ToLower(text)}
}

func (m textMatcher) match(haystack string) bool {
	if m.caseSensitive {
		return strings.Contains(haystack, m.needle)
	}
	return strings.Contains(strings.ToLower(haystack), m.needle)
}

// runCurrentPageSearch matches query.Text against the preview text of every
// record in the session's cached last page (C7, current_page). It is
// synchronous and creates no task.
func runCurrentPageSearch(session *Session, query SearchQuery, limits Limits) (SearchResult, error) {
	maxHits := query.MaxHits
	if maxHits <= 0 {
		maxHits = limits.DefaultMaxHits
	}

	session.mu.Lock()
	cached := session.lastPage
	session.mu.Unlock()

	m := newTextMatcher(query.Text, query.CaseSensitive)

	hits := make([]Record, 0, 16)
	totalMatched := 0
	for _, r := range cached {
		if !m.match(r.Preview) {
			continue
		}
		totalMatched++
		if len(hits) < maxHits {
			hits = append(hits, r)
		}
	}

	return SearchResult{
		Mode:      SearchCurrentPage,
		Hits:      hits,
		Truncated: totalMatched > len(hits),
	}, nil
}
