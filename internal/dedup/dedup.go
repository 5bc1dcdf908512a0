// Package dedup decides whether a candidate financial record duplicates an
// already-known one. Known records are always explicit inputs; the matcher
// has no storage dependency of its own.
package dedup

import (
	"strings"

	"github.com/google/uuid"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// DefaultDistanceThreshold is the strict upper bound on statement edit
// distance. It absorbs whitespace and punctuation drift in bank statement
// text without conflating different merchants.
const DefaultDistanceThreshold = 3

// Scope identifies where the matching record was found.
type Scope string

const (
	// ScopeStore is the persisted already-known record set.
	ScopeStore Scope = "store"
	// ScopeFile is records accepted earlier in the same file.
	ScopeFile Scope = "file"
	// ScopeBatch is records accepted from other files in the same session.
	ScopeBatch Scope = "batch"
)

// Match identifies which prior record a candidate duplicates.
type Match struct {
	Index  int
	Source Scope
}

// Matcher compares candidates against known records.
type Matcher struct {
	// Threshold is the strict upper bound on normalized statement edit
	// distance.
	Threshold int
}

// NewMatcher returns a Matcher with the default threshold.
func NewMatcher() *Matcher {
	return &Matcher{Threshold: DefaultDistanceThreshold}
}

// Match checks a candidate against the three scopes in precedence order:
// persisted store, earlier rows of the same file, other files in the same
// batch. The first match wins and short-circuits the remaining scopes.
func (m *Matcher) Match(cand model.Transaction, store, sameFile, batch []model.Transaction) (Match, bool) {
	for _, scope := range []struct {
		records []model.Transaction
		source  Scope
	}{
		{store, ScopeStore},
		{sameFile, ScopeFile},
		{batch, ScopeBatch},
	} {
		for i, rec := range scope.records {
			if m.isDuplicate(cand, rec) {
				return Match{Index: i, Source: scope.source}, true
			}
		}
	}
	return Match{}, false
}

// isDuplicate requires same calendar date, exact signed amount, same
// institution and account, and a similar original statement.
func (m *Matcher) isDuplicate(a, b model.Transaction) bool {
	return a.SameDay(b) &&
		a.Amount.Equal(b.Amount) &&
		a.Institution == b.Institution &&
		a.Account == b.Account &&
		m.similarStatement(a.Statement, b.Statement)
}

// similarStatement normalizes both strings and accepts equality or an edit
// distance strictly below the threshold.
func (m *Matcher) similarStatement(a, b string) bool {
	na, nb := normalizeStatement(a), normalizeStatement(b)
	if na == nb {
		return true
	}
	dist := levenshtein.DistanceForStrings([]rune(na), []rune(nb), levenshtein.DefaultOptions)
	return dist < m.Threshold
}

// normalizeStatement lowercases and strips everything outside [a-z0-9].
func normalizeStatement(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, s)
}

// Session carries duplicate-matching state across the sequential files of
// one upload batch. Callers pass it explicitly between parse calls; there
// is no global registry.
type Session struct {
	ID    uuid.UUID
	order []string
	files map[string][]model.Transaction
}

// NewSession starts an empty upload session.
func NewSession() *Session {
	return &Session{ID: uuid.New(), files: make(map[string][]model.Transaction)}
}

// Accept records a non-duplicate transaction accepted from file.
func (s *Session) Accept(file string, txn model.Transaction) {
	if _, seen := s.files[file]; !seen {
		s.order = append(s.order, file)
	}
	s.files[file] = append(s.files[file], txn)
}

// Others returns transactions accepted from every file except the given
// one, in acceptance order.
func (s *Session) Others(file string) []model.Transaction {
	var out []model.Transaction
	for _, f := range s.order {
		if f == file {
			continue
		}
		out = append(out, s.files[f]...)
	}
	return out
}

// MatchBatch checks candidates from one file in order, maintaining the
// same-file scope internally: a candidate that is not a duplicate becomes
// part of the same-file scope for later candidates and is accepted into the
// session. The returned slice has one entry per candidate, nil when unique.
func (m *Matcher) MatchBatch(cands []model.Transaction, store []model.Transaction, session *Session, file string) []*Match {
	batch := session.Others(file)
	matches := make([]*Match, len(cands))
	var accepted []model.Transaction
	for i, cand := range cands {
		if match, ok := m.Match(cand, store, accepted, batch); ok {
			mc := match
			matches[i] = &mc
			continue
		}
		accepted = append(accepted, cand)
		session.Accept(file, cand)
	}
	return matches
}
