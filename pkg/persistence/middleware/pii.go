package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
)

// Mask replaces the value of masked columns.
const Mask = "***"

type piiMiddleware struct {
	next     Store
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of columns matching the patterns
// before they are written. Nested maps are masked too.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns, err := compile(patternStrings)
	if err != nil {
		return nil, err
	}
	return func(next Store) Store {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Begin(ctx context.Context) (ports.Transaction, error) {
	return begin(ctx, m.next, func(_ string, rows []domain.Row) ([]domain.Row, error) {
		// Deep clone to avoid side effects on the rows the chain keeps threading.
		out := cloneRows(rows)
		for _, r := range out {
			maskMap(r, m.patterns)
		}
		return out, nil
	})
}

func (m *piiMiddleware) ReadRows(ctx context.Context, object string) ([]domain.Row, error) {
	return m.next.ReadRows(ctx, object)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if matchAny(k, patterns) {
			m[k] = Mask
			continue
		}

		// Recurse if map
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}

func compile(patternStrings []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid column pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return patterns, nil
}

func matchAny(column string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(column) {
			return true
		}
	}
	return false
}
