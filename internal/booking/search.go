package booking

import (
	"context"
	"slices"
	"strings"
)

const (
	maxSuggestions = 15
	maxDistance    = 5
)

// Levenshtein calculates the Levenshtein distance between two strings.
func Levenshtein(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	n, m := len(r1), len(r2)
	if n > m {
		r1, r2 = r2, r1
		n, m = m, n
	}

	currentRow := make([]int, n+1)
	for i := 0; i <= n; i++ {
		currentRow[i] = i
	}

	for i := 1; i <= m; i++ {
		previousRow := currentRow
		currentRow = make([]int, n+1)
		currentRow[0] = i
		for j := 1; j <= n; j++ {
			add, del, change := previousRow[j]+1, currentRow[j-1]+1, previousRow[j-1]
			if r1[j-1] != r2[i-1] {
				change++
			}
			currentRow[j] = min(add, del, change)
		}
	}
	return currentRow[n]
}

// Doctors returns the distinct doctor names in the archive ranked against
// query: substring matches first, then close misspellings.
func (s *Service) Doctors(ctx context.Context, query string) ([]string, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		Name  string
		Score int
	}

	query = strings.ToLower(strings.TrimSpace(query))
	seen := make(map[string]bool)
	var results []scored
	for _, b := range rows {
		name := strings.TrimSpace(b.Doctor)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		if query == "" || strings.Contains(key, query) {
			results = append(results, scored{Name: name})
			continue
		}
		if dist := Levenshtein(query, key); dist < maxDistance {
			results = append(results, scored{Name: name, Score: dist})
		}
	}

	slices.SortStableFunc(results, func(a, b scored) int {
		if a.Score != b.Score {
			return a.Score - b.Score
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(results) > maxSuggestions {
		results = results[:maxSuggestions]
	}

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	return names, nil
}
