package mongo

import (
	"sort"

	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

func extraKeys(row domain.Row, known map[string]struct{}) []string {
	keys := make([]string, 0)
	for key := range row {
		if _, ok := known[key]; ok {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
