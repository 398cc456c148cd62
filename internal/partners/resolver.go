package partners

import (
	"sort"
	"strings"

	"github.com/claude/matlog/internal/models"
	"github.com/google/uuid"
)

// Merge deduplicates the three contact lists into one partner directory.
//
// Records are keyed by stable id when one exists; entries without an id
// (social-graph mirrors before friendship confirmation) fall back to a
// normalized-name key. Insertion order is instructor, manual, social, and
// a later insert never overwrites an earlier one, so instructor records
// keep their certification metadata over the social mirror of the same
// person. Name-based merging is best-effort: two different people sharing
// a display name stay separate as long as at least one of them has an id.
//
// Pure function over already-fetched lists; the result is sorted by
// display name.
func Merge(manual, instructors, social []models.Partner) []models.Partner {
	merged := make(map[string]models.Partner)
	var order []string

	insert := func(list []models.Partner) {
		for _, p := range list {
			k := dedupKey(p)
			if _, ok := merged[k]; ok {
				continue
			}
			merged[k] = p
			order = append(order, k)
		}
	}

	insert(instructors)
	insert(manual)
	insert(social)

	out := make([]models.Partner, 0, len(order))
	for _, k := range order {
		out = append(out, merged[k])
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		// Deterministic order for distinct people with identical names.
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func dedupKey(p models.Partner) string {
	if p.ID != uuid.Nil {
		return "id:" + p.ID.String()
	}
	return "name:" + NormalizeName(p.Name)
}

// NormalizeName lowercases and trims a display name for the id-less
// fallback key. It is intentionally conservative: no transliteration or
// fuzzy matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
