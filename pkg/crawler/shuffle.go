package crawler

import (
	"math/rand/v2"

	"flickrgeo/pkg/models"
)

// Shuffle returns a uniformly permuted copy of records using Fisher-Yates.
// records is left untouched. A nil rng uses the global source.
func Shuffle(records []models.Record, rng *rand.Rand) []models.Record {
	out := make([]models.Record, len(records))
	copy(out, records)

	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	for i := len(out) - 1; i > 0; i-- {
		j := intN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
