package ml

// CategoryScores returns, for every position of an entity's ordered
// categories, the share of strictly earlier records with the same category.
// The first record scores 0 and results are clamped to 1.
func CategoryScores(categories []string) []float64 {
	scores := make([]float64, len(categories))
	seen := make(map[string]int)

	for i, c := range categories {
		ratio := float64(seen[c]) / (float64(i) + Epsilon)
		if ratio > 1.0 {
			ratio = 1.0
		}
		scores[i] = ratio
		seen[c]++
	}
	return scores
}
