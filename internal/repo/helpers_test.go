package repo

import "github.com/dexquiz/dexquiz/internal/models"

func scores(entries []models.HighscoreEntry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Score)
	}
	return out
}
