package recommend

import (
	"math"
	"slices"
	"time"

	"movie-recommendation-service/internal/models"
)

const (
	defaultStartYear  = 2000
	earliestStartYear = 1900
	minYearSpan       = 5

	ratingFloor     = 5.0
	ratingSlack     = 1.0
	preferredRating = 10.0
)

// BuildProfile derives a taste profile from liked and disliked movies. It has no
// side effects; now supplies the current year for the release-year window.
// Missing ratings count as 0 and unparseable release dates are skipped.
func BuildProfile(liked, disliked []models.Movie, now time.Time) TasteProfile {
	return TasteProfile{
		GenreWeights:     genreWeights(liked),
		AvoidedGenres:    avoidedGenres(disliked),
		YearPreference:   yearPreference(liked, now.Year()),
		RatingPreference: ratingPreference(liked),
		AvoidedMovieIDs:  movieIDs(disliked),
	}
}

// genreWeights scores each liked genre by how often it appears times the average
// rating of the liked movies carrying it, scaled so the top genre is 1.
func genreWeights(liked []models.Movie) map[int]float64 {
	weights := make(map[int]float64)
	if len(liked) == 0 {
		return weights
	}

	counts := make(map[int]int)
	ratingSums := make(map[int]float64)
	for _, m := range liked {
		for _, g := range uniqueGenres(m.GenreIDs) {
			counts[g]++
			ratingSums[g] += m.Rating()
		}
	}

	total := float64(len(liked))
	var maxWeight float64
	for g, c := range counts {
		freq := float64(c) / total
		avgRating := ratingSums[g] / float64(c)
		w := freq * (avgRating / 10)
		weights[g] = w
		maxWeight = math.Max(maxWeight, w)
	}

	if maxWeight == 0 {
		// No liked movie has a rating; genre frequency alone still ranks genres.
		var maxFreq float64
		for g, c := range counts {
			weights[g] = float64(c) / total
			maxFreq = math.Max(maxFreq, weights[g])
		}
		maxWeight = maxFreq
	}
	if maxWeight > 0 {
		for g := range weights {
			weights[g] /= maxWeight
		}
	}
	return weights
}

// avoidedGenres returns, per genre, the share of disliked movies that carry it.
func avoidedGenres(disliked []models.Movie) map[int]float64 {
	avoided := make(map[int]float64)
	if len(disliked) == 0 {
		return avoided
	}
	for _, m := range disliked {
		for _, g := range uniqueGenres(m.GenreIDs) {
			avoided[g]++
		}
	}
	total := float64(len(disliked))
	for g := range avoided {
		avoided[g] /= total
	}
	return avoided
}

func yearPreference(liked []models.Movie, currentYear int) YearPreference {
	pref := YearPreference{
		PreferredStartYear: defaultStartYear,
		PreferredEndYear:   currentYear,
		Weight:             1.0,
	}

	var years []int
	for _, m := range liked {
		if y, ok := m.ReleaseYear(); ok {
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return pref
	}

	sum := 0
	for _, y := range years {
		sum += y
	}
	avgYear := sum / len(years)
	span := max(minYearSpan, slices.Max(years)-slices.Min(years))

	pref.PreferredStartYear = max(earliestStartYear, avgYear-span/2)
	pref.PreferredEndYear = min(currentYear, avgYear+span/2)
	return pref
}

// ratingPreference sets the floor one point under the lowest-rated liked movie,
// never below 5.
func ratingPreference(liked []models.Movie) RatingPreference {
	pref := RatingPreference{
		MinRating:       ratingFloor,
		PreferredRating: preferredRating,
		Weight:          1.0,
	}
	if len(liked) == 0 {
		return pref
	}

	lowest := math.Inf(1)
	for _, m := range liked {
		lowest = math.Min(lowest, m.Rating())
	}
	pref.MinRating = math.Max(ratingFloor, lowest-ratingSlack)
	return pref
}

func movieIDs(movies []models.Movie) []int {
	ids := make([]int, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.TMDBID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func uniqueGenres(ids []int) []int {
	if len(ids) < 2 {
		return ids
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
