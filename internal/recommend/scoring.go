package recommend

import (
	"cmp"
	"math"
	"slices"

	"movie-recommendation-service/internal/models"
)

// Composite score weights. Genre and rating dominate; year and popularity break ties.
const (
	genreComponentWeight      = 0.4
	yearComponentWeight       = 0.1
	ratingComponentWeight     = 0.4
	popularityComponentWeight = 0.1

	avoidedGenrePenalty = 2.0
	neutralYearScore    = 0.5
	yearDecaySpan       = 10.0
	ratingDecaySpan     = 5.0
	popularityCeiling   = 1000.0

	// MinScore is the exclusive lower bound a candidate must beat to be returned.
	MinScore = 0.2
)

// ScoreCandidate computes the composite score of one candidate against a profile.
// The score is never negative.
func ScoreCandidate(m models.Movie, profile TasteProfile) ScoredMovie {
	s := ScoredMovie{
		Movie:           m,
		GenreScore:      genreScore(m, profile),
		YearScore:       yearScore(m, profile.YearPreference),
		RatingScore:     ratingScore(m, profile.RatingPreference),
		PopularityScore: popularityScore(m),
	}
	s.Score = math.Max(0, genreComponentWeight*s.GenreScore+
		yearComponentWeight*s.YearScore+
		ratingComponentWeight*s.RatingScore+
		popularityComponentWeight*s.PopularityScore)
	return s
}

// ScoreAndRank scores every candidate, drops weak matches and disliked movies,
// and orders the rest by score, then vote average, then catalog id.
func ScoreAndRank(candidates []models.Movie, profile TasteProfile) []ScoredMovie {
	avoided := make(map[int]struct{}, len(profile.AvoidedMovieIDs))
	for _, id := range profile.AvoidedMovieIDs {
		avoided[id] = struct{}{}
	}

	seen := make(map[int]struct{}, len(candidates))
	ranked := make([]ScoredMovie, 0, len(candidates))
	for _, m := range candidates {
		if _, ok := avoided[m.TMDBID]; ok {
			continue
		}
		if _, dup := seen[m.TMDBID]; dup {
			continue
		}
		seen[m.TMDBID] = struct{}{}

		s := ScoreCandidate(m, profile)
		if s.Score <= MinScore {
			continue
		}
		ranked = append(ranked, s)
	}

	slices.SortStableFunc(ranked, func(a, b ScoredMovie) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Movie.Rating(), a.Movie.Rating()); c != 0 {
			return c
		}
		return cmp.Compare(a.Movie.TMDBID, b.Movie.TMDBID)
	})
	return ranked
}

// genreScore adds the weight of each preferred genre and subtracts twice the
// avoidance of each disliked genre. It can be negative.
func genreScore(m models.Movie, profile TasteProfile) float64 {
	var score float64
	for _, g := range uniqueGenres(m.GenreIDs) {
		score += profile.GenreWeights[g]
		score -= avoidedGenrePenalty * profile.AvoidedGenres[g]
	}
	return score
}

func yearScore(m models.Movie, pref YearPreference) float64 {
	year, ok := m.ReleaseYear()
	if !ok {
		return neutralYearScore
	}
	if year >= pref.PreferredStartYear {
		return 1.0
	}
	gap := math.Abs(float64(year - pref.PreferredStartYear))
	return math.Max(0, 1.0-gap/yearDecaySpan)
}

// ratingScore is 0 below the profile's floor, otherwise it falls off linearly
// with distance from the preferred rating.
func ratingScore(m models.Movie, pref RatingPreference) float64 {
	vote := m.Rating()
	if vote < pref.MinRating {
		return 0
	}
	return math.Max(0, 1.0-math.Abs(vote-pref.PreferredRating)/ratingDecaySpan)
}

func popularityScore(m models.Movie) float64 {
	return math.Min(1.0, math.Max(0, m.Popularity)/popularityCeiling)
}
