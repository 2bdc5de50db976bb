package recommend

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"movie-recommendation-service/internal/models"
)

const (
	topGenreCount      = 2
	candidateMinVotes  = 100
	candidateSortBy    = "vote_average"
	candidateSortOrder = "desc"
)

// TopGenres returns up to n genre ids ordered by weight, highest first. Equal
// weights are ordered by ascending id.
func TopGenres(weights map[int]float64, n int) []int {
	ids := make([]int, 0, len(weights))
	for g := range weights {
		ids = append(ids, g)
	}
	slices.SortFunc(ids, func(a, b int) int {
		if c := cmp.Compare(weights[b], weights[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// CandidateFilter builds the discover query for a profile. ok is false when the
// profile has no genre weights.
//
// Two top genres are selected but only the first is sent; querying the second as
// well would change which movies come back and is left undecided.
func CandidateFilter(profile TasteProfile, page int) (filter models.DiscoverFilter, ok bool) {
	top := TopGenres(profile.GenreWeights, topGenreCount)
	if len(top) == 0 {
		return models.DiscoverFilter{}, false
	}
	minRating := profile.RatingPreference.MinRating
	return models.DiscoverFilter{
		Genres:          top[:1],
		ReleaseDateFrom: fmt.Sprintf("%04d-01-01", profile.YearPreference.PreferredStartYear),
		MinRating:       &minRating,
		MinVoteCount:    candidateMinVotes,
		SortBy:          candidateSortBy,
		SortOrder:       candidateSortOrder,
		Page:            page,
	}, true
}

// GenerateCandidates fetches one page of candidate movies for the profile with a
// single catalog call. A profile without genre weights falls back to popular movies.
func GenerateCandidates(ctx context.Context, catalog CatalogGateway, profile TasteProfile, page int) (*models.MoviePage, error) {
	filter, ok := CandidateFilter(profile, page)
	if !ok {
		result, err := catalog.Popular(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("popular movies: %w", err)
		}
		return result, nil
	}

	result, err := catalog.Discover(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("discover movies for genre %d: %w", filter.Genres[0], err)
	}
	return result, nil
}
