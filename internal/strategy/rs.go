package strategy

// RSRatingOK applies the RS rating filter. A missing rating fails only when
// the rating is required.
func RSRatingOK(rating *float64, p Params) bool {
	if !p.RequireRSRating {
		return true
	}
	return rating != nil && *rating >= p.MinRSRating
}
