package backend

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
	minTemperature     = 0.0
	maxTemperature     = 2.0
)

// clampTokens applies the default for an absent or non-positive value, then
// the provider ceiling.
func clampTokens(requested *int, ceiling int) int {
	tokens := defaultMaxTokens
	if requested != nil && *requested > 0 {
		tokens = *requested
	}
	return min(tokens, ceiling)
}

// clampTemperature treats zero like an absent value.
func clampTemperature(requested *float64) float64 {
	if requested == nil || *requested == 0 {
		return defaultTemperature
	}
	return max(minTemperature, min(*requested, maxTemperature))
}
