package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Error messages
	"error.generic":           "Something went wrong. Please try again.",
	"error.invalid_json":      "The request body is not valid JSON.",
	"error.invalid_param":     "Invalid value for %s.",
	"error.name_required":     "An artist name is required.",
	"error.preview_params":    "Both artist and track are required.",
	"error.user_required":     "A user ID is required.",
	"error.artist_not_found":  "No artist matches \"%s\".",
	"error.not_found":         "Not found.",
	"error.store_unavailable": "The artist database is unavailable. Please try again later.",
	"error.rate_limited":      "Too many requests. Please wait %d seconds.",
	"error.duplicate_artist":  "An artist similar to \"%s\" already exists: %s.",
	"error.not_configured":    "%s is not configured on this server.",
	"error.upstream":          "An external service did not respond. Please try again.",

	// Success messages
	"success.artist_created":   "Added %s.",
	"success.favorite_added":   "Saved %s to your favorites.",
	"success.favorite_removed": "Removed from your favorites.",
	"success.enriched":         "Updated details for %s.",

	// Search messages
	"search.no_results":   "No artists match \"%s\".",
	"search.did_you_mean": "Did you mean %s?",
	"search.browse":       "Showing all artists.",

	// Preview messages
	"preview.none": "No preview available for %s - %s.",
}
