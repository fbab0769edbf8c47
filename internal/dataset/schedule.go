package dataset

import "time"

// AnnualAfter returns true if a sync is needed for an annual dataset
// that releases after the given month. Syncs once per year after the release month.
func AnnualAfter(now time.Time, lastSync *time.Time, releaseMonth time.Month) bool {
	if lastSync == nil {
		return true
	}
	// Release date for the current year.
	releaseDate := time.Date(now.Year(), releaseMonth, 1, 0, 0, 0, 0, time.UTC)
	// Only sync if we're past the release date and haven't synced since it.
	return now.After(releaseDate) && lastSync.Before(releaseDate)
}

// MonthlySchedule returns true if a sync is needed for a monthly dataset.
func MonthlySchedule(now time.Time, lastSync *time.Time) bool {
	if lastSync == nil {
		return true
	}
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return lastSync.Before(thisMonth)
}

// Once returns true only when the dataset has never synced. Used for
// static inputs like boundary files and the curated event timeline.
func Once(lastSync *time.Time) bool {
	return lastSync == nil
}
