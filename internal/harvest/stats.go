package harvest

import "time"

// Skip reasons recorded in Stats.Skipped.
const (
	SkipNotAlbum    = "not_album"
	SkipNotSolo     = "not_solo"
	SkipNotReleased = "not_released"
	SkipNoGenre     = "no_genre"
)

// Stats summarises one run.
type Stats struct {
	RunID         string
	StartOffset   int
	EndOffset     int
	TotalArtists  int
	Artists       int
	ReleaseGroups int
	Skipped       map[string]int
	Covers        int
	Uploads       int
	RowsInserted  int
	RowsExisting  int
	CSVAppended   int
	CSVExisting   int
	Completed     bool
	Elapsed       time.Duration
}

func newStats(runID string) Stats {
	return Stats{RunID: runID, Skipped: map[string]int{}}
}

// Persisted returns the number of release groups that passed every filter.
func (s Stats) Persisted() int {
	return s.Covers
}

// SkippedTotal returns the number of filtered-out release groups.
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}
