package model

import "time"

// CachedSprintStalenessThreshold is the default age at which a CachedSprint
// row is considered stale and eligible for refresh.
const CachedSprintStalenessThreshold = 2 * time.Hour

// CachedSprint is a read-optimized copy of tracker sprint data for fast
// discovery endpoints, refreshed on a staleness threshold rather than on
// every read.
type CachedSprint struct {
	Base

	TrackerSprintID int64  `gorm:"uniqueIndex;not null"`
	Name            string `gorm:"size:200"`
	State           string `gorm:"size:20"`
	BoardID         int64

	Payload JSONMap `gorm:"serializer:json"`

	LastFetchedAt time.Time
	ErrorCount    int
	LastError     string `gorm:"type:text"`
}

// IsStale reports whether the cache row is older than the staleness
// threshold as of now.
func (c *CachedSprint) IsStale(now time.Time, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = CachedSprintStalenessThreshold
	}
	return now.Sub(c.LastFetchedAt) > threshold
}
