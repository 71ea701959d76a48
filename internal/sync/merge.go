// Package sync reconciles locally and remotely held copies of profile and
// session data into one agreed state.
package sync

import (
	"sort"

	"courtcue/internal/models"
)

// Source identifies which side a merge result was taken from
type Source string

const (
	SourceLocal Source = "local"
	SourceCloud Source = "cloud"
)

// ProfileMerge is the tagged result of a profile merge
type ProfileMerge struct {
	Profile models.UserProfile
	Source  Source
}

// MergeUserData merges the local and cloud profile copies using whole-object
// precedence: a completed onboarding marks a side as having meaningful data.
// If local completed onboarding, local wins outright and the cloud copy is
// ignored entirely; otherwise a completed cloud copy wins; otherwise local
// (which holds no data yet) stands. This is deliberately not a field-level
// merge.
func MergeUserData(local, cloud models.UserProfile) ProfileMerge {
	if local.HasCompletedOnboarding {
		return ProfileMerge{Profile: local, Source: SourceLocal}
	}
	if cloud.HasCompletedOnboarding {
		return ProfileMerge{Profile: cloud, Source: SourceCloud}
	}
	return ProfileMerge{Profile: local, Source: SourceLocal}
}

// MergeSessions unions the two session sets by id, local winning on an id
// collision, and returns the result sorted by date descending. Sessions are
// immutable after creation, so a collision can only be the same session seen
// from both sides.
func MergeSessions(local, cloud []models.PracticeSession) []models.PracticeSession {
	byID := make(map[string]models.PracticeSession, len(local)+len(cloud))

	for _, s := range cloud {
		byID[s.ID] = s
	}
	for _, s := range local {
		byID[s.ID] = s
	}

	merged := make([]models.PracticeSession, 0, len(byID))
	for _, s := range byID {
		merged = append(merged, s)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Date.Equal(merged[j].Date) {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].Date.After(merged[j].Date)
	})
	return merged
}
