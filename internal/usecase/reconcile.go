package usecase

import (
	"strings"

	"github.com/riskibarqy/matchfeed/internal/domain/feed"
	"github.com/riskibarqy/matchfeed/internal/domain/match"
)

// identityIndex is the in-memory view of already imported and tombstoned source keys
// for the duration of one import run.
type identityIndex struct {
	existing map[string]struct{}
	deleted  map[string]struct{}
}

func newIdentityIndex(existing, deleted []match.SourceKey) *identityIndex {
	idx := &identityIndex{
		existing: make(map[string]struct{}, len(existing)),
		deleted:  make(map[string]struct{}, len(deleted)),
	}
	for _, key := range existing {
		idx.existing[key.String()] = struct{}{}
	}
	for _, key := range deleted {
		idx.deleted[key.String()] = struct{}{}
	}
	return idx
}

func newSourceIdentityIndex(sourceURL string, existingIDs, deletedIDs []string) *identityIndex {
	return newIdentityIndex(sourceKeys(sourceURL, existingIDs), sourceKeys(sourceURL, deletedIDs))
}

func sourceKeys(sourceURL string, ids []string) []match.SourceKey {
	out := make([]match.SourceKey, 0, len(ids))
	for _, id := range ids {
		out = append(out, match.SourceKey{SourceURL: sourceURL, SourceMatchID: id})
	}
	return out
}

func (i *identityIndex) imported(key match.SourceKey) bool {
	_, ok := i.existing[key.String()]
	return ok
}

func (i *identityIndex) tombstoned(key match.SourceKey) bool {
	_, ok := i.deleted[key.String()]
	return ok
}

func (i *identityIndex) add(items []match.Match) {
	for _, item := range items {
		i.existing[item.Key().String()] = struct{}{}
	}
}

// withoutSourceURLs drops the keys that belong to any of urls.
func withoutSourceURLs(keys []match.SourceKey, urls []string) []match.SourceKey {
	drop := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		drop[u] = struct{}{}
	}
	kept := keys[:0:0]
	for _, key := range keys {
		if _, ok := drop[key.SourceURL]; !ok {
			kept = append(kept, key)
		}
	}
	return kept
}

type reconcileOutcome struct {
	accepted    []match.Match
	skipped     int
	outOfWindow int
}

// reconcileCandidates keeps the net-new candidates of a batch: inside the window,
// with a usable source id, not imported, not tombstoned and not repeated in the batch.
func reconcileCandidates(candidates []match.Match, window feed.DateWindow, index *identityIndex) reconcileOutcome {
	out := reconcileOutcome{accepted: make([]match.Match, 0, len(candidates))}
	seen := make(map[string]struct{}, len(candidates))
	for _, item := range candidates {
		if !window.Contains(item.Kickoff) {
			out.outOfWindow++
			continue
		}
		if strings.TrimSpace(item.SourceMatchID) == "" {
			out.skipped++
			continue
		}
		key := item.Key()
		if index.imported(key) || index.tombstoned(key) {
			out.skipped++
			continue
		}
		if _, dup := seen[key.String()]; dup {
			out.skipped++
			continue
		}
		seen[key.String()] = struct{}{}
		out.accepted = append(out.accepted, item)
	}
	return out
}
