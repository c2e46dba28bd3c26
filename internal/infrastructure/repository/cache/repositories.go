package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/match"
	"github.com/riskibarqy/matchfeed/internal/domain/teamlogo"
	basecache "github.com/riskibarqy/matchfeed/internal/platform/cache"
)

const (
	matchKeyPrefix = "match:"
	teamKeyPrefix  = "team:"
)

// MatchRepository caches public reads. Any write drops every match key, since
// list results depend on league, status and id filters at once.
type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) List(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	key := matchKeyPrefix + "list:" + filterKey(filter)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return cloneMatches(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]match.Match)
	return cloneMatches(items), nil
}

func (r *MatchRepository) GetByID(ctx context.Context, id string) (match.Match, bool, error) {
	key := matchKeyPrefix + "id:" + id
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return cachedMatchByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return match.Match{}, false, err
	}

	cached, _ := v.(cachedMatchByID)
	return cached.value.Clone(), cached.exists, nil
}

type cachedMatchByID struct {
	value  match.Match
	exists bool
}

func (r *MatchRepository) ListLeagues(ctx context.Context) ([]string, error) {
	v, err := r.cache.GetOrLoad(ctx, matchKeyPrefix+"leagues", func(ctx context.Context) (any, error) {
		items, err := r.next.ListLeagues(ctx)
		if err != nil {
			return nil, err
		}
		return append([]string(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]string)
	return append([]string(nil), items...), nil
}

func (r *MatchRepository) Create(ctx context.Context, m match.Match) error {
	defer r.invalidate(ctx)
	return r.next.Create(ctx, m)
}

func (r *MatchRepository) Update(ctx context.Context, m match.Match) error {
	defer r.invalidate(ctx)
	return r.next.Update(ctx, m)
}

func (r *MatchRepository) InsertMany(ctx context.Context, items []match.Match) error {
	defer r.invalidate(ctx)
	return r.next.InsertMany(ctx, items)
}

func (r *MatchRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	defer r.invalidate(ctx)
	return r.next.DeleteByIDs(ctx, ids)
}

func (r *MatchRepository) DeleteBySourceURLs(ctx context.Context, urls []string) (int64, error) {
	defer r.invalidate(ctx)
	return r.next.DeleteBySourceURLs(ctx, urls)
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, ids []string, status match.Status) error {
	defer r.invalidate(ctx)
	return r.next.UpdateStatus(ctx, ids, status)
}

func (r *MatchRepository) ClearStreamLinks(ctx context.Context, ids []string) error {
	defer r.invalidate(ctx)
	return r.next.ClearStreamLinks(ctx, ids)
}

// Identity lookups feed reconciliation and always read through.
func (r *MatchRepository) ListSourceKeys(ctx context.Context) ([]match.SourceKey, error) {
	return r.next.ListSourceKeys(ctx)
}

func (r *MatchRepository) ListSourceMatchIDsBySource(ctx context.Context, sourceURL string) ([]string, error) {
	return r.next.ListSourceMatchIDsBySource(ctx, sourceURL)
}

func (r *MatchRepository) invalidate(ctx context.Context) {
	r.cache.DeletePrefix(ctx, matchKeyPrefix)
}

func filterKey(filter match.Filter) string {
	var b strings.Builder
	b.WriteString("league=")
	b.WriteString(filter.LeagueName)
	b.WriteString("|status=")
	b.WriteString(string(filter.Status))
	if filter.IDs != nil {
		ids := append([]string(nil), filter.IDs...)
		sort.Strings(ids)
		b.WriteString("|ids=")
		b.WriteString(strings.Join(ids, ","))
	}
	return b.String()
}

func cloneMatches(items []match.Match) []match.Match {
	out := make([]match.Match, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}

// TeamLogoRepository caches the managed team list, which is read on every
// decorated match response.
type TeamLogoRepository struct {
	next  teamlogo.Repository
	cache *basecache.Store
}

func NewTeamLogoRepository(next teamlogo.Repository, cache *basecache.Store) *TeamLogoRepository {
	return &TeamLogoRepository{next: next, cache: cache}
}

func (r *TeamLogoRepository) List(ctx context.Context) ([]teamlogo.ManagedTeam, error) {
	v, err := r.cache.GetOrLoad(ctx, teamKeyPrefix+"list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]teamlogo.ManagedTeam(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]teamlogo.ManagedTeam)
	return append([]teamlogo.ManagedTeam(nil), items...), nil
}

func (r *TeamLogoRepository) GetByKey(ctx context.Context, nameKey string) (teamlogo.ManagedTeam, bool, error) {
	return r.next.GetByKey(ctx, nameKey)
}

func (r *TeamLogoRepository) Upsert(ctx context.Context, team teamlogo.ManagedTeam) error {
	defer r.cache.DeletePrefix(ctx, teamKeyPrefix)
	return r.next.Upsert(ctx, team)
}

func (r *TeamLogoRepository) Delete(ctx context.Context, nameKey string) error {
	defer r.cache.DeletePrefix(ctx, teamKeyPrefix)
	return r.next.Delete(ctx, nameKey)
}

// NewStore builds the shared TTL store used by the decorators above.
func NewStore(ttl time.Duration) *basecache.Store {
	return basecache.NewStore(ttl)
}
