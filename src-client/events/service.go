package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventdesk/src-client/api"
	"eventdesk/src-client/model"
	"eventdesk/src-client/query"
)

// Service binds the events backend to the query cache. Views build their
// queries and mutations from it so that every one of them shares the same
// keys and invalidation rules.
type Service struct {
	Cache    *query.Cache
	API      *api.Client
	Journal  *Journal
	Location *time.Location
}

func NewService(cache *query.Cache, client *api.Client, journal *Journal, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		Cache:    cache,
		API:      client,
		Journal:  journal,
		Location: loc,
	}
}

func (s *Service) fetchList(ctx context.Context, key query.Key) ([]model.Event, error) {
	term := ""
	if len(key) == 3 {
		term = key[2]
	}
	return s.API.FetchEvents(ctx, term)
}

func (s *Service) fetchDetail(ctx context.Context, key query.Key) (model.Event, error) {
	return s.API.FetchEvent(ctx, key[len(key)-1])
}

func (s *Service) listFetchFunc(key query.Key) query.FetchFunc {
	return func(ctx context.Context) (any, error) {
		return s.fetchList(ctx, key)
	}
}

func (s *Service) detailFetchFunc(key query.Key) query.FetchFunc {
	return func(ctx context.Context) (any, error) {
		return s.fetchDetail(ctx, key)
	}
}

// NewListQuery binds a view to the event list, filtered by term when it is
// not empty.
func (s *Service) NewListQuery(term string, opts ...query.QueryOption[[]model.Event]) *query.Query[[]model.Event] {
	return query.NewQuery(s.Cache, ListKey(term), s.fetchList, opts...)
}

// NewEventQuery binds a view to one event.
func (s *Service) NewEventQuery(id string, opts ...query.QueryOption[model.Event]) *query.Query[model.Event] {
	return query.NewQuery(s.Cache, DetailKey(id), s.fetchDetail, opts...)
}

// LoadEvent returns the cached event when it is fresh and fetches it
// otherwise. Views call it before rendering.
func (s *Service) LoadEvent(ctx context.Context, id string) (model.Event, error) {
	key := DetailKey(id)
	v, err := s.Cache.Query(ctx, key, s.detailFetchFunc(key))
	if err != nil {
		return model.Event{}, fmt.Errorf("events.LoadEvent: %w", err)
	}
	ev, ok := v.(model.Event)
	if !ok {
		return model.Event{}, fmt.Errorf("events.LoadEvent: unexpected %T in cache", v)
	}
	return ev, nil
}

// LoadEvents is LoadEvent for a list.
func (s *Service) LoadEvents(ctx context.Context, term string) ([]model.Event, error) {
	key := ListKey(term)
	v, err := s.Cache.Query(ctx, key, s.listFetchFunc(key))
	if err != nil {
		return nil, fmt.Errorf("events.LoadEvents: %w", err)
	}
	list, ok := v.([]model.Event)
	if !ok {
		return nil, fmt.Errorf("events.LoadEvents: unexpected %T in cache", v)
	}
	return list, nil
}

// Refresh invalidates the event and waits for the refetch of every view
// still showing it.
func (s *Service) Refresh(ctx context.Context, id string) error {
	if err := s.Cache.Invalidate(ctx, DetailKey(id), query.Exact()); err != nil {
		return fmt.Errorf("events.Refresh: %w", err)
	}
	return nil
}

// markListsStale flags every cached list so the next read refetches it,
// and refetches the lists somebody is looking at.
func (s *Service) markListsStale(ctx context.Context) {
	for _, key := range []query.Key{AllKey, searchPrefix} {
		opt := query.Prefix()
		if key.Equal(AllKey) {
			opt = query.Exact()
		}
		if err := s.Cache.Invalidate(ctx, key, opt); err != nil {
			slog.Warn("can't refetch event list", "key", key.String(), "error", err)
		}
	}
}
