package events

import (
	"context"
	"log/slog"

	"eventdesk/src-client/model"
	"eventdesk/src-client/query"
)

// #region - update

type UpdateInput struct {
	ID    string
	Event model.Event
}

// UpdateContext is what the update hooks need to undo their optimistic write.
type UpdateContext struct {
	Previous    model.Event
	HadPrevious bool
	Record      *model.MutationRecord
}

// NewUpdateMutation edits an event optimistically: the detail entry shows
// the submitted event while the request runs and goes back to its previous
// value when the request fails.
func (s *Service) NewUpdateMutation() *query.Mutation[UpdateInput, model.Event, UpdateContext] {
	return query.NewMutation(s.Cache,
		func(ctx context.Context, in UpdateInput) (model.Event, error) {
			return s.API.UpdateEvent(ctx, in.ID, in.Event)
		},
		query.MutationHooks[UpdateInput, model.Event, UpdateContext]{
			OnMutate: func(ctx context.Context, in UpdateInput) (UpdateContext, error) {
				key := DetailKey(in.ID)
				// a fetch finishing now would overwrite the optimistic value
				s.Cache.Cancel(key)
				prev, had := query.GetData[model.Event](s.Cache, key)

				next := in.Event
				next.ID = in.ID
				query.SetData(s.Cache, key, next)

				return UpdateContext{
					Previous:    prev,
					HadPrevious: had,
					Record:      s.Journal.Begin(ctx, model.MutationKindUpdate, in.ID, next.Title),
				}, nil
			},
			OnError: func(ctx context.Context, err error, in UpdateInput, mctx UpdateContext) {
				status := model.MutationStatusFailed
				if mctx.HadPrevious {
					query.SetData(s.Cache, DetailKey(in.ID), mctx.Previous)
					status = model.MutationStatusRolledBack
				}
				slog.Warn("event update failed", "event", in.ID, "rolled_back", mctx.HadPrevious, "error", err)
				s.Journal.Finish(ctx, mctx.Record, status, err)
			},
			OnSuccess: func(ctx context.Context, ev model.Event, in UpdateInput, mctx UpdateContext) {
				s.Journal.Finish(ctx, mctx.Record, model.MutationStatusSuccess, nil)
			},
			OnSettled: func(ctx context.Context, in UpdateInput, mctx UpdateContext, ev model.Event, err error) {
				if err := s.Cache.Invalidate(ctx, DetailKey(in.ID)); err != nil {
					slog.Warn("can't refetch event after update", "event", in.ID, "error", err)
				}
				if err == nil {
					s.markListsStale(ctx)
				}
			},
		},
	)
}

// #endregion

// #region - delete

type listSnapshot struct {
	key    query.Key
	events []model.Event
}

// DeleteContext holds every list the deleted event was removed from.
type DeleteContext struct {
	Lists  []listSnapshot
	Record *model.MutationRecord
}

// NewDeleteMutation removes the event from every cached list before the
// request is sent, and puts the lists back when it fails.
func (s *Service) NewDeleteMutation() *query.Mutation[string, struct{}, DeleteContext] {
	return query.NewMutation(s.Cache,
		func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, s.API.DeleteEvent(ctx, id)
		},
		query.MutationHooks[string, struct{}, DeleteContext]{
			OnMutate: func(ctx context.Context, id string) (DeleteContext, error) {
				s.Cache.Cancel(DetailKey(id))

				var mctx DeleteContext
				for _, ent := range s.Cache.Entries(AllKey) {
					if !isListKey(ent.Key) {
						continue
					}
					list, ok := ent.Data.([]model.Event)
					if !ok || !ent.HasData {
						continue
					}
					kept := make([]model.Event, 0, len(list))
					for _, ev := range list {
						if ev.ID != id {
							kept = append(kept, ev)
						}
					}
					if len(kept) == len(list) {
						continue
					}
					mctx.Lists = append(mctx.Lists, listSnapshot{key: ent.Key, events: list})
					query.SetData(s.Cache, ent.Key, kept)
				}

				title := ""
				if ev, ok := query.GetData[model.Event](s.Cache, DetailKey(id)); ok {
					title = ev.Title
				}
				mctx.Record = s.Journal.Begin(ctx, model.MutationKindDelete, id, title)
				return mctx, nil
			},
			OnError: func(ctx context.Context, err error, id string, mctx DeleteContext) {
				for _, snap := range mctx.Lists {
					query.SetData(s.Cache, snap.key, snap.events)
				}
				slog.Warn("event delete failed", "event", id, "restored_lists", len(mctx.Lists), "error", err)
				s.Journal.Finish(ctx, mctx.Record, model.MutationStatusRolledBack, err)
			},
			OnSuccess: func(ctx context.Context, _ struct{}, id string, mctx DeleteContext) {
				s.Journal.Finish(ctx, mctx.Record, model.MutationStatusSuccess, nil)
			},
			OnSettled: func(ctx context.Context, id string, mctx DeleteContext, _ struct{}, err error) {
				// the event is gone, refetching it would only produce a 404
				if err == nil {
					if err := s.Cache.Invalidate(ctx, DetailKey(id), query.Exact(), query.WithoutRefetch()); err != nil {
						slog.Warn("can't invalidate deleted event", "event", id, "error", err)
					}
				}
				s.markListsStale(ctx)
			},
		},
	)
}

// #endregion

// #region - create

// NewCreateMutation sends a new event. Lists are refreshed once the backend
// has assigned the event its ID.
func (s *Service) NewCreateMutation() *query.Mutation[model.Event, model.Event, *model.MutationRecord] {
	return query.NewMutation(s.Cache,
		func(ctx context.Context, ev model.Event) (model.Event, error) {
			return s.API.CreateEvent(ctx, ev)
		},
		query.MutationHooks[model.Event, model.Event, *model.MutationRecord]{
			OnMutate: func(ctx context.Context, ev model.Event) (*model.MutationRecord, error) {
				if err := ev.Validate(); err != nil {
					return nil, err
				}
				return s.Journal.Begin(ctx, model.MutationKindCreate, "", ev.Title), nil
			},
			OnError: func(ctx context.Context, err error, ev model.Event, record *model.MutationRecord) {
				s.Journal.Finish(ctx, record, model.MutationStatusFailed, err)
			},
			OnSuccess: func(ctx context.Context, created model.Event, ev model.Event, record *model.MutationRecord) {
				if created.ID != "" {
					query.SetData(s.Cache, DetailKey(created.ID), created)
				}
				if record != nil {
					record.EventID = created.ID
				}
				s.Journal.Finish(ctx, record, model.MutationStatusSuccess, nil)
			},
			OnSettled: func(ctx context.Context, ev model.Event, record *model.MutationRecord, created model.Event, err error) {
				if err == nil {
					s.markListsStale(ctx)
				}
			},
		},
	)
}

// #endregion
