package api

import (
	"context"
	"net/http"
	"net/url"

	"eventdesk/src-client/model"
)

type eventEnvelope struct {
	Event model.Event `json:"event"`
}

type eventsEnvelope struct {
	Events []model.Event `json:"events"`
}

type imagesEnvelope struct {
	Images []model.Image `json:"images"`
}

// FetchEvents lists events. A non-empty search narrows the list on the backend.
func (c *Client) FetchEvents(ctx context.Context, search string) ([]model.Event, error) {
	path := "/events"
	if search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}
	res, err := do(ctx, c, http.MethodGet, "/events", path, nil, eventsEnvelope{})
	if err != nil {
		return nil, wrap("FetchEvents", err)
	}
	if res.Events == nil {
		res.Events = []model.Event{}
	}
	return res.Events, nil
}

func (c *Client) FetchEvent(ctx context.Context, id string) (model.Event, error) {
	res, err := do(ctx, c, http.MethodGet, "/events/{id}", eventPath(id), nil, eventEnvelope{})
	if err != nil {
		return model.Event{}, wrap("FetchEvent", err)
	}
	return res.Event, nil
}

// CreateEvent stores ev and returns it with the ID the backend assigned.
func (c *Client) CreateEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	res, err := do(ctx, c, http.MethodPost, "/events", "/events", eventEnvelope{Event: ev}, eventEnvelope{Event: ev})
	if err != nil {
		return model.Event{}, wrap("CreateEvent", err)
	}
	return res.Event, nil
}

// UpdateEvent replaces the event id with ev. When the backend answers without
// a body the submitted event is returned.
func (c *Client) UpdateEvent(ctx context.Context, id string, ev model.Event) (model.Event, error) {
	ev.ID = id
	res, err := do(ctx, c, http.MethodPut, "/events/{id}", eventPath(id), eventEnvelope{Event: ev}, eventEnvelope{Event: ev})
	if err != nil {
		return model.Event{}, wrap("UpdateEvent", err)
	}
	return res.Event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	_, err := do(ctx, c, http.MethodDelete, "/events/{id}", eventPath(id), nil, struct{}{})
	return wrap("DeleteEvent", err)
}

// FetchSelectableImages lists the images an event may reference.
func (c *Client) FetchSelectableImages(ctx context.Context) ([]model.Image, error) {
	res, err := do(ctx, c, http.MethodGet, "/events/images", "/events/images", nil, imagesEnvelope{})
	if err != nil {
		return nil, wrap("FetchSelectableImages", err)
	}
	return res.Images, nil
}
