// internal/notification/service.go
package notification

import (
	"context"
	"fmt"

	domain "janmanch-client/internal/domain/notification"
	"janmanch-client/internal/httpclient"
	"janmanch-client/internal/store"

	"go.uber.org/zap"
)

// Service is the REST mirror of the notification feed. Fetch results and
// acknowledged mutations are applied to the shared store, the same one the
// realtime channel feeds, so both paths converge on one collection.
type Service struct {
	http   *httpclient.Client
	store  *store.NotificationStore
	logger *zap.Logger
}

func NewService(http *httpclient.Client, store *store.NotificationStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{http: http, store: store, logger: logger}
}

// List fetches a page of the feed. A first page (skip == 0) replaces the
// local collection; deeper pages are returned without touching it.
func (s *Service) List(ctx context.Context, limit, skip int, unreadOnly bool) ([]domain.Notification, error) {
	path := fmt.Sprintf("/notifications?limit=%d&skip=%d", limit, skip)
	if unreadOnly {
		path += "&unreadOnly=true"
	}

	var resp domain.ListResponse
	if err := s.http.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if skip == 0 && !unreadOnly {
		s.store.ReplaceAll(resp.Data)
	}
	return resp.Data, nil
}

// UnreadCount fetches the authoritative unread count.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	var resp domain.CountResponse
	if err := s.http.Get(ctx, "/notifications/unread/count", &resp); err != nil {
		return 0, err
	}
	return resp.Data.Count, nil
}

// MarkRead marks one notification read and applies the delta locally.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if err := s.http.Patch(ctx, "/notifications/"+id+"/read", nil, nil); err != nil {
		return err
	}
	s.store.MarkRead(id)
	return nil
}

// MarkAllRead marks the whole feed read.
func (s *Service) MarkAllRead(ctx context.Context) error {
	if err := s.http.Patch(ctx, "/notifications/read-all", nil, nil); err != nil {
		return err
	}
	s.store.MarkAllRead()
	return nil
}

// Delete removes one notification.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.http.Delete(ctx, "/notifications/"+id, nil, nil); err != nil {
		return err
	}
	s.store.Remove(id)
	return nil
}

// DeleteAll clears the feed.
func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.http.Delete(ctx, "/notifications", nil, nil); err != nil {
		return err
	}
	s.store.Clear()
	return nil
}
