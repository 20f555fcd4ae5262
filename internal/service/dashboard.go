package service

import (
	"context"
	"log/slog"
	"sync"

	"spacemarket/internal/model"
)

// DashboardService aggregates the sections of a user's dashboard
type DashboardService struct {
	users      *UserService
	properties *PropertyService
	messages   *MessageService
	logger     *slog.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(users *UserService, properties *PropertyService, messages *MessageService, logger *slog.Logger) *DashboardService {
	return &DashboardService{users: users, properties: properties, messages: messages, logger: logger}
}

// Load fetches the profile and then the three sections concurrently. A
// failing section carries its error and does not block the others.
func (s *DashboardService) Load(ctx context.Context, uid string) (*model.Dashboard, error) {
	user, err := s.users.Profile(ctx, uid)
	if err != nil {
		return nil, err
	}
	d := &model.Dashboard{User: user}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		resp, err := s.properties.Search(ctx, model.FilterCriteria{UserID: uid})
		if err != nil {
			d.Properties = failedSection[model.Property](s.logger, "properties", err)
			return
		}
		d.Properties.Items = resp.Results
	}()
	go func() {
		defer wg.Done()
		favorites, err := s.users.Favorites(ctx, uid)
		if err != nil {
			d.Favorites = failedSection[model.Property](s.logger, "favorites", err)
			return
		}
		d.Favorites.Items = favorites
	}()
	go func() {
		defer wg.Done()
		inbox, err := s.messages.Inbox(ctx, uid)
		if err != nil {
			d.Messages = failedSection[model.Message](s.logger, "messages", err)
			return
		}
		d.Messages.Items = inbox
		for _, m := range inbox {
			if !m.Read {
				d.Unread++
			}
		}
	}()
	wg.Wait()

	return d, nil
}

func failedSection[T any](logger *slog.Logger, name string, err error) model.Section[T] {
	logger.Warn("dashboard section failed", "section", name, "error", err)
	return model.Section[T]{Items: []T{}, Error: err.Error()}
}
