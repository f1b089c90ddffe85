package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gatekeeper/internal/logger"
	"gatekeeper/internal/media"
	"gatekeeper/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("event not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotHost         = errors.New("user is not the event host")
)

type DBLayer interface {
	CreateEvent(ctx context.Context, event models.Event) error
	GetEventByID(ctx context.Context, eventID string) (*models.Event, error)
	UpdateEvent(ctx context.Context, event models.Event) error
	ListPublicEvents(ctx context.Context) ([]models.Event, error)
	ListEventsByHost(ctx context.Context, hostID string) ([]models.Event, error)
}

type EventService struct {
	DB     DBLayer
	Media  media.Uploader
	Logger *logger.Logger
}

func NewEventService(db DBLayer, uploader media.Uploader, log *logger.Logger) *EventService {
	return &EventService{DB: db, Media: uploader, Logger: log}
}

func (s *EventService) CreateEvent(ctx context.Context, hostID string, event models.Event) (*models.Event, error) {
	if event.Title == "" {
		return nil, fmt.Errorf("event title is required: %w", ErrInvalidArgument)
	}
	if event.EndDate.Before(event.StartDate) {
		return nil, fmt.Errorf("event ends before it starts: %w", ErrInvalidArgument)
	}

	event.ID = uuid.NewString()
	event.HostID = hostID
	event.CreatedAt = time.Now()

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.Logger.Info("EVENTS", fmt.Sprintf("Created event %s (%s) for host %s", event.ID, event.Title, hostID))
	return &event, nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch event %s: %w", eventID, err)
	}
	return event, nil
}

// UpdateEvent applies host edits. Events are never deleted; hosts take
// them off the discovery feed by flipping Public.
func (s *EventService) UpdateEvent(ctx context.Context, hostID, eventID string, update models.Event) (*models.Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.HostID != hostID {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotHost)
	}

	if update.Title != "" {
		event.Title = update.Title
	}
	if update.Description != "" {
		event.Description = update.Description
	}
	if update.Location != "" {
		event.Location = update.Location
	}
	if !update.StartDate.IsZero() {
		event.StartDate = update.StartDate
	}
	if !update.EndDate.IsZero() {
		event.EndDate = update.EndDate
	}
	if event.EndDate.Before(event.StartDate) {
		return nil, fmt.Errorf("event ends before it starts: %w", ErrInvalidArgument)
	}
	event.Public = update.Public
	event.UpdatedAt = time.Now()

	if err := s.DB.UpdateEvent(ctx, *event); err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", eventID, err)
	}

	s.Logger.Info("EVENTS", fmt.Sprintf("Updated event %s", eventID))
	return event, nil
}

func (s *EventService) ListPublicEvents(ctx context.Context) ([]models.Event, error) {
	eventsList, err := s.DB.ListPublicEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return eventsList, nil
}

func (s *EventService) ListEventsByHost(ctx context.Context, hostID string) ([]models.Event, error) {
	eventsList, err := s.DB.ListEventsByHost(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for host %s: %w", hostID, err)
	}
	return eventsList, nil
}

// UploadPoster stores a poster image and pins its URL on the event.
func (s *EventService) UploadPoster(ctx context.Context, hostID, eventID string, data []byte, contentType string) (string, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return "", err
	}
	if event.HostID != hostID {
		return "", fmt.Errorf("event %s: %w", eventID, ErrNotHost)
	}

	url, err := s.Media.Upload(ctx, data, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload poster: %w", err)
	}

	event.PosterURL = url
	event.UpdatedAt = time.Now()
	if err := s.DB.UpdateEvent(ctx, *event); err != nil {
		return "", fmt.Errorf("failed to save poster URL: %w", err)
	}

	return url, nil
}
