package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/codyseavey/card-grader/internal/models"
)

// ErrUnknownSetting is returned by Toggle for a name that is not a boolean setting.
var ErrUnknownSetting = errors.New("unknown setting")

// SettingsStore persists settings.
type SettingsStore interface {
	LoadSettings(ctx context.Context) models.Settings
	SaveSettings(ctx context.Context, settings models.Settings) error
}

// SettingsService holds the current settings and writes them through after
// every change.
type SettingsService struct {
	store SettingsStore

	mu      sync.Mutex
	current models.Settings
}

func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{
		store:   store,
		current: models.DefaultSettings(),
	}
}

// Load replaces the in-memory settings with the persisted ones.
func (s *SettingsService) Load(ctx context.Context) models.Settings {
	loaded := s.store.LoadSettings(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = loaded
	return loaded
}

func (s *SettingsService) Current() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *SettingsService) ToggleDarkMode(ctx context.Context) (models.Settings, error) {
	return s.mutate(ctx, func(st *models.Settings) { st.DarkMode = !st.DarkMode })
}

func (s *SettingsService) ToggleNotifications(ctx context.Context) (models.Settings, error) {
	return s.mutate(ctx, func(st *models.Settings) { st.Notifications = !st.Notifications })
}

func (s *SettingsService) ToggleOfflineMode(ctx context.Context) (models.Settings, error) {
	return s.mutate(ctx, func(st *models.Settings) { st.OfflineMode = !st.OfflineMode })
}

// Toggle flips a setting by its JSON name (darkMode, notifications, offlineMode).
func (s *SettingsService) Toggle(ctx context.Context, name string) (models.Settings, error) {
	switch name {
	case "darkMode":
		return s.ToggleDarkMode(ctx)
	case "notifications":
		return s.ToggleNotifications(ctx)
	case "offlineMode":
		return s.ToggleOfflineMode(ctx)
	default:
		return s.Current(), fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}
}

// Update replaces all settings at once.
func (s *SettingsService) Update(ctx context.Context, settings models.Settings) (models.Settings, error) {
	return s.mutate(ctx, func(st *models.Settings) { *st = settings })
}

// mutate applies fn and persists the result. On a failed save the previous
// value is restored.
func (s *SettingsService) mutate(ctx context.Context, fn func(*models.Settings)) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	fn(&next)

	if err := s.store.SaveSettings(ctx, next); err != nil {
		log.Printf("Settings: save failed, keeping previous settings: %v", err)
		return s.current, err
	}

	s.current = next
	return next, nil
}
