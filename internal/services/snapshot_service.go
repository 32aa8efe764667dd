package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/codyseavey/card-grader/internal/collection"
	"github.com/codyseavey/card-grader/internal/models"
)

// CollectionSource exposes the latest committed collection.
type CollectionSource interface {
	Snapshot() collection.State
}

// SnapshotService records the collection value once a day
type SnapshotService struct {
	db     *gorm.DB
	source CollectionSource
	now    func() time.Time

	mu            sync.RWMutex
	lastSnapshot  time.Time
	snapshotHour  int // Hour of day to take snapshot (0-23)
	checkInterval time.Duration
}

// NewSnapshotService creates a snapshot service that records at or after snapshotHour.
func NewSnapshotService(db *gorm.DB, source CollectionSource, snapshotHour int) *SnapshotService {
	return &SnapshotService{
		db:            db,
		source:        source,
		now:           time.Now,
		snapshotHour:  snapshotHour,
		checkInterval: 15 * time.Minute,
	}
}

// Start begins the background snapshot worker
func (s *SnapshotService) Start(ctx context.Context) {
	log.Printf("Snapshot service started: will record daily collection value after %02d:00", s.snapshotHour)

	s.checkAndSnapshot()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Snapshot service stopping...")
			return
		case <-ticker.C:
			s.checkAndSnapshot()
		}
	}
}

func (s *SnapshotService) checkAndSnapshot() {
	now := s.now()
	if now.Hour() < s.snapshotHour {
		return
	}
	if s.hasSnapshotForDate(now) {
		return
	}
	if err := s.TakeSnapshot(); err != nil {
		log.Printf("Snapshot service: failed to take snapshot: %v", err)
	}
}

func (s *SnapshotService) hasSnapshotForDate(date time.Time) bool {
	dayStart := startOfDay(date)
	dayEnd := dayStart.Add(24 * time.Hour)

	var count int64
	s.db.Model(&models.CollectionValueSnapshot{}).
		Where("snapshot_date >= ? AND snapshot_date < ?", dayStart, dayEnd).
		Count(&count)

	return count > 0
}

// TakeSnapshot records the current collection value for today, replacing any
// earlier snapshot of the same day.
func (s *SnapshotService) TakeSnapshot() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	snapshotDate := startOfDay(now)
	st := s.source.Snapshot()

	snapshot := models.CollectionValueSnapshot{
		SnapshotDate: snapshotDate,
		TotalCards:   st.TotalCount(),
		UniqueCards:  st.UniqueCount(),
		TotalValue:   st.TotalValueFloat(),
		CreatedAt:    now,
	}

	result := s.db.Where("snapshot_date = ?", snapshotDate).
		Assign(models.CollectionValueSnapshot{
			TotalCards:  snapshot.TotalCards,
			UniqueCards: snapshot.UniqueCards,
			TotalValue:  snapshot.TotalValue,
		}).
		FirstOrCreate(&snapshot)
	if result.Error != nil {
		return result.Error
	}

	s.lastSnapshot = now
	log.Printf("Snapshot service: recorded value snapshot for %s (total: $%.2f, cards: %d)",
		snapshotDate.Format("2006-01-02"), snapshot.TotalValue, snapshot.TotalCards)

	return nil
}

// GetHistory returns snapshots for week, month, 3month, year or all.
// Unknown periods fall back to one month.
func (s *SnapshotService) GetHistory(period string) ([]models.CollectionValueSnapshot, error) {
	now := s.now()
	var startDate time.Time

	switch period {
	case "week":
		startDate = now.AddDate(0, 0, -7)
	case "month":
		startDate = now.AddDate(0, -1, 0)
	case "3month":
		startDate = now.AddDate(0, -3, 0)
	case "year":
		startDate = now.AddDate(-1, 0, 0)
	case "all":
	default:
		startDate = now.AddDate(0, -1, 0)
	}

	snapshots := []models.CollectionValueSnapshot{}
	query := s.db.Order("snapshot_date ASC")
	if !startDate.IsZero() {
		query = query.Where("snapshot_date >= ?", startOfDay(startDate))
	}
	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}

	return snapshots, nil
}

// GetLastSnapshot returns the most recent snapshot, or nil if none exist.
func (s *SnapshotService) GetLastSnapshot() *models.CollectionValueSnapshot {
	var snapshot models.CollectionValueSnapshot
	if err := s.db.Order("snapshot_date DESC").First(&snapshot).Error; err != nil {
		return nil
	}
	return &snapshot
}

// LastSnapshotTime reports when this process last recorded a snapshot.
func (s *SnapshotService) LastSnapshotTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSnapshot
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
