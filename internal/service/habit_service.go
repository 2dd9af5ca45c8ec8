package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habit-hero/internal/analytics"
	"habit-hero/internal/domain/apperrors"
	"habit-hero/internal/domain/entity"
	"habit-hero/internal/domain/repository"
	"habit-hero/internal/domain/service"
	"habit-hero/pkg/civil"
	"habit-hero/pkg/validation"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500

	// Check-ins may be dated one day past "today" to absorb clients in zones ahead of
	// the service's configured zone.
	futureSlackDays = 1

	// Page size used when scanning every habit.
	scanPageSize = 200
)

type habitService struct {
	habitRepo   repository.HabitRepository
	checkInRepo repository.CheckInRepository
	locker      service.HabitLocker
	publisher   service.EventPublisher
	logger      *log.Logger

	now          func() time.Time
	location     *time.Location
	defaultLimit int
	maxLimit     int
}

// Option configures a habit service
type Option func(*habitService)

// WithClock replaces time.Now. Tests use it to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *habitService) { s.now = now }
}

// WithLocation sets the time zone that decides the calendar day
func WithLocation(loc *time.Location) Option {
	return func(s *habitService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLocker replaces the in-process habit locker
func WithLocker(locker service.HabitLocker) Option {
	return func(s *habitService) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithPublisher sets where domain events go. Without one events are dropped.
func WithPublisher(publisher service.EventPublisher) Option {
	return func(s *habitService) { s.publisher = publisher }
}

// WithPageLimits sets the default and maximum page size of ListHabits
func WithPageLimits(defaultLimit, maxLimit int) Option {
	return func(s *habitService) {
		if defaultLimit > 0 && maxLimit >= defaultLimit {
			s.defaultLimit = defaultLimit
			s.maxLimit = maxLimit
		}
	}
}

// NewHabitService creates a new habit service
func NewHabitService(
	habitRepo repository.HabitRepository,
	checkInRepo repository.CheckInRepository,
	logger *log.Logger,
	opts ...Option,
) service.HabitService {
	s := &habitService{
		habitRepo:    habitRepo,
		checkInRepo:  checkInRepo,
		locker:       NewLocalLocker(),
		logger:       logger.With("component", "habit-service"),
		now:          time.Now,
		location:     time.UTC,
		defaultLimit: defaultPageLimit,
		maxLimit:     maxPageLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *habitService) today() civil.Date {
	return civil.Today(s.now(), s.location)
}

func (s *habitService) CreateHabit(ctx context.Context, in service.CreateHabitInput) (*entity.Habit, error) {
	name, err := validation.ValidateHabitName(in.Name)
	if err != nil {
		return nil, apperrors.Validationf("%v", err)
	}

	category, err := validation.ValidateCategory(in.Category)
	if err != nil {
		return nil, apperrors.Validationf("%v", err)
	}

	frequency, err := entity.ParseFrequency(in.Frequency)
	if err != nil {
		return nil, apperrors.Validationf("%v", err)
	}

	startDate := s.today()
	if in.StartDate != nil {
		startDate = *in.StartDate
	}

	now := s.now().UTC()
	habit := &entity.Habit{
		ID:        uuid.New(),
		Name:      name,
		Category:  entity.Category(category),
		Frequency: frequency,
		StartDate: startDate,
		CheckIns:  make([]entity.CheckIn, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.habitRepo.Create(ctx, habit); err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	s.logger.Info("habit created", "habit_id", habit.ID, "frequency", habit.Frequency)
	if !habit.Category.IsKnown() {
		s.logger.Debug("habit uses a custom category", "habit_id", habit.ID, "category", habit.Category)
	}
	s.publish(ctx, entity.NewEvent(entity.EventHabitCreated, habit.ID, now, map[string]any{
		"name":           habit.Name,
		"category":       string(habit.Category),
		"known_category": habit.Category.IsKnown(),
		"frequency":      string(habit.Frequency),
		"start_date":     habit.StartDate.String(),
	}))

	return habit, nil
}

func (s *habitService) GetHabit(ctx context.Context, habitID uuid.UUID) (*entity.Habit, error) {
	return s.habitRepo.GetByID(ctx, habitID)
}

func (s *habitService) ListHabits(ctx context.Context, skip, limit int) ([]*entity.Habit, error) {
	skip, limit, err := validation.ValidatePagination(skip, limit, s.defaultLimit, s.maxLimit)
	if err != nil {
		return nil, apperrors.Validationf("%v", err)
	}

	return s.habitRepo.List(ctx, skip, limit)
}

func (s *habitService) UpdateHabit(ctx context.Context, habitID uuid.UUID, in service.UpdateHabitInput) (*entity.Habit, error) {
	changes := make(map[string]any)

	var name, category string
	var frequency entity.Frequency
	var err error

	if in.Name != nil {
		if name, err = validation.ValidateHabitName(*in.Name); err != nil {
			return nil, apperrors.Validationf("%v", err)
		}
	}
	if in.Category != nil {
		if category, err = validation.ValidateCategory(*in.Category); err != nil {
			return nil, apperrors.Validationf("%v", err)
		}
	}
	if in.Frequency != nil {
		if frequency, err = entity.ParseFrequency(*in.Frequency); err != nil {
			return nil, apperrors.Validationf("%v", err)
		}
	}

	unlock, err := s.lock(ctx, habitID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && name != habit.Name {
		habit.Name = name
		changes["name"] = name
	}
	if in.Category != nil && entity.Category(category) != habit.Category {
		habit.Category = entity.Category(category)
		changes["category"] = category
		changes["known_category"] = habit.Category.IsKnown()
	}
	// A new frequency only affects the next streak computation; existing check-ins are
	// kept as they are.
	if in.Frequency != nil && frequency != habit.Frequency {
		habit.Frequency = frequency
		changes["frequency"] = string(frequency)
	}

	if len(changes) == 0 {
		return habit, nil
	}

	now := s.now().UTC()
	habit.UpdatedAt = now

	if err := s.habitRepo.Update(ctx, habit); err != nil {
		return nil, fmt.Errorf("failed to update habit: %w", err)
	}

	s.logger.Info("habit updated", "habit_id", habit.ID, "fields", len(changes))
	s.publish(ctx, entity.NewEvent(entity.EventHabitUpdated, habit.ID, now, changes))

	return habit, nil
}

func (s *habitService) DeleteHabit(ctx context.Context, habitID uuid.UUID) error {
	unlock, err := s.lock(ctx, habitID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.habitRepo.Delete(ctx, habitID); err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	s.logger.Info("habit deleted", "habit_id", habitID)
	s.publish(ctx, entity.NewEvent(entity.EventHabitDeleted, habitID, s.now(), nil))

	return nil
}

func (s *habitService) CheckIn(ctx context.Context, habitID uuid.UUID, in service.CheckInInput) (*entity.CheckIn, error) {
	notes, err := validation.ValidateNotes(in.Notes)
	if err != nil {
		return nil, apperrors.Validationf("%v", err)
	}

	unlock, err := s.lock(ctx, habitID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	date := today
	if in.Date != nil {
		date = *in.Date
	}

	if date.Before(habit.StartDate) {
		return nil, apperrors.Validationf("check-in date %s is before the habit start date %s", date, habit.StartDate)
	}
	if latest := today.AddDays(futureSlackDays); date.After(latest) {
		return nil, apperrors.Validationf("check-in date %s is in the future", date)
	}
	if habit.HasCheckInOn(date) {
		return nil, apperrors.Conflictf("habit %s already has a check-in on %s", habitID, date)
	}

	now := s.now().UTC()
	checkIn := &entity.CheckIn{
		ID:        uuid.New(),
		HabitID:   habitID,
		Date:      date,
		Notes:     notes,
		CreatedAt: now,
	}

	// The store enforces uniqueness again, for writers on other instances.
	if err := s.checkInRepo.Create(ctx, checkIn); err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}

	habit.CheckIns = append(habit.CheckIns, *checkIn)
	streak := analytics.CurrentStreak(*habit, today)

	s.logger.Info("check-in recorded", "habit_id", habitID, "date", date, "streak", streak)
	s.publish(ctx, entity.NewEvent(entity.EventCheckInAdded, habitID, now, map[string]any{
		"date":           date.String(),
		"current_streak": streak,
	}))

	return checkIn, nil
}

func (s *habitService) RemoveCheckIn(ctx context.Context, habitID uuid.UUID, date civil.Date) error {
	if date.IsZero() {
		return apperrors.Validationf("date is required")
	}

	unlock, err := s.lock(ctx, habitID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.checkInRepo.Delete(ctx, habitID, date); err != nil {
		return fmt.Errorf("failed to remove check-in: %w", err)
	}

	s.logger.Info("check-in removed", "habit_id", habitID, "date", date)
	s.publish(ctx, entity.NewEvent(entity.EventCheckInRemoved, habitID, s.now(), map[string]any{
		"date": date.String(),
	}))

	return nil
}

func (s *habitService) GetStreak(ctx context.Context, habitID uuid.UUID) (analytics.Stats, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return analytics.Stats{}, err
	}

	return analytics.Compute(*habit, s.today()), nil
}

func (s *habitService) GetSummary(ctx context.Context, habitID uuid.UUID) (*service.HabitSummary, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	return &service.HabitSummary{
		Habit: habit,
		Stats: analytics.Compute(*habit, today),
		AsOf:  today,
	}, nil
}

func (s *habitService) GetCalendar(ctx context.Context, habitID uuid.UUID, year int, month time.Month) (analytics.MonthCalendar, error) {
	if month < time.January || month > time.December {
		return analytics.MonthCalendar{}, apperrors.Validationf("month must be between 1 and 12, got %d", month)
	}
	if year < 1 || year > 9999 {
		return analytics.MonthCalendar{}, apperrors.Validationf("year must be between 1 and 9999, got %d", year)
	}

	first, last := civil.MonthRange(civil.New(year, month, 1))
	checkIns, err := s.checkInRepo.ListBetween(ctx, habitID, first, last)
	if err != nil {
		return analytics.MonthCalendar{}, err
	}

	return analytics.Calendar(entity.Habit{ID: habitID, CheckIns: checkIns}, year, month), nil
}

func (s *habitService) DetectBrokenStreaks(ctx context.Context) ([]service.BrokenStreak, error) {
	today := s.today()
	yesterday := today.AddDays(-1)

	var broken []service.BrokenStreak
	for offset := 0; ; offset += scanPageSize {
		habits, err := s.habitRepo.List(ctx, offset, scanPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list habits: %w", err)
		}

		for _, habit := range habits {
			before := analytics.Compute(*habit, yesterday)
			if before.CurrentStreak == 0 || analytics.CurrentStreak(*habit, today) > 0 {
				continue
			}

			b := service.BrokenStreak{
				HabitID:        habit.ID,
				Name:           habit.Name,
				PreviousStreak: before.CurrentStreak,
			}
			if before.LastCheckIn != nil {
				b.LastCheckIn = *before.LastCheckIn
			}
			broken = append(broken, b)
		}

		if len(habits) < scanPageSize {
			break
		}
	}

	if len(broken) == 0 {
		return broken, nil
	}

	events := make([]entity.Event, 0, len(broken))
	for _, b := range broken {
		events = append(events, entity.NewEvent(entity.EventStreakBroken, b.HabitID, s.now(), map[string]any{
			"previous_streak": b.PreviousStreak,
			"last_check_in":   b.LastCheckIn.String(),
			"date":            today.String(),
		}))
	}
	s.publish(ctx, events...)

	return broken, nil
}

func (s *habitService) Ping(ctx context.Context) error {
	return s.habitRepo.Ping(ctx)
}

func (s *habitService) lock(ctx context.Context, habitID uuid.UUID) (func(), error) {
	unlock, err := s.locker.Lock(ctx, habitID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.Unavailable("failed to lock habit", err)
	}
	return unlock, nil
}

// publish delivers events best effort; a broken event pipeline never fails a mutation
// that has already been stored.
func (s *habitService) publish(ctx context.Context, events ...entity.Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish events", "count", len(events), "type", events[0].Type, "err", err)
	}
}
