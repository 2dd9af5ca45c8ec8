package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"habit-hero/internal/analytics"
	"habit-hero/internal/domain/service"
	"habit-hero/pkg/civil"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// HabitHandler handles habit-related HTTP requests
type HabitHandler struct {
	habitService service.HabitService
	location     *time.Location
	now          func() time.Time
	logger       *log.Logger
}

// NewHabitHandler creates a new habit handler. location decides the default
// month of the calendar endpoint.
func NewHabitHandler(habitService service.HabitService, location *time.Location, logger *log.Logger) *HabitHandler {
	if location == nil {
		location = time.UTC
	}
	return &HabitHandler{
		habitService: habitService,
		location:     location,
		now:          time.Now,
		logger:       logger.With("component", "http"),
	}
}

type createHabitRequest struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Frequency string  `json:"frequency"`
	StartDate *string `json:"start_date"`
}

type updateHabitRequest struct {
	Name      *string `json:"name"`
	Category  *string `json:"category"`
	Frequency *string `json:"frequency"`
}

type checkInRequest struct {
	Date  *string `json:"date"`
	Notes *string `json:"notes"`
}

// StreakResponse is the body of the streak endpoint
type StreakResponse struct {
	HabitID uuid.UUID `json:"habit_id"`
	analytics.Stats
}

// Root returns the API banner
func (h *HabitHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"project": "Habit Hero API"})
}

// Health reports whether the store is reachable
func (h *HabitHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.habitService.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", "err", err)
		writeJSON(w, h.logger, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateHabit handles habit creation
func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	in := service.CreateHabitInput{
		Name:      req.Name,
		Category:  req.Category,
		Frequency: req.Frequency,
	}
	if req.StartDate != nil {
		startDate, err := parseDate("start_date", *req.StartDate)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		in.StartDate = &startDate
	}

	habit, err := h.habitService.CreateHabit(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, habit)
}

// ListHabits returns habits in creation order, paged by skip and limit
func (h *HabitHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip")
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	habits, err := h.habitService.ListHabits(r.Context(), skip, limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, habits)
}

// GetHabit returns a habit with its check-ins
func (h *HabitHandler) GetHabit(w http.ResponseWriter, r *http.Request) {
	habitID, ok := h.habitID(w, r)
	if !ok {
		return
	}

	habit, err := h.habitService.GetHabit(r.Context(), habitID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, habit)
}

// UpdateHabit applies a partial update; PUT and PATCH behave the same
func (h *HabitHandler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	habitID, ok := h.habitID(w, r)
	if !ok {
		return
	}

	var req updateHabitRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	habit, err := h.habitService.UpdateHabit(r.Context(), habitID, service.UpdateHabitInput{
		Name:      req.Name,
		Category:  req.Category,
		Frequency: req.Frequency,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, habit)
}

// DeleteHabit removes a habit and its history
func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	habitID, ok := h.habitID(w, r)
	if !ok {
		return
	}

	if err := h.habitService.DeleteHabit(r.Context(), habitID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckIn records a completion. The body is optional; the date defaults to today.
func (h *HabitHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	habitID, ok := h.habitID(w, r)
	if !ok {
		return
	}

	var req checkInRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	in := service.CheckInInput{Notes: req.Notes}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		in.Date = &date
	}

	checkIn, err := h.habitService.CheckIn(r.Context(), habitID, in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, checkIn)
}

// RemoveCheckIn deletes the check-in of the date in the path
func (h *HabitHandler) RemoveCheckIn(w http.ResponseWriter, r *http.Request) {
	habitID, ok := h.habitID(w, r)
	if !ok {
		return
	}

	date, err := parseDate("date", r.PathValue("date"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.habitService.RemoveCheckIn(r.Context(), habitID, date); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStreak returns the streak statistics of a habit as of today
func (h *HabitHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	habitID, ok := h.habitID(w, r)
	if !ok {
		return
	}

	stats, err := h.habitService.GetStreak(r.Context(), habitID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, StreakResponse{HabitID: habitID, Stats: stats})
}

// GetSummary returns a habit together with its statistics
func (h *HabitHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	habitID, ok := h.habitID(w, r)
	if !ok {
		return
	}

	summary, err := h.habitService.GetSummary(r.Context(), habitID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, summary)
}

// GetCalendar returns the completed days of ?month=YYYY-MM, the current month by default
func (h *HabitHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	habitID, ok := h.habitID(w, r)
	if !ok {
		return
	}

	month := civil.Today(h.now(), h.location).FirstOfMonth()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := civil.ParseMonth(raw)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("invalid month %q: expected YYYY-MM", raw))
			return
		}
		month = parsed
	}

	calendar, err := h.habitService.GetCalendar(r.Context(), habitID, month.Year(), month.Month())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, calendar)
}

func (h *HabitHandler) habitID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	habitID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("invalid habit id %q", raw))
		return uuid.Nil, false
	}
	return habitID, true
}

func parseDate(field, raw string) (civil.Date, error) {
	date, err := civil.Parse(raw)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", field, raw)
	}
	return date, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}
