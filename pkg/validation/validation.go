package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxHabitNameLength = 200
	MaxCategoryLength  = 50
	MaxNotesLength     = 1000
)

// ValidateHabitName validates a habit name and returns it trimmed
func ValidateHabitName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("name is required")
	}

	if utf8.RuneCountInString(name) > MaxHabitNameLength {
		return "", fmt.Errorf("name is too long (max %d characters)", MaxHabitNameLength)
	}

	return name, nil
}

// ValidateCategory validates a category label and returns it trimmed.
// Categories are an open set: any non-empty label is accepted.
func ValidateCategory(category string) (string, error) {
	category = strings.TrimSpace(category)

	if category == "" {
		return "", fmt.Errorf("category is required")
	}

	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return "", fmt.Errorf("category is too long (max %d characters)", MaxCategoryLength)
	}

	return category, nil
}

// ValidateNotes validates optional check-in notes. Blank notes become nil.
func ValidateNotes(notes *string) (*string, error) {
	if notes == nil {
		return nil, nil
	}

	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil, nil
	}

	if utf8.RuneCountInString(trimmed) > MaxNotesLength {
		return nil, fmt.Errorf("notes are too long (max %d characters)", MaxNotesLength)
	}

	return &trimmed, nil
}

// ValidatePagination normalizes skip/limit query values
func ValidatePagination(skip, limit, defaultLimit, maxLimit int) (int, int, error) {
	if skip < 0 {
		return 0, 0, fmt.Errorf("skip must not be negative")
	}

	if limit < 0 {
		return 0, 0, fmt.Errorf("limit must not be negative")
	}

	if limit == 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return skip, limit, nil
}
