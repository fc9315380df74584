package service

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/iliyamo/openmusic-api/internal/apperror"
)

const minReleaseYear = 1900

var currentYear = func() int { return time.Now().UTC().Year() }

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return apperror.BadRequest(fmt.Sprintf("%s is required", field))
	}
	return nil
}

func lengthBetween(field, v string, lo, hi int) error {
	n := len([]rune(strings.TrimSpace(v)))
	if n < lo || (hi > 0 && n > hi) {
		if hi > 0 {
			return apperror.BadRequest(fmt.Sprintf("%s must be between %d and %d characters", field, lo, hi))
		}
		return apperror.BadRequest(fmt.Sprintf("%s must be at least %d characters", field, lo))
	}
	return nil
}

func releaseYear(year int) error {
	if year < minReleaseYear || year > currentYear() {
		return apperror.BadRequest(fmt.Sprintf("year must be between %d and %d", minReleaseYear, currentYear()))
	}
	return nil
}

func email(field, v string) error {
	if _, err := mail.ParseAddress(v); err != nil || !strings.Contains(v, "@") {
		return apperror.BadRequest(fmt.Sprintf("%s must be a valid email", field))
	}
	return nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
