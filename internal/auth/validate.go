package auth

import (
	"net/mail"
	"strings"

	"github.com/impactlens/impact-backend/internal/apperr"
)

const (
	MinSignUpPasswordLen = 6
	MinResetPasswordLen  = 12
)

// validateEmail runs before any network call; a rejection here means the
// provider is never contacted.
func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("email", "email is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.Validation("email", "invalid email address")
	}

	// mail.ParseAddress accepts local domains; the app never does.
	at := strings.LastIndex(email, "@")
	if at < 0 || !strings.Contains(email[at+1:], ".") {
		return apperr.Validation("email", "invalid email address")
	}
	return nil
}

func validateSignUpPassword(password string) error {
	if len(password) < MinSignUpPasswordLen {
		return apperr.Validation("password", "password must be at least 6 characters")
	}
	return nil
}

func validateNewPassword(password, confirm string) error {
	if password != confirm {
		return apperr.Validation("password", "passwords do not match")
	}
	if len(password) < MinResetPasswordLen {
		return apperr.Validation("password", "password must be at least 12 characters")
	}
	return nil
}

// safeNext keeps callback redirects on-site: only relative paths pass.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return fallback
	}
	return next
}
