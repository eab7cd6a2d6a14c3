package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/activity-coach/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("chat_role", validateChatRole); err != nil {
		panic(fmt.Sprintf("failed to register chat_role validator: %v", err))
	}
	if err := Validate.RegisterValidation("period_type", validatePeriodType); err != nil {
		panic(fmt.Sprintf("failed to register period_type validator: %v", err))
	}
}

// validateChatRole validates that a string is a valid ChatRole enum value
func validateChatRole(fl validator.FieldLevel) bool {
	switch models.ChatRole(fl.Field().String()) {
	case models.ChatRoleUser, models.ChatRoleAI:
		return true
	default:
		return false
	}
}

// validatePeriodType validates that a string is a valid insight period type
func validatePeriodType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.PeriodTypeChat, models.PeriodTypeWeekly:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
