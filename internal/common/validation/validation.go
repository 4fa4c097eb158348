package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxDisplayNameLength = 64
	MaxDescriptionLength = 200
	MaxMessageLength     = 4096

	// Instagram allows 30, TikTok 24
	MaxSocialUsernameLength = 30
)

var (
	socialUsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._]+$`)
	numericIDRegex      = regexp.MustCompile(`^\d{1,12}$`)
)

// ValidateDisplayName checks a display name set from the dashboard.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("display name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return fmt.Errorf("display name cannot exceed %d characters", MaxDisplayNameLength)
	}
	return nil
}

// ValidateDescription checks a command description.
func ValidateDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("description cannot be empty")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("description cannot exceed %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidateMessageText checks text the bot is asked to send.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if len(text) > MaxMessageLength {
		return fmt.Errorf("text cannot exceed %d bytes", MaxMessageLength)
	}
	return nil
}

// NormalizeSocialUsername strips a leading @ and checks the Instagram/TikTok
// username alphabet.
func NormalizeSocialUsername(username string) (string, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return "", fmt.Errorf("username cannot be empty")
	}
	if len(username) > MaxSocialUsernameLength {
		return "", fmt.Errorf("username cannot exceed %d characters", MaxSocialUsernameLength)
	}
	if !socialUsernameRegex.MatchString(username) {
		return "", fmt.Errorf("username must contain only letters, numbers, dots and underscores")
	}
	return username, nil
}

// ValidateGameAccount checks a numeric player id and server id pair.
func ValidateGameAccount(userID, serverID string) error {
	if !numericIDRegex.MatchString(userID) {
		return fmt.Errorf("user id must be numeric")
	}
	if !numericIDRegex.MatchString(serverID) {
		return fmt.Errorf("server id must be numeric")
	}
	return nil
}

func ValidateNonNegativeInt(value int64, fieldName string) error {
	if value < 0 {
		return fmt.Errorf("%s cannot be negative", fieldName)
	}
	return nil
}
