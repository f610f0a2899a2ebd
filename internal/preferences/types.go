package preferences

import (
	"errors"
	"regexp"
	"time"
)

var (
	ErrInvalidAppearance = errors.New("appearance must be light, dark or system")
	ErrInvalidRegion     = errors.New("region must be an ISO 3166-1 alpha-2 code")
	ErrInvalidLanguage   = errors.New("language must look like en or en-US")
	ErrNoSession         = errors.New("no active session")
)

// Appearance is the front-end colour scheme.
type Appearance string

const (
	AppearanceLight  Appearance = "light"
	AppearanceDark   Appearance = "dark"
	AppearanceSystem Appearance = "system"
)

// Setting keys
const (
	KeyAppearance       = "pref_appearance"
	KeyRegion           = "pref_region"
	KeyLanguage         = "pref_language"
	KeyIncludeAdult     = "pref_include_adult"
	KeySessionToken     = "session_token"
	KeySessionCreatedAt = "session_created_at"
)

var (
	regionPattern   = regexp.MustCompile(`^[A-Z]{2}$`)
	languagePattern = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)
)

// Preferences are the viewer settings persisted for the front-end.
type Preferences struct {
	Appearance   Appearance `json:"appearance"`
	Region       string     `json:"region"`
	Language     string     `json:"language"`
	IncludeAdult bool       `json:"includeAdult"`
}

// Session is the stored session token.
type Session struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultPreferences returns the values used for anything never stored.
func DefaultPreferences() Preferences {
	return Preferences{
		Appearance:   AppearanceSystem,
		Region:       "US",
		Language:     "en-US",
		IncludeAdult: false,
	}
}

// ValidAppearance checks if a value is a valid Appearance option
func ValidAppearance(s string) bool {
	switch Appearance(s) {
	case AppearanceLight, AppearanceDark, AppearanceSystem:
		return true
	}
	return false
}

// Validate reports the first invalid field.
func (p Preferences) Validate() error {
	if !ValidAppearance(string(p.Appearance)) {
		return ErrInvalidAppearance
	}
	if !regionPattern.MatchString(p.Region) {
		return ErrInvalidRegion
	}
	if !languagePattern.MatchString(p.Language) {
		return ErrInvalidLanguage
	}
	return nil
}
