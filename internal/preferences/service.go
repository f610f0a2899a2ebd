package preferences

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinescope/cinescope/internal/database"
)

const boolTrue = "true"

// Store is the key/value persistence the preferences live in.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, key string) error
}

type Service struct {
	store  Store
	logger zerolog.Logger
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "preferences").Logger(),
	}
}

// Get returns the stored preferences, filling in defaults for missing or
// invalid values.
func (s *Service) Get(ctx context.Context) (*Preferences, error) {
	prefs := DefaultPreferences()

	val, err := s.getString(ctx, KeyAppearance)
	if err != nil {
		return nil, err
	}
	if ValidAppearance(val) {
		prefs.Appearance = Appearance(val)
	}

	val, err = s.getString(ctx, KeyRegion)
	if err != nil {
		return nil, err
	}
	if regionPattern.MatchString(val) {
		prefs.Region = val
	}

	val, err = s.getString(ctx, KeyLanguage)
	if err != nil {
		return nil, err
	}
	if languagePattern.MatchString(val) {
		prefs.Language = val
	}

	val, err = s.getString(ctx, KeyIncludeAdult)
	if err != nil {
		return nil, err
	}
	if val != "" {
		prefs.IncludeAdult = val == boolTrue
	}

	return &prefs, nil
}

// Set validates and stores all preferences.
func (s *Service) Set(ctx context.Context, prefs Preferences) error {
	prefs.Region = strings.ToUpper(prefs.Region)
	if err := prefs.Validate(); err != nil {
		return err
	}

	values := map[string]string{
		KeyAppearance:   string(prefs.Appearance),
		KeyRegion:       prefs.Region,
		KeyLanguage:     prefs.Language,
		KeyIncludeAdult: strconv.FormatBool(prefs.IncludeAdult),
	}
	if err := s.store.SetMany(ctx, values); err != nil {
		return err
	}

	s.logger.Info().
		Str("appearance", string(prefs.Appearance)).
		Str("region", prefs.Region).
		Str("language", prefs.Language).
		Bool("includeAdult", prefs.IncludeAdult).
		Msg("Preferences updated")
	return nil
}

// Session returns the active session, or ErrNoSession.
func (s *Service) Session(ctx context.Context) (*Session, error) {
	token, err := s.getString(ctx, KeySessionToken)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoSession
	}

	session := &Session{Token: token}
	if created, err := s.getString(ctx, KeySessionCreatedAt); err == nil && created != "" {
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			session.CreatedAt = t
		}
	}
	return session, nil
}

// NewSession replaces any existing session with a fresh random token.
func (s *Service) NewSession(ctx context.Context) (*Session, error) {
	session := &Session{
		Token:     uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	err := s.store.SetMany(ctx, map[string]string{
		KeySessionToken:     session.Token,
		KeySessionCreatedAt: session.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Msg("Session created")
	return session, nil
}

// ClearSession removes the stored session.
func (s *Service) ClearSession(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeySessionToken); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, KeySessionCreatedAt); err != nil {
		return err
	}
	s.logger.Info().Msg("Session cleared")
	return nil
}

// getString returns "" for keys that were never stored.
func (s *Service) getString(ctx context.Context, key string) (string, error) {
	val, err := s.store.Get(ctx, key)
	if errors.Is(err, database.ErrSettingNotFound) {
		return "", nil
	}
	return val, err
}
