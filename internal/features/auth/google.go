package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/internal/features/user"
	"github.com/courseflow/courseflow-server/pkg/config"
)

// GoogleService exchanges Google authorization codes for local sessions.
type GoogleService struct {
	config *oauth2.Config
}

// NewGoogleService builds the OAuth client. Returns nil when the client ID is
// unset so callers can treat Google sign-in as optional.
func NewGoogleService(cfg config.GoogleOAuthConfig) *GoogleService {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}

	return &GoogleService{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				oauth2api.UserinfoEmailScope,
				oauth2api.UserinfoProfileScope,
			},
			Endpoint: google.Endpoint,
		},
	}
}

// AuthCodeURL returns the Google consent page URL for the given state.
func (s *GoogleService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Authenticate exchanges an authorization code, resolves the Google profile,
// and signs the matching local account in. Accounts are matched by Google ID
// first and then linked by email; unknown emails get a fresh student account.
func (s *GoogleService) Authenticate(ctx context.Context, db *gorm.DB, code string, cfg TokenConfig) (*AuthResponse, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleExchangeFailed, err)
	}

	client := s.config.Client(ctx, token)
	service, err := oauth2api.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create oauth2 service: %w", err)
	}

	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch google userinfo: %w", err)
	}

	if info.Email == "" {
		return nil, ErrInvalidEmail
	}

	usr, err := s.resolveUser(db, info)
	if err != nil {
		return nil, err
	}

	if !usr.Active {
		return nil, ErrInactiveAccount
	}

	return issueTokens(db, usr, cfg)
}

func (s *GoogleService) resolveUser(db *gorm.DB, info *oauth2api.Userinfo) (user.User, error) {
	usr, err := user.GetByGoogleID(db, info.Id)
	if err == nil {
		return usr, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return user.User{}, err
	}

	// Link an existing account by email.
	usr, err = user.GetByEmail(db, info.Email)
	if err == nil {
		if updateErr := db.Model(&user.User{}).
			Where("id = ?", usr.ID).
			Updates(map[string]interface{}{
				"google_id":      info.Id,
				"email_verified": true,
			}).Error; updateErr != nil {
			return user.User{}, updateErr
		}
		return user.Get(db, usr.ID)
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return user.User{}, err
	}

	fullName := info.Name
	if fullName == "" {
		fullName = info.Email
	}

	var avatar *string
	if info.Picture != "" {
		avatar = &info.Picture
	}

	googleID := info.Id
	// Google-only accounts still need a password column; nobody knows this one.
	randomPassword := uuid.NewString() + uuid.NewString()

	created, err := user.Create(db, user.CreateInput{
		FullName:  fullName,
		Email:     info.Email,
		Password:  randomPassword,
		UserType:  user.UserTypeStudent,
		AvatarURL: avatar,
		GoogleID:  &googleID,
	})
	if err != nil {
		return user.User{}, err
	}

	if err := db.Model(&user.User{}).
		Where("id = ?", created.ID).
		Update("email_verified", true).Error; err != nil {
		return user.User{}, err
	}

	return user.Get(db, created.ID)
}
