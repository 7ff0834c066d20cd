package services

import (
	"context"
	"log"
	"strings"
	"time"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
	"elitetransport-backend/internal/repositories"
	"elitetransport-backend/pkg/database"

	"go.opentelemetry.io/otel"
)

// UserRepositoryAuth defines the user lookups and mutations AuthService needs.
type UserRepositoryAuth interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	AttachGoogleID(ctx context.Context, userID int64, googleID, pictureURL string) error
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
}

// SessionRepositoryAuth defines the session persistence AuthService needs.
type SessionRepositoryAuth interface {
	Create(ctx context.Context, s *models.AuthSession) error
	GetValid(ctx context.Context, token string) (*models.AuthSession, error)
}

// PassengerRepositoryAuth defines the seed-passenger insert AuthService needs
// on email and Google sign-up.
type PassengerRepositoryAuth interface {
	Create(ctx context.Context, exec repositories.Executor, p *models.Passenger) (*models.Passenger, error)
}

// AuthService implements password and federated sign-in, session issuance
// and verification, and the administrator allow-list check.
type AuthService struct {
	db            *database.DB
	userRepo      UserRepositoryAuth
	sessionRepo   SessionRepositoryAuth
	passengerRepo PassengerRepositoryAuth
	sessionTTL    time.Duration
	adminEmails   map[string]bool
	tracerName    string
}

func NewAuthService(db *database.DB, userRepo UserRepositoryAuth, sessionRepo SessionRepositoryAuth,
	passengerRepo PassengerRepositoryAuth, sessionTTL time.Duration, adminEmails []string) *AuthService {
	allow := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		allow[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return &AuthService{
		db: db, userRepo: userRepo, sessionRepo: sessionRepo, passengerRepo: passengerRepo,
		sessionTTL: sessionTTL, adminEmails: allow,
		tracerName: "elitetransport-backend/auth-service",
	}
}

// IsAdmin reports whether email (case-insensitive) is on the configured
// administrator allow-list. There is no database-side role.
func (s *AuthService) IsAdmin(email string) bool {
	return s.adminEmails[strings.ToLower(strings.TrimSpace(email))]
}

// SignUp creates a new email/password account and a seed passenger row, then
// issues a session.
func (s *AuthService) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResult, error) {
	tr := otel.Tracer(s.tracerName)
	ctx, span := tr.Start(ctx, "AuthService.SignUp")
	defer span.End()

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" || req.FirstName == "" || req.Phone == "" {
		return nil, apperr.New(apperr.InputInvalid, "email, password, first name and phone are required")
	}
	if existing, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return nil, apperr.Internalf(err, "failed to check existing account")
	} else if existing != nil {
		return nil, apperr.New(apperr.InputInvalid, "an account with this email already exists")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to hash password")
	}

	user := &models.User{
		Email: email, FirstName: req.FirstName, LastName: req.LastName, Phone: req.Phone,
		PasswordHash: hash, AuthMethod: models.AuthMethodEmail, Verified: false,
	}
	if err := s.createUserWithSeedPassenger(ctx, user, req.LastName, req.Phone); err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user)
}

// SignIn verifies email/password credentials and issues a session.
func (s *AuthService) SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthResult, error) {
	tr := otel.Tracer(s.tracerName)
	ctx, span := tr.Start(ctx, "AuthService.SignIn")
	defer span.End()

	email := normalizeEmail(req.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to look up account")
	}
	if user == nil || user.PasswordHash == "" || !VerifyPassword(req.Password, user.PasswordHash) {
		return nil, apperr.New(apperr.AuthRequired, "invalid email or password")
	}

	if IsLegacyHash(user.PasswordHash) {
		if hash, err := HashPassword(req.Password); err == nil {
			if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
				log.Printf("auth: failed to upgrade legacy password hash for user %d: %v", user.ID, err)
			}
		}
	}

	return s.issueSession(ctx, user)
}

// GoogleAuth implements the federated sign-in/sign-up flow. The client has
// already decoded the identity-provider JWT and posts its claims; this
// method trusts the posted subject and email.
func (s *AuthService) GoogleAuth(ctx context.Context, req *models.GoogleAuthRequest) (*models.AuthResult, error) {
	tr := otel.Tracer(s.tracerName)
	ctx, span := tr.Start(ctx, "AuthService.GoogleAuth")
	defer span.End()

	if req.Subject == "" || req.Email == "" {
		return nil, apperr.New(apperr.InputInvalid, "subject and email are required")
	}
	email := normalizeEmail(req.Email)

	user, err := s.userRepo.GetByGoogleID(ctx, req.Subject)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to look up federated account")
	}

	if user == nil {
		byEmail, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, apperr.Internalf(err, "failed to look up account by email")
		}
		if byEmail != nil {
			if err := s.userRepo.AttachGoogleID(ctx, byEmail.ID, req.Subject, req.PictureURL); err != nil {
				return nil, apperr.Internalf(err, "failed to attach federated identity")
			}
			byEmail.GoogleID = req.Subject
			user = byEmail
		}
	}

	if user == nil {
		if req.Mode != "signup" {
			return nil, apperr.New(apperr.AuthRequired, "no account found for this federated identity")
		}
		if req.Phone == "" {
			return nil, apperr.New(apperr.InputInvalid, "phone is required to sign up")
		}
		newUser := &models.User{
			Email: email, FirstName: req.FirstName, LastName: req.LastName, Phone: req.Phone,
			GoogleID: req.Subject, PictureURL: req.PictureURL, AuthMethod: models.AuthMethodGoogle, Verified: true,
		}
		if err := s.createUserWithSeedPassenger(ctx, newUser, req.LastName, req.Phone); err != nil {
			return nil, err
		}
		user = newUser
	}

	return s.issueSession(ctx, user)
}

// Verify resolves a bearer token to its live session and owning user.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.New(apperr.AuthRequired, "missing bearer token")
	}
	session, err := s.sessionRepo.GetValid(ctx, token)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to look up session")
	}
	if session == nil {
		return nil, apperr.New(apperr.AuthRequired, "invalid or expired session")
	}
	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to load session owner")
	}
	return user, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*models.AuthResult, error) {
	token, err := NewSessionToken(user.ID)
	if err != nil {
		return nil, apperr.Internalf(err, "failed to generate session token")
	}
	session := &models.AuthSession{Token: token, UserID: user.ID, ExpiresAt: time.Now().Add(s.sessionTTL)}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, apperr.Internalf(err, "failed to persist session")
	}
	return &models.AuthResult{Token: token, User: user}, nil
}

// createUserWithSeedPassenger inserts the user row through the user
// repository, then the matching seed passenger row in its own transaction.
// The user insert is not part of that transaction, so a failed passenger
// insert leaves the user row in place.
func (s *AuthService) createUserWithSeedPassenger(ctx context.Context, user *models.User, lastName, phone string) error {
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return apperr.Internalf(err, "failed to create account")
	}
	*user = *created

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internalf(err, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	passenger := &models.Passenger{
		FirstName: user.FirstName, LastName: lastName, Email: user.Email, Phone: phone,
	}
	if _, err := s.passengerRepo.Create(ctx, tx, passenger); err != nil {
		return apperr.Internalf(err, "failed to create seed passenger")
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internalf(err, "failed to commit seed passenger")
	}
	committed = true
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
