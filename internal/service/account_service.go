package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"coffee-on/internal/audit"
	"coffee-on/internal/mailer"
	"coffee-on/internal/model"
	"coffee-on/internal/repository"
	"coffee-on/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for stored password hashes.
const PasswordCost = 10

var (
	errMissingUserFields  = model.NewInvalidInputError("nome, email e senha são obrigatórios")
	errInvalidRole        = model.NewInvalidInputError("role inválido (ADMIN/USER)")
	errEmptyPassword      = model.NewInvalidInputError("senha não pode ser vazia")
	errMissingCredentials = model.NewInvalidInputError("Email e senha são obrigatórios")
	errMissingEmail       = model.NewInvalidInputError("E-mail é obrigatório.")
	errMissingResetFields = model.NewInvalidInputError("E-mail, código e nova senha são obrigatórios.")
)

// accountService implements AccountService.
type accountService struct {
	userRepo   repository.UserRepository
	sessions   session.Store
	sessionTTL time.Duration
	mailer     mailer.Mailer
	audit      audit.Recorder
	hashCost   int
	newCode    func() (string, error)
	logger     zerolog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(
	userRepo repository.UserRepository,
	sessions session.Store,
	sessionTTL time.Duration,
	m mailer.Mailer,
	recorder audit.Recorder,
	logger zerolog.Logger,
) AccountService {
	return &accountService{
		userRepo:   userRepo,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		mailer:     m,
		audit:      recorder,
		hashCost:   PasswordCost,
		newCode:    generateResetCode,
		logger:     logger.With().Str("service", "account").Logger(),
	}
}

// generateResetCode returns a random six digit code.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *accountService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Register creates an account. Only administrators may choose the role and
// flags; everyone else gets an active, non-subscriber USER account.
func (s *accountService) Register(ctx context.Context, actor *model.Actor, req *model.CreateUserRequest) (uuid.UUID, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		s.audit.Record(ctx, audit.Entry(actor, "CREATE_USER_MISSING_FIELDS", audit.ResourceUsers, "", nil))
		return uuid.Nil, errMissingUserFields
	}

	user := &model.User{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Role:       model.RoleUser,
		Active:     true,
		Subscriber: false,
		Cashback:   decimal.Zero,
	}

	if actor.IsAdmin() {
		if req.Role != "" {
			if !req.Role.Valid() {
				s.audit.Record(ctx, audit.Entry(actor, "CREATE_USER_INVALID_ROLE", audit.ResourceUsers, "",
					map[string]any{"role": req.Role}))
				return uuid.Nil, errInvalidRole
			}
			user.Role = req.Role
		}
		if req.Active != nil {
			user.Active = *req.Active
		}
		if req.Subscriber != nil {
			user.Subscriber = *req.Subscriber
		}
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return uuid.Nil, err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			s.audit.Record(ctx, audit.Entry(actor, "CREATE_USER_DUPLICATE_EMAIL", audit.ResourceUsers, "",
				map[string]any{"email": user.Email}))
			return uuid.Nil, model.ErrEmailTaken
		}
		s.audit.Record(ctx, audit.Entry(actor, "CREATE_USER_ERROR", audit.ResourceUsers, "",
			map[string]any{"error": err.Error()}))
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.Record(ctx, audit.Entry(actor, "CREATE_USER_SUCCESS", audit.ResourceUsers, user.ID.String(),
		map[string]any{"email": user.Email, "role": user.Role}))

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("user created successfully")

	return user.ID, nil
}

// Login verifies the credentials and stores a new session.
func (s *accountService) Login(ctx context.Context, req model.LoginRequest) (string, error) {
	if req.Email == "" || req.Password == "" {
		return "", errMissingCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if user == nil || !user.Active ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Warn().Msg("login rejected")
		s.audit.Record(ctx, audit.Entry(nil, "LOGIN_FAILED", audit.ResourceAuth, "",
			map[string]any{"email": req.Email}))
		return "", model.ErrInvalidCredentials
	}

	token := session.NewToken()
	sess := session.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Set(ctx, token, sess, s.sessionTTL); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	s.audit.Record(ctx, audit.Entry(sess.Actor(), "LOGIN_SUCCESS", audit.ResourceAuth, user.ID.String(), nil))

	return token, nil
}

// Logout deletes the session. An empty token is a no-op.
func (s *accountService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate resolves the session and reloads the account, so role changes
// and removals take effect on the next request.
func (s *accountService) Authenticate(ctx context.Context, token string) (*model.Actor, error) {
	if token == "" {
		return nil, model.ErrUnauthenticated
	}

	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, model.ErrUnauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if user == nil || !user.Active {
		s.logger.Debug().Str("user_id", sess.UserID.String()).Msg("session user no longer available")
		return nil, model.ErrUnauthenticated
	}

	return &model.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// List returns all accounts. Administrators only.
func (s *accountService) List(ctx context.Context, actor *model.Actor) ([]model.User, error) {
	if !actor.IsAdmin() {
		s.audit.Record(ctx, audit.Entry(actor, "LIST_USERS_FORBIDDEN", audit.ResourceUsers, "", nil))
		return nil, model.ErrForbidden
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.audit.Record(ctx, audit.Entry(actor, "LIST_USERS_ERROR", audit.ResourceUsers, "",
			map[string]any{"error": err.Error()}))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	s.audit.Record(ctx, audit.Entry(actor, "LIST_USERS", audit.ResourceUsers, "",
		map[string]any{"total": len(users)}))

	return users, nil
}

// Get returns one account.
func (s *accountService) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.User, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		s.audit.Record(ctx, audit.Entry(actor, "GET_USER_ERROR", audit.ResourceUsers, id.String(),
			map[string]any{"error": err.Error()}))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		s.audit.Record(ctx, audit.Entry(actor, "GET_USER_NOT_FOUND", audit.ResourceUsers, id.String(), nil))
		return nil, model.ErrUserNotFound
	}

	s.audit.Record(ctx, audit.Entry(actor, "GET_USER_SUCCESS", audit.ResourceUsers, id.String(), nil))

	return user, nil
}

// Update applies a partial update. Role and flags are only honoured for
// administrators.
func (s *accountService) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, patch model.UserPatch) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}
	if !actor.IsAdmin() && actor.UserID != id {
		s.audit.Record(ctx, audit.Entry(actor, "UPDATE_USER_FORBIDDEN", audit.ResourceUsers, id.String(), nil))
		return model.ErrForbidden
	}

	changes := repository.UserChanges{
		Name:  patch.Name,
		Email: patch.Email,
	}

	if patch.Password != nil {
		if *patch.Password == "" {
			return errEmptyPassword
		}
		hash, err := s.hash(*patch.Password)
		if err != nil {
			return err
		}
		changes.PasswordHash = &hash
	}

	if actor.IsAdmin() {
		if patch.Role != nil {
			if !patch.Role.Valid() {
				s.audit.Record(ctx, audit.Entry(actor, "UPDATE_USER_INVALID_ROLE", audit.ResourceUsers, id.String(),
					map[string]any{"role": *patch.Role}))
				return errInvalidRole
			}
			changes.Role = patch.Role
		}
		changes.Active = patch.Active
		changes.Subscriber = patch.Subscriber
	}

	if changes == (repository.UserChanges{}) {
		return model.ErrNothingToUpdate
	}

	found, err := s.userRepo.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			s.audit.Record(ctx, audit.Entry(actor, "UPDATE_USER_DUPLICATE_EMAIL", audit.ResourceUsers, id.String(), nil))
			return model.ErrEmailTaken
		}
		s.audit.Record(ctx, audit.Entry(actor, "UPDATE_USER_ERROR", audit.ResourceUsers, id.String(),
			map[string]any{"error": err.Error()}))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if !found {
		s.audit.Record(ctx, audit.Entry(actor, "UPDATE_USER_NOT_FOUND", audit.ResourceUsers, id.String(), nil))
		return model.ErrUserNotFound
	}

	s.audit.Record(ctx, audit.Entry(actor, "UPDATE_USER_SUCCESS", audit.ResourceUsers, id.String(),
		map[string]any{
			"nome":      changes.Name != nil,
			"email":     changes.Email != nil,
			"senha":     changes.PasswordHash != nil,
			"role":      changes.Role != nil,
			"ativo":     changes.Active != nil,
			"assinante": changes.Subscriber != nil,
			"self":      actor.UserID == id,
		}))

	return nil
}

// Delete removes an account. Administrators only.
func (s *accountService) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		s.audit.Record(ctx, audit.Entry(actor, "DELETE_USER_FORBIDDEN", audit.ResourceUsers, id.String(), nil))
		return model.ErrForbidden
	}

	found, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrUserHasOrders) {
			s.audit.Record(ctx, audit.Entry(actor, "DELETE_USER_CONFLICT", audit.ResourceUsers, id.String(), nil))
			return model.ErrUserHasOrders
		}
		s.audit.Record(ctx, audit.Entry(actor, "DELETE_USER_ERROR", audit.ResourceUsers, id.String(),
			map[string]any{"error": err.Error()}))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !found {
		s.audit.Record(ctx, audit.Entry(actor, "DELETE_USER_NOT_FOUND", audit.ResourceUsers, id.String(), nil))
		return model.ErrUserNotFound
	}

	s.audit.Record(ctx, audit.Entry(actor, "DELETE_USER_SUCCESS", audit.ResourceUsers, id.String(), nil))

	return nil
}

// RequestPasswordReset stores a new reset code and e-mails it to the owner.
func (s *accountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errMissingEmail
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return model.ErrUserNotFound
	}

	actor := &model.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}

	code, err := s.newCode()
	if err != nil {
		return err
	}

	if _, err := s.userRepo.SetResetCode(ctx, email, code); err != nil {
		s.audit.Record(ctx, audit.Entry(actor, "USER_RESET_CODE_ERROR", audit.ResourceUsers, user.ID.String(),
			map[string]any{"error": err.Error()}))
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	subject, body := mailer.ResetCodeMessage(user.Name, code)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to send reset code")
		s.audit.Record(ctx, audit.Entry(actor, "USER_RESET_CODE_ERROR", audit.ResourceUsers, user.ID.String(),
			map[string]any{"error": err.Error()}))
		return fmt.Errorf("failed to send reset code: %w", err)
	}

	s.audit.Record(ctx, audit.Entry(actor, "USER_RESET_CODE_SENT", audit.ResourceUsers, user.ID.String(), nil))

	return nil
}

// ResetPassword replaces the password when the code matches the stored one.
// The code is single use.
func (s *accountService) ResetPassword(ctx context.Context, req model.PasswordResetRequest) error {
	if strings.TrimSpace(req.Email) == "" || req.Code == "" || req.NewPassword == "" {
		return errMissingResetFields
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return model.ErrUserNotFound
	}

	actor := &model.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}

	if user.ResetCode == nil || subtle.ConstantTimeCompare([]byte(*user.ResetCode), []byte(req.Code)) != 1 {
		s.audit.Record(ctx, audit.Entry(actor, "USER_RESET_CODE_INVALID", audit.ResourceUsers, user.ID.String(), nil))
		return model.ErrInvalidResetCode
	}

	hash, err := s.hash(req.NewPassword)
	if err != nil {
		return err
	}

	matched, err := s.userRepo.ResetPassword(ctx, user.Email, req.Code, hash)
	if err != nil {
		s.audit.Record(ctx, audit.Entry(actor, "USER_PASSWORD_RESET_ERROR", audit.ResourceUsers, user.ID.String(),
			map[string]any{"error": err.Error()}))
		return fmt.Errorf("failed to reset password: %w", err)
	}
	if !matched {
		// consumed by a concurrent reset
		s.audit.Record(ctx, audit.Entry(actor, "USER_RESET_CODE_INVALID", audit.ResourceUsers, user.ID.String(), nil))
		return model.ErrInvalidResetCode
	}

	s.audit.Record(ctx, audit.Entry(actor, "USER_PASSWORD_RESET_SUCCESS", audit.ResourceUsers, user.ID.String(), nil))

	return nil
}
