package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"openlingua/internal/event"
	"openlingua/internal/metrics"
	"openlingua/internal/model"
	"openlingua/internal/token"
	"openlingua/pkg/apierror"
)

const (
	DefaultBcryptCost = 12
	MinPasswordLength = 8
)

const (
	msgRegisterMissing  = "Please provide email, password, and name"
	msgEmailShape       = "Please provide a valid email address"
	msgPasswordLength   = "Password must be at least 8 characters long"
	msgAccountExists    = "An account with this email already exists"
	msgRegisterFailed   = "Something went wrong during registration. Please try again."
	msgLoginMissing     = "Please provide email and password"
	msgInvalidLogin     = "Invalid email or password"
	msgLoginFailed      = "Something went wrong during login. Please try again."
	msgUserNotFound     = "User not found"
	msgCurrentUserError = "Something went wrong fetching user data"
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type registerInput struct {
	Email    string `validate:"required,emailshape"`
	Password string `validate:"required,min=8"`
	Name     string `validate:"required"`
}

type loginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// Session is the outcome of a successful register or login: the public view
// of the account plus the credentials to hand to the cookie transport.
type Session struct {
	User        model.PublicUser
	Credentials model.CredentialPair
}

type AccountService struct {
	users      UserStore
	issuer     *token.Issuer
	bus        event.Bus
	metrics    *metrics.Metrics
	validate   *validator.Validate
	bcryptCost int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

type AccountOption func(*AccountService)

// WithBcryptCost overrides the hashing work factor.
func WithBcryptCost(cost int) AccountOption {
	return func(s *AccountService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func WithAccountClock(now func() time.Time) AccountOption {
	return func(s *AccountService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewAccountService(users UserStore, issuer *token.Issuer, bus event.Bus, m *metrics.Metrics, opts ...AccountOption) *AccountService {
	if bus == nil {
		bus = event.Discard{}
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})

	s := &AccountService{
		users:      users,
		issuer:     issuer,
		bus:        bus,
		metrics:    m,
		validate:   v,
		bcryptCost: DefaultBcryptCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *AccountService) Register(ctx context.Context, req model.RegisterRequest) (Session, error) {
	input := registerInput{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
	}
	if err := s.validate.Struct(input); err != nil {
		s.metrics.AccountOperation("register", metrics.ResultRejected)
		return Session{}, apierror.Validation(registerValidationMessage(err))
	}

	email := normalizeEmail(input.Email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		s.metrics.AccountOperation("register", metrics.ResultRejected)
		return Session{}, apierror.Conflict(msgAccountExists, model.ErrUserAlreadyExists)
	case !errors.Is(err, model.ErrUserNotFound):
		return Session{}, s.internal("register", msgRegisterFailed, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return Session{}, s.internal("register", msgRegisterFailed, fmt.Errorf("hash password: %w", err))
	}

	now := s.now().UTC()
	hashed := string(hash)
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: &hashed,
		Name:         input.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The lookup above and this insert are not atomic; the store's unique
	// constraint decides concurrent registrations of the same email.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			s.metrics.AccountOperation("register", metrics.ResultRejected)
			return Session{}, apierror.Conflict(msgAccountExists, err)
		}
		return Session{}, s.internal("register", msgRegisterFailed, err)
	}

	pair, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, s.internal("register", msgRegisterFailed, err)
	}

	s.metrics.AccountOperation("register", metrics.ResultSuccess)
	s.bus.Publish(event.FromContext(ctx, event.TypeUserRegistered, user.ID, user.Email, "password"))

	return Session{User: user.Public(), Credentials: pair}, nil
}

func (s *AccountService) Login(ctx context.Context, req model.LoginRequest) (Session, error) {
	input := loginInput{Email: strings.TrimSpace(req.Email), Password: req.Password}
	if err := s.validate.Struct(input); err != nil {
		s.metrics.AccountOperation("login", metrics.ResultRejected)
		return Session{}, apierror.Validation(msgLoginMissing)
	}

	email := normalizeEmail(input.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return Session{}, s.internal("login", msgLoginFailed, err)
	}

	if err != nil || !user.HasPassword() {
		s.burnComparison(input.Password)
		return Session{}, s.rejectLogin(ctx, email)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)); err != nil {
		return Session{}, s.rejectLogin(ctx, email)
	}

	pair, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, s.internal("login", msgLoginFailed, err)
	}

	s.metrics.AccountOperation("login", metrics.ResultSuccess)
	s.bus.Publish(event.FromContext(ctx, event.TypeUserLoggedIn, user.ID, user.Email, "password"))

	return Session{User: user.Public(), Credentials: pair}, nil
}

// Logout only records the event; the caller clears the cookies.
func (s *AccountService) Logout(ctx context.Context, principal model.Principal) {
	s.metrics.AccountOperation("logout", metrics.ResultSuccess)
	s.bus.Publish(event.FromContext(ctx, event.TypeUserLoggedOut, principal.UserID, principal.Email, ""))
}

func (s *AccountService) CurrentUser(ctx context.Context, userID string) (model.UserProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.UserProfile{}, apierror.NotFound(msgUserNotFound)
	}
	if err != nil {
		return model.UserProfile{}, s.internal("me", msgCurrentUserError, err)
	}

	return user.Profile(), nil
}

// IssueFor mints a session for an already resolved account, as after an
// OAuth callback.
func (s *AccountService) IssueFor(ctx context.Context, user model.User) (model.CredentialPair, error) {
	pair, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return model.CredentialPair{}, fmt.Errorf("issue credentials: %w", err)
	}

	s.metrics.AccountOperation("oauth_login", metrics.ResultSuccess)
	s.bus.Publish(event.FromContext(ctx, event.TypeUserLoggedIn, user.ID, user.Email, "google"))

	return pair, nil
}

func (s *AccountService) rejectLogin(ctx context.Context, email string) error {
	s.metrics.AccountOperation("login", metrics.ResultRejected)
	s.bus.Publish(event.FromContext(ctx, event.TypeUserLoginFailed, "", email, ""))
	return apierror.Unauthorized(msgInvalidLogin)
}

// burnComparison spends one bcrypt comparison so a missing account costs
// about as long as a wrong password.
func (s *AccountService) burnComparison(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

func (s *AccountService) internal(operation string, message string, err error) error {
	slog.Error("account operation failed", "operation", operation, "error", err)
	s.metrics.AccountOperation(operation, metrics.ResultError)
	return apierror.Internal(message, err)
}

func registerValidationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return msgRegisterMissing
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return msgRegisterMissing
		}
	}

	switch fieldErrs[0].Tag() {
	case "emailshape":
		return msgEmailShape
	case "min":
		return msgPasswordLength
	default:
		return msgRegisterMissing
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
