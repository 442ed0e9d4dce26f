package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fuziondot/auth-api/internal/domain"
	jwtinfra "github.com/fuziondot/auth-api/internal/infrastructure/jwt"
	"github.com/fuziondot/auth-api/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) AttachResetToken(ctx context.Context, userID, token string, expiresAt int64) error {
	return m.Called(ctx, userID, token, expiresAt).Error(0)
}
func (m *mockUserStore) ConsumeResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	args := m.Called(ctx, token, now)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, htmlBody string) error {
	return m.Called(to, subject, htmlBody).Error(0)
}

type mockTokenProvider struct{ mock.Mock }

func (m *mockTokenProvider) Sign(userID string, purpose jwtinfra.Purpose) (string, error) {
	args := m.Called(userID, purpose)
	return args.String(0), args.Error(1)
}
func (m *mockTokenProvider) Verify(token string, expected jwtinfra.Purpose) (*jwtinfra.Claims, error) {
	args := m.Called(token, expected)
	if c, _ := args.Get(0).(*jwtinfra.Claims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- builder ---

func newService(us *mockUserStore, ml *mockMailer, tp *mockTokenProvider) Service {
	return NewService(ServiceDeps{
		UserRepo:      us,
		Mailer:        ml,
		Tokens:        tp,
		ResetTokenTTL: time.Hour,
		PublicBaseURL: "http://localhost:3000",
	})
}

func mustHash(t *testing.T, plaintext string) string {
	t.Helper()
	h, err := password.Hash(plaintext)
	require.NoError(t, err)
	return h
}

// --- Register ---

func TestRegister_DuplicateEmail_Conflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1"}, nil)

	svc := newService(us, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		FirstName: "a", LastName: "b", Email: "a@x.com", Password: "password1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertNotCalled(t, "Put")
}

func TestRegister_HappyPath_SendsConfirmation(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	tp := &mockTokenProvider{}

	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "a@x.com" && !u.Verified && u.PasswordHash != "" && u.PasswordHash != "password1"
	})).Return(nil)
	tp.On("Sign", mock.Anything, jwtinfra.PurposeEmailConfirm).Return("confirm-token", nil)
	ml.On("SendEmail", "a@x.com", "Confirm your email", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "/api/auth/confirm/confirm-token")
	})).Return(nil)

	svc := newService(us, ml, tp)
	result, err := svc.Register(context.Background(), domain.RegisterRequest{
		FirstName: "a", LastName: "b", Email: "a@x.com", Password: "password1",
	})

	require.NoError(t, err)
	assert.True(t, result.EmailDelivered)
	assert.False(t, result.User.Verified)
	us.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestRegister_EmailDeliveryFails_UserStillRegistered(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	tp := &mockTokenProvider{}

	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	tp.On("Sign", mock.Anything, jwtinfra.PurposeEmailConfirm).Return("confirm-token", nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	svc := newService(us, ml, tp)
	result, err := svc.Register(context.Background(), domain.RegisterRequest{
		FirstName: "a", LastName: "b", Email: "a@x.com", Password: "password1",
	})

	require.NoError(t, err)
	assert.False(t, result.EmailDelivered)
	us.AssertExpectations(t)
}

// --- ConfirmEmail ---

func TestConfirmEmail_InvalidToken(t *testing.T) {
	tp := &mockTokenProvider{}
	tp.On("Verify", "garbage", jwtinfra.PurposeEmailConfirm).Return(nil, jwtinfra.ErrInvalidToken)

	svc := newService(nil, nil, tp)
	err := svc.ConfirmEmail(context.Background(), "garbage")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestConfirmEmail_UserGone_InvalidToken(t *testing.T) {
	us := &mockUserStore{}
	tp := &mockTokenProvider{}
	tp.On("Verify", "tok", jwtinfra.PurposeEmailConfirm).Return(&jwtinfra.Claims{UserID: "u1"}, nil)
	us.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, tp)
	err := svc.ConfirmEmail(context.Background(), "tok")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestConfirmEmail_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	tp := &mockTokenProvider{}
	tp.On("Verify", "tok", jwtinfra.PurposeEmailConfirm).Return(&jwtinfra.Claims{UserID: "u1"}, nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{fieldVerified: true}).Return(nil)

	svc := newService(us, nil, tp)
	require.NoError(t, svc.ConfirmEmail(context.Background(), "tok"))
	us.AssertExpectations(t)
}

func TestConfirmEmail_AlreadyVerified_Idempotent(t *testing.T) {
	us := &mockUserStore{}
	tp := &mockTokenProvider{}
	tp.On("Verify", "tok", jwtinfra.PurposeEmailConfirm).Return(&jwtinfra.Claims{UserID: "u1"}, nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Verified: true}, nil)

	svc := newService(us, nil, tp)
	require.NoError(t, svc.ConfirmEmail(context.Background(), "tok"))
	us.AssertNotCalled(t, "Update")
}

// --- Login ---

func TestLogin_UnknownEmail_SameErrorAsWrongPassword(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "nobody@x.com").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, nil)
	_, errUnknown := svc.Login(context.Background(), domain.LoginRequest{Email: "nobody@x.com", Password: "pw"})
	require.Error(t, errUnknown)
	assert.True(t, errors.Is(errUnknown, domain.ErrUnauthorized))

	us2 := &mockUserStore{}
	us2.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID: "u1", PasswordHash: mustHash(t, "rightpw"), Verified: true,
	}, nil)
	svc2 := newService(us2, nil, nil)
	_, errWrongPw := svc2.Login(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "wrongpw"})
	require.Error(t, errWrongPw)

	// Anti-enumeration: both failures carry the identical message.
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestLogin_NotVerified(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID: "u1", PasswordHash: mustHash(t, "password1"), Verified: false,
	}, nil)

	svc := newService(us, nil, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "password1"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmailNotVerified))
}

func TestLogin_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	tp := &mockTokenProvider{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID: "u1", PasswordHash: mustHash(t, "password1"), Verified: true,
	}, nil)
	tp.On("Sign", "u1", jwtinfra.PurposeSession).Return("bearer-token", nil)

	svc := newService(us, nil, tp)
	bearer, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "password1"})

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", bearer)
}

// --- RequestPasswordReset ---

func TestRequestPasswordReset_UnknownEmail_NoError(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "nobody@x.com").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, nil)
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "nobody@x.com"))
	us.AssertNotCalled(t, "AttachResetToken")
}

func TestRequestPasswordReset_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}

	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID: "u1", Email: "a@x.com", FirstName: "a",
	}, nil)
	var attached string
	us.On("AttachResetToken", mock.Anything, "u1", mock.AnythingOfType("string"), mock.AnythingOfType("int64")).
		Run(func(args mock.Arguments) { attached = args.String(2) }).Return(nil)
	ml.On("SendEmail", "a@x.com", "Password Reset Request", mock.AnythingOfType("string")).Return(nil)

	svc := newService(us, ml, nil)
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "a@x.com"))

	assert.Len(t, attached, 64) // 32 random bytes, hex-encoded
	us.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestRequestPasswordReset_MailFailure_StillSucceeds(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1", Email: "a@x.com"}, nil)
	us.On("AttachResetToken", mock.Anything, "u1", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	svc := newService(us, ml, nil)
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "a@x.com"))
}

// --- ResendConfirmation ---

func TestResendConfirmation_AlreadyVerified_NoSend(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1", Verified: true}, nil)

	svc := newService(us, ml, nil)
	require.NoError(t, svc.ResendConfirmation(context.Background(), "a@x.com"))
	ml.AssertNotCalled(t, "SendEmail")
}

func TestResendConfirmation_Unverified_Sends(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	tp := &mockTokenProvider{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1", Email: "a@x.com"}, nil)
	tp.On("Sign", "u1", jwtinfra.PurposeEmailConfirm).Return("confirm-token", nil)
	ml.On("SendEmail", "a@x.com", "Confirm your email", mock.Anything).Return(nil)

	svc := newService(us, ml, tp)
	require.NoError(t, svc.ResendConfirmation(context.Background(), "a@x.com"))
	ml.AssertExpectations(t)
}

// --- CompletePasswordReset ---

func TestCompletePasswordReset_InvalidOrExpired(t *testing.T) {
	us := &mockUserStore{}
	us.On("ConsumeResetToken", mock.Anything, "deadbeef", mock.Anything).Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, nil)
	err := svc.CompletePasswordReset(context.Background(), "deadbeef", "newpassword1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	us.AssertNotCalled(t, "Update")
}

func TestCompletePasswordReset_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("ConsumeResetToken", mock.Anything, "cafebabe", mock.Anything).Return(&domain.User{UserID: "u1"}, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		h, ok := m[fieldPasswordHash].(string)
		return ok && h != "" && h != "newpassword1"
	})).Return(nil)

	svc := newService(us, nil, nil)
	require.NoError(t, svc.CompletePasswordReset(context.Background(), "cafebabe", "newpassword1"))
	us.AssertExpectations(t)
}
