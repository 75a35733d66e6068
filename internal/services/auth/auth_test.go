package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/mails"
	"yamdb/proj/internal/storage/inmemory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeMailer struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (m *fakeMailer) Send(recipient string, tmplName string, tmplData any) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if tmplName != mails.ConfirmationCodeTmpl {
		return errors.New("unexpected template " + tmplName)
	}
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[recipient] = tmplData.(map[string]any)["code"].(string)
	return nil
}

func (m *fakeMailer) code(recipient string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[recipient]
}

func newService(t *testing.T, opts Options) (*AuthService, *fakeMailer, *inmemory.Storage) {
	t.Helper()
	if opts.Secret == "" {
		opts.Secret = "test-secret"
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = time.Hour
	}
	store := inmemory.New()
	mailer := &fakeMailer{}
	svc := New(logger.Discard(), mailer, store.Users, opts)
	svc.hashCost = bcrypt.MinCost
	return svc, mailer, store
}

func TestNewConfirmationCode(t *testing.T) {
	code := NewConfirmationCode()
	assert.Regexp(t, `^[0-9A-F]{32}$`, code)
	assert.NotEqual(t, code, NewConfirmationCode())
}

func TestSignUpIdempotentWithNewCode(t *testing.T) {
	ctx := context.Background()
	svc, mailer, _ := newService(t, Options{})

	user, err := svc.SignUp(ctx, "bob", "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	first := mailer.code("bob@x.com")
	require.NotEmpty(t, first)

	again, err := svc.SignUp(ctx, "bob", "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	second := mailer.code("bob@x.com")
	assert.NotEqual(t, first, second)

	_, err = svc.ExchangeToken(ctx, "bob", first)
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = svc.ExchangeToken(ctx, "bob", second)
	assert.NoError(t, err)
}

func TestSignUpConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, Options{})
	_, err := svc.SignUp(ctx, "bob", "bob@x.com")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "bob", "other@x.com")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	_, err = svc.SignUp(ctx, "robert", "bob@x.com")
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = svc.SignUp(ctx, "me", "me@x.com")
	assert.Error(t, err)
}

func TestSignUpDoesNotTouchOtherUsers(t *testing.T) {
	ctx := context.Background()
	svc, mailer, store := newService(t, Options{})
	_, err := svc.SignUp(ctx, "alice", "alice@x.com")
	require.NoError(t, err)
	aliceCode := mailer.code("alice@x.com")
	aliceBefore, err := store.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "bob", "bob@x.com")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "bob", "bob@x.com")
	require.NoError(t, err)

	aliceAfter, err := store.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, aliceBefore.ConfirmationCode, aliceAfter.ConfirmationCode)
	_, err = svc.ExchangeToken(ctx, "alice", aliceCode)
	assert.NoError(t, err)
}

func TestSignUpMailFailure(t *testing.T) {
	svc, mailer, _ := newService(t, Options{})
	mailer.err = errors.New("smtp down")
	_, err := svc.SignUp(context.Background(), "bob", "bob@x.com")
	assert.ErrorContains(t, err, "smtp down")
}

func TestExchangeToken(t *testing.T) {
	ctx := context.Background()
	svc, mailer, store := newService(t, Options{})
	_, err := svc.SignUp(ctx, "bob", "bob@x.com")
	require.NoError(t, err)
	code := mailer.code("bob@x.com")

	_, err = svc.ExchangeToken(ctx, "nobody", code)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.ExchangeToken(ctx, "bob", "WRONG")
	assert.ErrorIs(t, err, ErrInvalidCode)

	token, err := svc.ExchangeToken(ctx, "bob", code)
	require.NoError(t, err)

	var c claims
	_, err = jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	bob, err := store.Users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, c.UID)
	assert.Equal(t, models.RoleUser, c.Role)
	require.NotNil(t, bob.ConfirmedAt)
	confirmedAt := *bob.ConfirmedAt

	// codes stay valid without rotation, confirmed_at keeps the first time
	_, err = svc.ExchangeToken(ctx, "bob", code)
	require.NoError(t, err)
	bob, err = store.Users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, confirmedAt, *bob.ConfirmedAt)
}

func TestExchangeTokenRotatesCode(t *testing.T) {
	ctx := context.Background()
	svc, mailer, _ := newService(t, Options{RotateCode: true})
	_, err := svc.SignUp(ctx, "bob", "bob@x.com")
	require.NoError(t, err)
	code := mailer.code("bob@x.com")

	_, err = svc.ExchangeToken(ctx, "bob", code)
	require.NoError(t, err)
	_, err = svc.ExchangeToken(ctx, "bob", code)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestVerifyToken(t *testing.T) {
	ctx := context.Background()
	svc, mailer, store := newService(t, Options{TokenTTL: time.Minute})
	_, err := svc.SignUp(ctx, "bob", "bob@x.com")
	require.NoError(t, err)
	token, err := svc.ExchangeToken(ctx, "bob", mailer.code("bob@x.com"))
	require.NoError(t, err)

	user, err := svc.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)

	t.Run("role is read from the store", func(t *testing.T) {
		user.Role = models.RoleModerator
		_, err := store.Users.Update(ctx, user)
		require.NoError(t, err)
		fresh, err := svc.VerifyToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, models.RoleModerator, fresh.Role)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.VerifyToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _, _ := newService(t, Options{Secret: "another-secret"})
		_, err := other.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		t.Cleanup(func() { svc.now = time.Now })
		_, err := svc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		require.NoError(t, store.Users.Delete(ctx, "bob"))
		_, err := svc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
