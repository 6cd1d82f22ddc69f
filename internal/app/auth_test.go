package app_test

import (
	"context"
	"testing"
	"time"

	"quizha-server/internal/app"
	"quizha-server/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestLoginIssuesAdminToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, time.Hour)
	created, err := env.auth.CreateAdmin(ctx, "root", "s3cret", "Root Admin")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", created.PasswordHash)

	login, err := env.auth.Login(ctx, "root", "s3cret")
	require.NoError(t, err)
	require.Equal(t, created.ID, login.ID)
	require.Equal(t, "Root Admin", login.FullName)

	p, err := env.auth.Authenticate(login.Token)
	require.NoError(t, err)
	require.Equal(t, domain.AdminPrincipal{AdminID: created.ID, Username: "root"}, p)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, time.Hour)
	_, err := env.auth.CreateAdmin(ctx, "root", "s3cret", "")
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "root", "wrong")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = env.auth.Login(ctx, "nobody", "s3cret")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestEnsureDefaultAdminOnlyOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, time.Hour)

	require.NoError(t, env.auth.EnsureDefaultAdmin(ctx, "admin", "admin123", "Default Admin"))
	require.NoError(t, env.auth.EnsureDefaultAdmin(ctx, "admin", "admin123", "Default Admin"))

	admins, err := env.auth.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
}

func TestStudentTokenRequiresEnrollment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, time.Hour)
	a := env.activity(t, 1)
	s := env.student(t, "Lia")

	_, err := env.auth.IssueStudentToken(ctx, s.ID, a.ID)
	require.ErrorIs(t, err, domain.ErrNotEnrolled)

	env.enroll(t, a.ID, s.ID)
	token, err := env.auth.IssueStudentToken(ctx, s.ID, a.ID)
	require.NoError(t, err)
	p, err := env.auth.Authenticate(token)
	require.NoError(t, err)
	require.Equal(t, domain.StudentPrincipal{StudentID: s.ID, ActivityID: a.ID}, p)
}

func TestAuthenticateRejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, time.Hour)
	a := env.activity(t, 1)
	s := env.student(t, "Lia")
	env.enroll(t, a.ID, s.ID)

	cases := map[string]app.TokenConfig{
		"other secret":   {Secret: "other", Issuer: "quizha", Audience: "quizha-clients"},
		"other issuer":   {Secret: "test-secret", Issuer: "someone", Audience: "quizha-clients"},
		"other audience": {Secret: "test-secret", Issuer: "quizha", Audience: "elsewhere"},
		"expired":        {Secret: "test-secret", Issuer: "quizha", Audience: "quizha-clients", StudentTTL: time.Nanosecond},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			issuer := app.NewAuthService(env.store, cfg)
			token, err := issuer.IssueStudentToken(ctx, s.ID, a.ID)
			require.NoError(t, err)
			_, err = env.auth.Authenticate(token)
			require.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}

	_, err := env.auth.Authenticate("not-a-jwt")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}
