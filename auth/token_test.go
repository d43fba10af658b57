package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_Issue_And_Verify(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test_secret_key_for_reconnect", time.Hour)
	persistentID := uuid.NewString()

	token, err := issuer.Issue(persistentID, "user")
	req.NoError(err)
	req.NotEmpty(token)

	got, ok := issuer.Verify(token)
	req.True(ok)
	req.Equal(persistentID, got)
}

func TestTokenIssuer_Verify_Rejects_Foreign_Signature(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("secret_one", time.Hour)
	other := NewTokenIssuer("secret_two", time.Hour)

	token, err := issuer.Issue(uuid.NewString(), "agent")
	req.NoError(err)

	// A token signed with another key must not be trusted
	_, ok := other.Verify(token)
	req.False(ok)
}

func TestTokenIssuer_Verify_Rejects_Expired(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("secret", -time.Minute)

	token, err := issuer.Issue(uuid.NewString(), "user")
	req.NoError(err)

	_, ok := issuer.Verify(token)
	req.False(ok)
}

func TestTokenIssuer_Verify_Rejects_Garbage(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("secret", time.Hour)

	_, ok := issuer.Verify("not-a-token")
	req.False(ok)
}
