package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestUserDocument_BSONFieldNames(t *testing.T) {
	token := "digest"
	expires := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := userDocument{
		ID: "id-1", Name: "Ada", Email: "ada@example.com", Password: "hash",
		ResetPasswordToken: &token, ResetPasswordExpires: &expires,
	}

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	for _, key := range []string{"_id", "name", "email", "password", "resetPasswordToken", "resetPasswordExpires", "createdAt", "updatedAt"} {
		assert.Contains(t, m, key)
	}
}

func TestUserDocument_OmitsClearedResetState(t *testing.T) {
	raw, err := bson.Marshal(userDocument{ID: "id-1", Email: "ada@example.com"})
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.NotContains(t, m, "resetPasswordToken")
	assert.NotContains(t, m, "resetPasswordExpires")
}

func TestUserDocument_ToDomain(t *testing.T) {
	token := "digest"
	expires := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	u := (&userDocument{ID: "id-1", Password: "hash", ResetPasswordToken: &token, ResetPasswordExpires: &expires}).toDomain()
	assert.Equal(t, "hash", u.PasswordHash)
	require.NotNil(t, u.ResetToken)
	assert.Equal(t, "digest", u.ResetToken.TokenHash)
	assert.True(t, u.ResetToken.ExpiresAt.Equal(expires))

	u = (&userDocument{ID: "id-1", ResetPasswordToken: &token}).toDomain()
	assert.Nil(t, u.ResetToken, "a token without expiry is not usable")
}
