package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestAccessToken_RoundTrip(t *testing.T) {
    who := Identity{AnnotatorID: 101, Email: "a@example.com", Role: "admin"}
    tok, err := NewAccessToken("s3cret", who, 10)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().Add(10*time.Minute), tok.Exp, 5*time.Second)

    got, err := ParseAccessToken("s3cret", tok.Token)
    require.NoError(t, err)
    assert.Equal(t, who, got)
}

func TestParseAccessToken_Rejects(t *testing.T) {
    tok, err := NewAccessToken("s3cret", Identity{AnnotatorID: 101}, 10)
    require.NoError(t, err)
    _, err = ParseAccessToken("other", tok.Token)
    assert.ErrorIs(t, err, ErrInvalidToken)

    expired, err := NewAccessToken("s3cret", Identity{AnnotatorID: 101}, -1)
    require.NoError(t, err)
    _, err = ParseAccessToken("s3cret", expired.Token)
    assert.ErrorIs(t, err, ErrInvalidToken)

    noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "101"})
    raw, err := noExp.SignedString([]byte("s3cret"))
    require.NoError(t, err)
    _, err = ParseAccessToken("s3cret", raw)
    assert.ErrorIs(t, err, ErrInvalidToken)

    zero := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "0", "exp": time.Now().Add(time.Hour).Unix()})
    raw, err = zero.SignedString([]byte("s3cret"))
    require.NoError(t, err)
    _, err = ParseAccessToken("s3cret", raw)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_NumericSubject(t *testing.T) {
    tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 101, "exp": time.Now().Add(time.Hour).Unix()})
    raw, err := tok.SignedString([]byte("s3cret"))
    require.NoError(t, err)

    got, err := ParseAccessToken("s3cret", raw)
    require.NoError(t, err)
    assert.Equal(t, int64(101), got.AnnotatorID)
}

func TestPassword(t *testing.T) {
    hash, err := HashPassword("pw", 4)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "pw"))
    assert.False(t, VerifyPassword(hash, "PW"))
    assert.False(t, VerifyPassword("not-a-hash", "pw"))
}
