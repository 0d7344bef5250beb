package utils // package utils provides helpers for token creation and password hashing

import (
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are sent in the Authorization header when calling
// protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Identity is what an access token asserts about its bearer.
type Identity struct {
    AnnotatorID int64
    Email       string
    Role        string
}

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT for an annotator.  The
// token carries sub (annotator id), email, role, exp and iat.
func NewAccessToken(secret string, who Identity, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":   strconv.FormatInt(who.AnnotatorID, 10),
        "email": who.Email,
        "role":  who.Role,
        "exp":   exp.Unix(),
        "iat":   now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and extracts the identity.
// Only HMAC-signed tokens are accepted.
func ParseAccessToken(secret, raw string) (Identity, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return Identity{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Identity{}, ErrInvalidToken
    }

    var who Identity
    // sub is issued as a string; numeric subjects from older tokens are
    // decoded as float64.
    switch v := claims["sub"].(type) {
    case string:
        n, err := strconv.ParseInt(v, 10, 64)
        if err != nil {
            return Identity{}, ErrInvalidToken
        }
        who.AnnotatorID = n
    case float64:
        who.AnnotatorID = int64(v)
    default:
        return Identity{}, ErrInvalidToken
    }
    if who.AnnotatorID <= 0 {
        return Identity{}, ErrInvalidToken
    }
    who.Email, _ = claims["email"].(string)
    who.Role, _ = claims["role"].(string)
    return who, nil
}
