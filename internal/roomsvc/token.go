package roomsvc

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the grant baked into every transport token: which
// room the holder may enter and whether they created it. The transport
// node validates the signature with the same shared secret.
type AccessClaims struct {
	Room    string `json:"room"`
	Creator bool   `json:"creator"`
	jwt.RegisteredClaims
}

type tokenMinter struct {
	secret []byte
	ttl    time.Duration
}

func newTokenMinter(secret []byte, ttl time.Duration) *tokenMinter {
	return &tokenMinter{secret: secret, ttl: ttl}
}

func (m *tokenMinter) mint(roomName, participantName string, creator bool) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		Room:    roomName,
		Creator: creator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   participantName,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "voxmeet-roomsvc",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseToken validates the signature and expiry of a minted token and
// returns its grant.
func ParseToken(tokenString string, secret []byte) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}
