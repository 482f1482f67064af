// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// privateKey and publicKey sign and verify session tokens. They are
// generated fresh at startup: a restart invalidates outstanding sessions,
// which matches the lifetime of the in-memory rooms they refer to.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// sessionExpireSec is how many seconds until token expiration (0 => never).
	sessionExpireSec int
)

// SessionClaims is what a client's persisted playerInfo record becomes on
// the server side: enough to re-identify a player in a specific room.
type SessionClaims struct {
	Name     string
	RoomCode string
	IsHost   bool
}

func parseSessionExpire() error {
	duration := os.Getenv("SESSION_EXPIRE_TIME")
	if duration == "never" || duration == "0" || duration == "" {
		sessionExpireSec = 0
		return nil
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return fmt.Errorf("failed to parse SESSION_EXPIRE_TIME: %w", err)
	}
	sessionExpireSec = int(d.Seconds())
	return nil
}

// Init generates a fresh ed25519 key pair and reads the expiration setting.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return parseSessionExpire()
}

// MintSession creates a signed session token for a player in a room. The
// client stores it alongside its playerInfo and presents it when rejoining.
func MintSession(c SessionClaims) (string, error) {
	claims := jwt.MapClaims{
		"sub":  c.Name,
		"room": c.RoomCode,
		"host": c.IsHost,
	}
	if sessionExpireSec > 0 {
		claims["exp"] = time.Now().Add(time.Duration(sessionExpireSec) * time.Second).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// VerifySession validates a session token and returns its claims.
func VerifySession(tokenString string) (*SessionClaims, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("session parse error: %w", err)
	}
	if !t.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid session claims")
	}
	name, ok := claims["sub"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("missing name in session token")
	}
	room, _ := claims["room"].(string)
	host, _ := claims["host"].(bool)
	return &SessionClaims{Name: name, RoomCode: room, IsHost: host}, nil
}
