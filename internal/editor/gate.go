package editor

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Gate is the shared-password lock in front of the editor. It keeps casual
// visitors out of the edit controls and is not an access control: the store
// behind it does no auth of its own.
type Gate struct {
	hash  []byte
	token string
}

// NewGate takes a bcrypt hash. An empty hash gives an open gate.
func NewGate(hash string) (*Gate, error) {
	if hash == "" {
		return &Gate{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("password hash: %w", err)
	}
	sum := sha256.Sum256([]byte(hash))
	return &Gate{hash: []byte(hash), token: hex.EncodeToString(sum[:])}, nil
}

// Open reports whether no password is configured.
func (g *Gate) Open() bool { return g == nil || len(g.hash) == 0 }

func (g *Gate) Check(password string) bool {
	if g.Open() {
		return true
	}
	err := bcrypt.CompareHashAndPassword(g.hash, []byte(password))
	return err == nil
}

// Token is the value of the remember-me cookie set after a successful unlock.
func (g *Gate) Token() string {
	if g.Open() {
		return ""
	}
	return g.token
}

// Remembered reports whether a cookie value came from a past unlock.
func (g *Gate) Remembered(cookie string) bool {
	if g.Open() {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(cookie), []byte(g.token)) == 1
}

// HashPassword is what operators use to produce PACKBOARD_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CookieName is the remember-me cookie checked when an editor session opens.
const CookieName = "packboard_unlocked"
