package password

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	minIterations = 10_000
	minSaltLength = 8
	minKeyLength  = 16
)

// Transform is a deterministic one-way password transform. Apply is called
// both when a password is stored and when a login is verified.
type Transform interface {
	Apply(plaintext string) (string, error)
}

// SHA256 is the default transform: a hex-encoded SHA-256 digest of the raw
// password bytes. No normalization is applied.
type SHA256 struct{}

// Apply hashes the plaintext. It never fails.
func (SHA256) Apply(plaintext string) (string, error) {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:]), nil
}

// PBKDF2Config parameterizes [NewPBKDF2]. The salt is a single fixed
// application secret, not a per-password value; see the package comment.
type PBKDF2Config struct {
	Salt       []byte
	Iterations int
	KeyLength  int
}

// PBKDF2 is a hardened alternative to [SHA256], derived with PBKDF2-SHA256.
type PBKDF2 struct {
	config PBKDF2Config
}

// NewPBKDF2 validates the configuration and returns the transform.
func NewPBKDF2(cfg PBKDF2Config) (*PBKDF2, error) {
	if len(cfg.Salt) < minSaltLength {
		return nil, errors.New("pbkdf2 salt must be at least 8 bytes")
	}
	if cfg.Iterations < minIterations {
		return nil, errors.New("pbkdf2 iterations must be at least 10000")
	}
	if cfg.KeyLength < minKeyLength {
		return nil, errors.New("pbkdf2 key length must be at least 16 bytes")
	}
	return &PBKDF2{config: cfg}, nil
}

// Apply derives the key and returns it base64-encoded.
func (t *PBKDF2) Apply(plaintext string) (string, error) {
	key := pbkdf2.Key([]byte(plaintext), t.config.Salt, t.config.Iterations, t.config.KeyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(key), nil
}
