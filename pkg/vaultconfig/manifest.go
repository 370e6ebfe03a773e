package vaultconfig

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vaultfs/vault8/internal/logger"
	"github.com/vaultfs/vault8/pkg/keymanager"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// SupportedFormat is the only vault format version this build implements.
const SupportedFormat = 8

// Supported cipher combos (§4.2). Cryptomator has historically also
// shipped SIV_CTRMAC; this build only implements the current default.
const (
	CipherComboSivGcm = "SIV_GCM"
)

// DefaultShorteningThreshold is used when a manifest's claims omit the
// field, matching Cryptomator's own default.
const DefaultShorteningThreshold = 220

// VaultClaims are the JWT claims carried by vault.cryptomator. The
// manifest is a compact, dot-separated HS256 token exactly like any other
// JWT; golang-jwt/jwt/v5 parses the header and verifies the tag, we only
// need to describe the claims shape and apply our own field validation
// on top (jwt.Parser has no notion of "cipherCombo must be a member of
// this set").
type VaultClaims struct {
	Format              int    `json:"format"`
	CipherCombo         string `json:"cipherCombo"`
	ShorteningThreshold int    `json:"shorteningThreshold"`
	KeyID               string `json:"keyId"`
	jwt.RegisteredClaims
}

// VaultConfig is the validated, immutable result of parsing a vault's
// signed manifest. Once constructed it never changes for the lifetime of
// the unlocked vault.
type VaultConfig struct {
	Format              int
	CipherCombo         string
	ShorteningThreshold int
	KeyID               string
}

// ParseManifest verifies the vault.cryptomator token's HS256 signature
// under the unwrapped MAC key and validates its claims. token is the raw
// three-segment compact JWT text as read from disk.
func ParseManifest(token string, mk *keymanager.MasterKey) (VaultConfig, error) {
	var claims VaultClaims
	var parseErr error

	err := mk.WithMacKey(func(macKey []byte) error {
		parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
		_, parseErr = parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
			return macKey, nil
		})
		return nil
	})
	if err != nil {
		return VaultConfig{}, err
	}
	if parseErr != nil {
		logger.Debug("vault manifest signature verification failed", "error", parseErr)
		return VaultConfig{}, vaulterr.NewBadManifestSignatureError(parseErr.Error())
	}

	if claims.Format != SupportedFormat {
		return VaultConfig{}, vaulterr.NewUnsupportedVersionError(claims.Format, SupportedFormat)
	}
	if !isSupportedCipherCombo(claims.CipherCombo) {
		return VaultConfig{}, vaulterr.NewUnsupportedCipherComboError(claims.CipherCombo)
	}

	threshold := claims.ShorteningThreshold
	if threshold <= 0 {
		threshold = DefaultShorteningThreshold
	}

	return VaultConfig{
		Format:              claims.Format,
		CipherCombo:         claims.CipherCombo,
		ShorteningThreshold: threshold,
		KeyID:               claims.KeyID,
	}, nil
}

// EncodeManifest signs a new vault.cryptomator token under the MAC key,
// for vault creation.
func EncodeManifest(cfg VaultConfig, mk *keymanager.MasterKey) (string, error) {
	var signed string
	var signErr error

	err := mk.WithMacKey(func(macKey []byte) error {
		claims := VaultClaims{
			Format:              cfg.Format,
			CipherCombo:         cfg.CipherCombo,
			ShorteningThreshold: cfg.ShorteningThreshold,
			KeyID:               cfg.KeyID,
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, signErr = token.SignedString(macKey)
		return nil
	})
	if err != nil {
		return "", err
	}
	if signErr != nil {
		return "", vaulterr.Wrap(vaulterr.ErrInvalidArgument, "failed to sign vault manifest", signErr)
	}
	return signed, nil
}

func isSupportedCipherCombo(combo string) bool {
	switch combo {
	case CipherComboSivGcm:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer for log lines.
func (c VaultConfig) String() string {
	return fmt.Sprintf("VaultConfig{format=%d cipherCombo=%s shorteningThreshold=%d keyId=%s}",
		c.Format, c.CipherCombo, c.ShorteningThreshold, c.KeyID)
}
