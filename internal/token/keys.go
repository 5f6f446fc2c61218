package token

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
)

// KeyPair is an ECDSA P-256 signing key with its public half and key ID.
// The key ID (kid) is the base58-encoded SHA256 hash of the public key DER bytes.
type KeyPair struct {
	Private *ecdsa.PrivateKey
	Public  *ecdsa.PublicKey
	Kid     string
}

// GenerateKeyPair creates a fresh P-256 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}

	return newKeyPair(privateKey, &privateKey.PublicKey)
}

// ParseKeyPair parses PEM-encoded private and public keys for one key role.
// The public key must match the private key.
func ParseKeyPair(privateKeyPEM, publicKeyPEM string) (*KeyPair, error) {
	if privateKeyPEM == "" || publicKeyPEM == "" {
		return nil, errors.New("private and public key PEM are required")
	}

	privateKey, err := jwt.ParseECPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	publicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	if !privateKey.PublicKey.Equal(publicKey) {
		return nil, errors.New("public key does not match private key")
	}

	return newKeyPair(privateKey, publicKey)
}

func newKeyPair(privateKey *ecdsa.PrivateKey, publicKey *ecdsa.PublicKey) (*KeyPair, error) {
	kid, err := Fingerprint(publicKey)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		Private: privateKey,
		Public:  publicKey,
		Kid:     kid,
	}, nil
}

// Fingerprint returns the base58 SHA256 fingerprint of a public key.
func Fingerprint(publicKey *ecdsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	hash := sha256.Sum256(der)
	return base58.Encode(hash[:]), nil
}

// EncodePEM returns the private key (SEC 1) and public key (PKIX) as PEM.
func (k *KeyPair) EncodePEM() (privateKeyPEM, publicKeyPEM []byte, err error) {
	privateKeyDER, err := x509.MarshalECPrivateKey(k.Private)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	publicKeyDER, err := x509.MarshalPKIXPublicKey(k.Public)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	privateKeyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privateKeyDER})
	publicKeyPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicKeyDER})

	return privateKeyPEM, publicKeyPEM, nil
}
