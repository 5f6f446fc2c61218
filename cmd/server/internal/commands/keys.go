package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessionauth/internal/token"
)

// KeyFlags locate the ES256 key pairs. Each value is a PEM file path or the PEM itself.
type KeyFlags struct {
	AccessPrivate  string `help:"access token private key (PEM or path)" env:"SESSIONAUTH_ACCESS_PRIVATE_KEY"`
	AccessPublic   string `help:"access token public key (PEM or path)" env:"SESSIONAUTH_ACCESS_PUBLIC_KEY"`
	RefreshPrivate string `help:"refresh token private key (PEM or path)" env:"SESSIONAUTH_REFRESH_PRIVATE_KEY"`
	RefreshPublic  string `help:"refresh token public key (PEM or path)" env:"SESSIONAUTH_REFRESH_PUBLIC_KEY"`
	Issuer         string `help:"token issuer claim" default:"sessionauth" env:"SESSIONAUTH_TOKEN_ISSUER"`
}

func (k *KeyFlags) Validate() error {
	if k.AccessPrivate == "" || k.AccessPublic == "" {
		return errors.New("access key pair is required (--keys-access-private and --keys-access-public)")
	}
	if k.RefreshPrivate == "" || k.RefreshPublic == "" {
		return errors.New("refresh key pair is required (--keys-refresh-private and --keys-refresh-public)")
	}
	return nil
}

// codec loads both key pairs and builds the token codec.
func (k *KeyFlags) codec(opts ...token.Option) (*token.Codec, error) {
	access, err := loadKeyPair(k.AccessPrivate, k.AccessPublic)
	if err != nil {
		return nil, fmt.Errorf("failed to load access key pair: %w", err)
	}

	refresh, err := loadKeyPair(k.RefreshPrivate, k.RefreshPublic)
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh key pair: %w", err)
	}

	if k.Issuer != "" {
		opts = append(opts, token.WithIssuer(k.Issuer))
	}

	return token.NewCodec(access, refresh, opts...)
}

func loadKeyPair(privateKey, publicKey string) (*token.KeyPair, error) {
	privatePEM, err := readPEM(privateKey)
	if err != nil {
		return nil, err
	}
	publicPEM, err := readPEM(publicKey)
	if err != nil {
		return nil, err
	}
	return token.ParseKeyPair(privatePEM, publicPEM)
}

func readPEM(value string) (string, error) {
	if strings.HasPrefix(strings.TrimSpace(value), "-----BEGIN") {
		return value, nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}
	return string(data), nil
}

type KeygenCmd struct {
	Dir   string `help:"directory to write keys to" default:"./.keys" type:"path"`
	Force bool   `help:"overwrite existing keys"`
}

func (k *KeygenCmd) Run(globals *Globals) error {
	if err := os.MkdirAll(k.Dir, 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	for _, role := range []token.KeyRole{token.RoleAccess, token.RoleRefresh} {
		if err := k.writePair(role.String()); err != nil {
			return err
		}
	}

	return nil
}

func (k *KeygenCmd) writePair(name string) error {
	privatePath := filepath.Join(k.Dir, name+".pem")
	publicPath := filepath.Join(k.Dir, name+".pub.pem")

	if !k.Force {
		if _, err := os.Stat(privatePath); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", privatePath)
		}
	}

	pair, err := token.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("failed to generate %s key pair: %w", name, err)
	}

	privatePEM, publicPEM, err := pair.EncodePEM()
	if err != nil {
		return fmt.Errorf("failed to encode %s key pair: %w", name, err)
	}

	if err := os.WriteFile(privatePath, privatePEM, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", privatePath, err)
	}
	if err := os.WriteFile(publicPath, publicPEM, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", publicPath, err)
	}

	log.Info().Str("private", privatePath).Str("public", publicPath).Msg("Wrote key pair")
	return nil
}
