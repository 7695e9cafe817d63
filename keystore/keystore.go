package keystore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/sokoerp/etims-bridge/interfaces"
)

// FromURI creates a KeySource from a location URI. Supported schemes:
//
//   - static://<key> or a bare string: the key itself
//   - env://<VAR>: read from the environment on every call
//   - file:///path/to/key: read from a file on every call
//   - vault://addr/mount/path#field: HashiCorp Vault KV v2 secret
//
// A value without a scheme separator is treated as a static key, so plain
// keys in config files keep working.
func FromURI(uri string) (interfaces.KeySource, error) {
	if !strings.Contains(uri, "://") {
		return Static(uri), nil
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid key source URI: %w", err)
	}

	switch parsed.Scheme {
	case "static":
		return Static(parsed.Host + parsed.Path), nil
	case "env":
		return Env(parsed.Host), nil
	case "file":
		return File(parsed.Path), nil
	case "vault":
		return vaultFromURI(parsed)
	default:
		return nil, fmt.Errorf("unsupported key source scheme: %s", parsed.Scheme)
	}
}

// Static is a KeySource holding the key material directly.
type Static string

// SigningKey returns the literal key.
func (s Static) SigningKey(ctx context.Context) (string, error) {
	if s == "" {
		return "", interfaces.ErrMissingSigningKey
	}
	return string(s), nil
}

// Env reads the key from an environment variable on every call, so a key
// rotated via the environment takes effect without a restart.
type Env string

// SigningKey returns the variable's current value.
func (e Env) SigningKey(ctx context.Context) (string, error) {
	value := os.Getenv(string(e))
	if value == "" {
		return "", fmt.Errorf("%w: environment variable %s is empty", interfaces.ErrMissingSigningKey, string(e))
	}
	return value, nil
}

// File reads the key from a file on every call. Trailing whitespace is
// trimmed, so keys provisioned with a trailing newline work as-is.
type File string

// SigningKey returns the file's current content.
func (f File) SigningKey(ctx context.Context) (string, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("failed to read signing key file: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%w: key file %s is empty", interfaces.ErrMissingSigningKey, string(f))
	}
	return key, nil
}
