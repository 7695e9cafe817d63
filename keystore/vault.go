package keystore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"

	"github.com/sokoerp/etims-bridge/interfaces"
)

// VaultSource reads the device signing key from a HashiCorp Vault KV v2
// secret. The key is fetched on every call; rotating the secret in Vault
// rotates the key without restarting the service.
type VaultSource struct {
	client    *vault.Client
	mountPath string
	dataPath  string
	field     string
}

// NewVaultSource creates a key source reading from the KV v2 mount at
// mountPath, secret dataPath, field within the secret. The VAULT_TOKEN
// environment variable supplies authentication via the SDK's defaults.
func NewVaultSource(address, mountPath, dataPath, field string) (*VaultSource, error) {
	config := vault.DefaultConfig()
	if address != "" {
		config.Address = address
	}
	config.Timeout = 10 * time.Second

	client, err := vault.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	return &VaultSource{
		client:    client,
		mountPath: strings.Trim(mountPath, "/"),
		dataPath:  strings.Trim(dataPath, "/"),
		field:     field,
	}, nil
}

// SigningKey reads the key field from the Vault secret.
func (v *VaultSource) SigningKey(ctx context.Context) (string, error) {
	// KV v2 read path
	path := fmt.Sprintf("%s/data/%s", v.mountPath, v.dataPath)

	secret, err := v.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read signing key from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%w: Vault secret %s not found", interfaces.ErrMissingSigningKey, path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid data format in Vault response for %s", path)
	}

	key, ok := data[v.field].(string)
	if !ok || key == "" {
		return "", fmt.Errorf("%w: field %s missing in Vault secret %s", interfaces.ErrMissingSigningKey, v.field, path)
	}
	return key, nil
}

// vaultFromURI parses vault://host:port/mount/path#field. The fragment names
// the secret field and defaults to "key".
func vaultFromURI(parsed *url.URL) (*VaultSource, error) {
	segments := strings.SplitN(strings.Trim(parsed.Path, "/"), "/", 2)
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return nil, fmt.Errorf("vault key source URI must be vault://addr/mount/path#field")
	}

	field := parsed.Fragment
	if field == "" {
		field = "key"
	}

	scheme := "https"
	if parsed.Query().Get("insecure") == "true" {
		scheme = "http"
	}

	return NewVaultSource(fmt.Sprintf("%s://%s", scheme, parsed.Host), segments[0], segments[1], field)
}
