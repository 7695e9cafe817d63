// Package keystore resolves device signing keys from configurable sources.
//
// A key source is described by a URI: a bare value is the key itself,
// env://VAR reads an environment variable, file:///path reads a file, and
// vault://addr/mount/path#field reads a HashiCorp Vault KV v2 secret. All
// sources except static re-read on every call, so key rotation needs no
// restart.
package keystore
