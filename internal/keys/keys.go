// Package keys manages the notebook's local SSH keypair and decides
// which keys registered on a remote endpoint belong to this notebook.
//
// Exactly one keypair is valid per notebook instance.  Every connect
// regenerates it from scratch; the previous pair is discarded so each
// connection attempt starts from a clean key state.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Rotator generates and serves the notebook's keypair.
type Rotator struct {
	privatePath string
	publicPath  string
	comment     string // notebook name, embedded in the public key
	logger      *slog.Logger
}

// NewRotator returns a Rotator writing the pair to privatePath and
// publicPath, with comment marking ownership.
func NewRotator(privatePath, publicPath, comment string, logger *slog.Logger) *Rotator {
	return &Rotator{
		privatePath: privatePath,
		publicPath:  publicPath,
		comment:     comment,
		logger:      logger,
	}
}

// Rotate discards any existing keypair, generates a fresh ed25519
// pair, and returns the new public key line.
func (r *Rotator) Rotate() (string, error) {
	if err := os.MkdirAll(filepath.Dir(r.privatePath), 0o700); err != nil {
		return "", fmt.Errorf("creating key directory: %w", err)
	}

	if _, err := os.Stat(r.privatePath); err == nil {
		r.logger.Warn("discarding existing keypair", "path", r.privatePath)
		// 0400 private keys need the write bit back before removal
		// is guaranteed on all filesystems.
		_ = os.Chmod(r.privatePath, 0o600)
		if err := os.Remove(r.privatePath); err != nil {
			return "", fmt.Errorf("removing old private key: %w", err)
		}
	}
	_ = os.Remove(r.publicPath)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generating keypair: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, r.comment)
	if err != nil {
		return "", fmt.Errorf("marshalling private key: %w", err)
	}
	if err := os.WriteFile(r.privatePath, pem.EncodeToMemory(block), 0o600); err != nil {
		return "", fmt.Errorf("writing private key: %w", err)
	}
	if err := os.Chmod(r.privatePath, 0o400); err != nil {
		return "", fmt.Errorf("restricting private key permissions: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("converting public key: %w", err)
	}
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub))) + " " + r.comment + "\n"
	if err := os.WriteFile(r.publicPath, []byte(line), 0o644); err != nil {
		return "", fmt.Errorf("writing public key: %w", err)
	}

	r.logger.Info("generated keypair", "path", r.privatePath, "comment", r.comment)
	return strings.TrimSpace(line), nil
}

// CurrentPublicKey returns the public key line of the current pair.
func (r *Rotator) CurrentPublicKey() (string, error) {
	data, err := os.ReadFile(r.publicPath)
	if err != nil {
		return "", fmt.Errorf("reading public key from %s: %w", r.publicPath, err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("public key file %s is empty", r.publicPath)
	}
	return key, nil
}

// PrivateKeyPath returns where the private half lives, for the tunnel.
func (r *Rotator) PrivateKeyPath() string { return r.privatePath }

// ── Ownership matching ───────────────────────────────────────────────

// Matcher decides whether a key registered on a remote endpoint
// belongs to this notebook.
type Matcher struct {
	substring bool
	name      string
}

// NewMatcher builds a Matcher for the notebook name.  With substring
// false the key's comment field must equal the name exactly; with
// substring true the name may appear anywhere in the key text, which
// is the historical rule and can claim keys of notebooks whose names
// merely contain this one.
func NewMatcher(name string, substring bool) Matcher {
	return Matcher{name: name, substring: substring}
}

// Matches reports whether key belongs to this notebook.
func (m Matcher) Matches(key string) bool {
	if m.substring {
		return strings.Contains(key, m.name)
	}
	_, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(key))
	if err != nil {
		return false
	}
	return comment == m.name
}

// Owned filters keys down to the ones this notebook owns.
func (m Matcher) Owned(keys []string) []string {
	var out []string
	for _, k := range keys {
		if m.Matches(k) {
			out = append(out, k)
		}
	}
	return out
}
