package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
)

// encryptedPrefix tags stored values produced by the encryption middleware.
const encryptedPrefix = "enc:v1:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte

	// Columns are patterns of the columns to encrypt. Empty means every column but "id".
	Columns []string
}

type encryptionMiddleware struct {
	next     Store
	config   EncryptionConfig
	patterns []*regexp.Regexp
}

// NewEncryptionMiddleware creates a middleware that encrypts column values with AES-GCM.
// Values are stored as tagged base64 strings and decrypted again by ReadRows.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	patterns, err := compile(config.Columns)
	if err != nil {
		return nil, err
	}
	return func(next Store) Store {
		return &encryptionMiddleware{
			next:     next,
			config:   config,
			patterns: patterns,
		}
	}, nil
}

func (m *encryptionMiddleware) shouldEncrypt(column string) bool {
	if len(m.patterns) == 0 {
		return column != "id"
	}
	return matchAny(column, m.patterns)
}

func (m *encryptionMiddleware) Begin(ctx context.Context) (ports.Transaction, error) {
	return begin(ctx, m.next, func(object string, rows []domain.Row) ([]domain.Row, error) {
		out := make([]domain.Row, len(rows))
		for i, r := range rows {
			enc := make(domain.Row, len(r))
			for k, v := range r {
				if !m.shouldEncrypt(k) || v == nil {
					enc[k] = v
					continue
				}
				// 1. Serialize real value
				plainText, err := json.Marshal(v)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal %s.%s: %w", object, k, err)
				}
				// 2. Encrypt
				ciphertext, err := encrypt(plainText, m.config.ActiveKey)
				if err != nil {
					return nil, fmt.Errorf("failed to encrypt %s.%s: %w", object, k, err)
				}
				enc[k] = encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext)
			}
			out[i] = enc
		}
		return out, nil
	})
}

func (m *encryptionMiddleware) ReadRows(ctx context.Context, object string) ([]domain.Row, error) {
	rows, err := m.next.ReadRows(ctx, object)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		dec := make(domain.Row, len(r))
		for k, v := range r {
			s, ok := v.(string)
			if !ok || !strings.HasPrefix(s, encryptedPrefix) {
				// Plain values written before encryption was enabled stay readable.
				dec[k] = v
				continue
			}

			ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, encryptedPrefix))
			if err != nil {
				return nil, fmt.Errorf("failed to decode ciphertext base64 of %s.%s: %w", object, k, err)
			}
			// Try Active, then Fallback
			plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt %s.%s: %w", object, k, err)
			}
			var value any
			if err := json.Unmarshal(plainText, &value); err != nil {
				return nil, fmt.Errorf("failed to unmarshal decrypted %s.%s: %w", object, k, err)
			}
			dec[k] = value
		}
		out[i] = dec
	}
	return out, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
