// snapshot.go — зашифрованный cookie-снимок сессии (AES-256-GCM).
// Снимок позволяет восстановить сессию после перезапуска процесса,
// когда хранилище в памяти уже пусто.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// SessionCookieName — имя cookie со снимком сессии.
const SessionCookieName = "brigadas_session"

// SnapshotCodec шифрует и дешифрует model.Session в HTTP cookie.
type SnapshotCodec struct {
	gcm    cipher.AEAD
	secure bool
	maxAge time.Duration
}

// NewSnapshotCodec создаёт кодек снимков.
// key — base64 32-байтового ключа или произвольная строка (хешируется SHA-256).
// Пустой key — случайный ключ, снимки не переживают рестарт.
func NewSnapshotCodec(key string, secure bool, maxAge time.Duration) (*SnapshotCodec, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			h := sha256.Sum256([]byte(key))
			keyBytes = h[:]
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &SnapshotCodec{gcm: gcm, secure: secure, maxAge: maxAge}, nil
}

// Encrypt сериализует и шифрует сессию в base64url-строку.
func (c *SnapshotCodec) Encrypt(s *model.Session) (string, error) {
	plaintext, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	ciphertext := c.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt дешифрует снимок обратно в сессию.
func (c *SnapshotCodec) Decrypt(encrypted string) (*model.Session, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := c.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(plaintext, &s); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	return &s, nil
}

// SetCookie записывает снимок в ответ.
func (c *SnapshotCodec) SetCookie(w http.ResponseWriter, s *model.Session) error {
	encrypted, err := c.Encrypt(s)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encrypted,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// FromRequest извлекает снимок из cookie запроса.
// Возвращает nil, nil если cookie отсутствует.
func (c *SnapshotCodec) FromRequest(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}
	return c.Decrypt(cookie.Value)
}

// ClearCookie удаляет снимок (выход).
func (c *SnapshotCodec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
