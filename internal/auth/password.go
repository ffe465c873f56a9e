// Пакет auth — пароли, хранилища сессий, зашифрованный cookie-снимок
// сессии и bearer-токены.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// legacyDigestLen — длина hex-записи SHA-256 из старой базы.
const legacyDigestLen = sha256.Size * 2

// ErrEmptyPassword — попытка хешировать пустой пароль.
var ErrEmptyPassword = errors.New("пустой пароль")

// Hasher хеширует пароли bcrypt и проверяет как bcrypt-хеши,
// так и несолёные SHA-256 hex-хеши, перенесённые из старой базы.
type Hasher struct {
	cost int
	// dummy — bcrypt-хеш той же стоимости, с которым сравнивается
	// пароль при неизвестном идентификаторе.
	dummy []byte
}

// NewHasher создаёт Hasher с указанной стоимостью bcrypt.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("brigadas-dummy-password"), cost)
	return &Hasher{cost: cost, dummy: dummy}
}

// Hash возвращает bcrypt-хеш пароля.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return string(digest), nil
}

// Verify сравнивает пароль с сохранённым хешем. Пустой хеш никогда не совпадает.
func (h *Hasher) Verify(plaintext, digest string) bool {
	switch {
	case digest == "":
		return false
	case isLegacyDigest(digest):
		// Время проверки не должно выдавать старые учётные записи.
		h.VerifyDummy(plaintext)
		computed := LegacyDigest(plaintext)
		return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(digest))) == 1
	default:
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
	}
}

// VerifyDummy тратит на сравнение столько же, сколько Verify с bcrypt-хешем,
// и всегда возвращает false. Вызывается, когда пользователь не найден.
func (h *Hasher) VerifyDummy(plaintext string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
	return false
}

// NeedsRehash сообщает, что хеш следует пересчитать: он в старом
// формате SHA-256 либо bcrypt с меньшей стоимостью, чем текущая.
func (h *Hasher) NeedsRehash(digest string) bool {
	if isLegacyDigest(digest) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return true
	}
	return cost < h.cost
}

// LegacyDigest — несолёный SHA-256 в нижнем hex, как в старой базе.
// Используется только для проверки перенесённых хешей и в тестах.
func LegacyDigest(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func isLegacyDigest(digest string) bool {
	if len(digest) != legacyDigestLen {
		return false
	}
	for _, c := range digest {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
