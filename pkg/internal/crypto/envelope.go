// Package crypto 提供后端凭证的信封加密：由主密钥派生数据密钥，用 AEAD 加密存储。
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// keySalt 应用级固定盐；密钥强度依赖主密钥本身的熵。
	keySalt = "vaultshare/credential/v1"

	kdfIterations = 120_000
	keyLen        = 32

	nonceSize = 12 // GCM 标准 96-bit nonce
)

// ErrDecryptFailed 解密失败（密文损坏或主密钥不匹配）。认证失败时绝不返回部分明文。
var ErrDecryptFailed = errors.New("credential decrypt failed")

// DeriveKey 由主密钥派生 256-bit 数据密钥（PBKDF2-SHA256，固定盐）。
func DeriveKey(masterSecret string) []byte {
	return pbkdf2.Key([]byte(masterSecret), []byte(keySalt), kdfIterations, keyLen, sha256.New)
}

// Encrypt 用 AES-256-GCM 加密明文，随机 nonce 前置于密文，整体 base64url 编码。
func Encrypt(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("new gcm: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt 解密 Encrypt 的输出。任何解码或认证失败统一返回 ErrDecryptFailed，
// 不暴露底层 cipher/tag 细节。
func Decrypt(blob string, key []byte) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return "", ErrDecryptFailed
	}

	if len(raw) <= nonceSize {
		return "", ErrDecryptFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrDecryptFailed
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrDecryptFailed
	}

	plain, err := gcm.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptFailed
	}

	return string(plain), nil
}
