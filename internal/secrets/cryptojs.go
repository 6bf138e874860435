package secrets

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"unicode/utf8"
)

var saltedMagic = []byte("Salted__")

const (
	cryptoJSKeyLen  = 32
	cryptoJSSaltLen = 8
)

// CryptoJS reads and writes the OpenSSL-compatible passphrase format used by
// CryptoJS.AES: base64("Salted__" || salt || AES-256-CBC(PKCS#7)), with key
// and IV derived by EVP_BytesToKey over MD5. The format carries no MAC, so
// tampering is only noticed when it breaks the padding or the UTF-8 check.
type CryptoJS struct {
	passphrase []byte
}

// NewCryptoJS returns a CryptoJS-compatible cipher for passphrase.
func NewCryptoJS(passphrase string) (*CryptoJS, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidKey)
	}
	return &CryptoJS{passphrase: []byte(passphrase)}, nil
}

// Encrypt encrypts plaintext under a fresh random salt.
func (c *CryptoJS) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, cryptoJSSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("%w: rand salt: %v", ErrEncryptionFailed, err)
	}

	key, iv := evpBytesToKey(c.passphrase, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	buf := make([]byte, 0, len(saltedMagic)+len(salt)+len(out))
	buf = append(buf, saltedMagic...)
	buf = append(buf, salt...)
	buf = append(buf, out...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decrypt decrypts a CryptoJS passphrase ciphertext.
func (c *CryptoJS) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", decryptError("base64 decode: %v", err)
	}

	header := len(saltedMagic) + cryptoJSSaltLen
	if len(data) < header+aes.BlockSize || !bytes.HasPrefix(data, saltedMagic) {
		return "", decryptError("not a salted ciphertext")
	}

	body := data[header:]
	if len(body)%aes.BlockSize != 0 {
		return "", decryptError("ciphertext is not a whole number of blocks")
	}

	key, iv := evpBytesToKey(c.passphrase, data[len(saltedMagic):header])
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", decryptError("%v", err)
	}

	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)

	plaintext, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", decryptError("plaintext is not valid UTF-8")
	}

	return string(plaintext), nil
}

// evpBytesToKey is OpenSSL's EVP_BytesToKey with MD5 and one iteration.
func evpBytesToKey(passphrase, salt []byte) (key, iv []byte) {
	var derived, block []byte
	for len(derived) < cryptoJSKeyLen+aes.BlockSize {
		h := md5.New()
		h.Write(block)
		h.Write(passphrase)
		h.Write(salt)
		block = h.Sum(nil)
		derived = append(derived, block...)
	}
	return derived[:cryptoJSKeyLen], derived[cryptoJSKeyLen : cryptoJSKeyLen+aes.BlockSize]
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, decryptError("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, decryptError("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, decryptError("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
