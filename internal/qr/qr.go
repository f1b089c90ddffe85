package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"github.com/skip2/go-qrcode"
)

// QRGenerator renders redemption codes as QR images. The code is AES
// encrypted before encoding so a screenshot of the QR cannot be typed in
// as a plain code at the door.
type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// GenerateTicketQR returns a PNG QR image containing the encrypted
// redemption code.
func (q *QRGenerator) GenerateTicketQR(code string) ([]byte, error) {
	encrypted, err := q.Encrypt(code)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func (q *QRGenerator) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(q.secret)
	if err != nil {
		return "", err
	}

	data := []byte(plaintext)
	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt recovers the redemption code from a scanned QR payload.
func (q *QRGenerator) Decrypt(encoded string) (string, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(ciphertext) < aes.BlockSize {
		return "", errors.New("ciphertext too short")
	}

	block, err := aes.NewCipher(q.secret)
	if err != nil {
		return "", err
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)

	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])

	return string(data), nil
}
