// Package pkcrypto implements the asymmetric framing used by Nagad's
// checkout API: RSA PKCS#1 v1.5 encryption of sensitive blocks and
// SHA-256 RSASSA-PKCS1v15 signatures, both base64-encoded on the wire.
// All functions are pure; key parsing accepts PEM or bare base64 DER
// since merchant panels hand out both.
package pkcrypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"
)

// ParsePublicKey parses an RSA public key from PEM ("PUBLIC KEY" /
// "RSA PUBLIC KEY") or bare base64 DER (PKIX or PKCS#1).
func ParsePublicKey(s string) (*rsa.PublicKey, error) {
	der, err := decodeKeyMaterial(s)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}

	if key, err := x509.ParsePKIXPublicKey(der); err == nil {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("invalid public key: not an RSA key")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	return rsaKey, nil
}

// ParsePrivateKey parses an RSA private key from PEM ("PRIVATE KEY" /
// "RSA PRIVATE KEY") or bare base64 DER (PKCS#8 or PKCS#1).
func ParsePrivateKey(s string) (*rsa.PrivateKey, error) {
	der, err := decodeKeyMaterial(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("invalid private key: not an RSA key")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return rsaKey, nil
}

// Encrypt encrypts plaintext with RSA PKCS#1 v1.5 and returns the
// base64-encoded ciphertext.
func Encrypt(pub *rsa.PublicKey, plaintext []byte) (string, error) {
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decodes the base64 ciphertext and decrypts it with RSA PKCS#1 v1.5.
func Decrypt(priv *rsa.PrivateKey, encoded string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decrypt: invalid base64: %w", err)
	}
	plaintext, err := rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

// Sign signs data with SHA-256 RSASSA-PKCS1v15 and returns the
// base64-encoded signature.
func Sign(priv *rsa.PrivateKey, data []byte) (string, error) {
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a base64-encoded SHA-256 RSASSA-PKCS1v15 signature over data.
func Verify(pub *rsa.PublicKey, data []byte, encodedSig string) error {
	sig, err := base64.StdEncoding.DecodeString(encodedSig)
	if err != nil {
		return fmt.Errorf("verify: invalid base64 signature: %w", err)
	}
	digest := sha256.Sum256(data)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	return nil
}

func decodeKeyMaterial(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty key")
	}

	if strings.Contains(s, "-----BEGIN") {
		block, _ := pem.Decode([]byte(s))
		if block == nil {
			return nil, fmt.Errorf("malformed PEM")
		}
		return block.Bytes, nil
	}

	// Merchant panels often hand out the bare base64 body with the PEM
	// armor stripped, sometimes with embedded newlines.
	compact := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)

	der, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("not PEM and not base64 DER: %w", err)
	}
	return der, nil
}
