// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"

	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"
)

const (
	saltSize  = 8
	nonceSize = 12
)

// WithX509 presents the certificate and key from the given PEM files as the
// client certificate. The files are re-read on every connection so rotated
// certificates are picked up.
func WithX509(certFile, keyFile string) TLSOption {
	return func(_ context.Context, config *tls.Config) error {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return err
		}
		config.Certificates = []tls.Certificate{cert}
		return nil
	}
}

// WithEncryptedX509 presents a client certificate whose private key PEM block
// is encrypted with the given pass phrase. OpenSSL legacy encrypted PEM
// ("Proc-Type: 4,ENCRYPTED"), PKCS#8 "ENCRYPTED PRIVATE KEY" blocks and the
// salted AES-GCM envelope read by decryptPEMBlock are accepted.
func WithEncryptedX509(certFile, keyFile string, passPhrase []byte) TLSOption {
	return func(_ context.Context, config *tls.Config) error {
		cert, err := loadX509KeyPairWithPassPhrase(certFile, keyFile, passPhrase)
		if err != nil {
			return err
		}
		config.Certificates = []tls.Certificate{cert}
		return nil
	}
}

// WithCA trusts the CA certificates in the given PEM file.
func WithCA(caFile string) TLSOption {
	return func(_ context.Context, config *tls.Config) error {
		pool, err := loadCACertPool(caFile)
		if err != nil {
			return err
		}
		config.RootCAs = pool
		return nil
	}
}

func loadCACertPool(caFile string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("no CA certificates found in " + caFile)
	}
	return pool, nil
}

// The key PEM block holds an 8 byte salt followed by an AES-GCM nonce and
// ciphertext, keyed by PBKDF2-SHA3-256 of the pass phrase.
func decryptPEMBlock(block *pem.Block, passPhrase []byte) ([]byte, error) {
	if block == nil {
		return nil, errors.New("PEM block is nil")
	}
	if len(block.Bytes) < saltSize+nonceSize {
		return nil, errors.New("ciphertext in PEM block is too short")
	}

	salt := block.Bytes[:saltSize]
	key := pbkdf2.Key(passPhrase, salt, 10000, 32, sha3.New256)
	return aesGCMDecrypt(block.Bytes[saltSize:], key)
}

func aesGCMDecrypt(encrypted, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	nonce, ciphertext := encrypted[:nonceSize], encrypted[nonceSize:]

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func loadX509KeyPairWithPassPhrase(
	certFile, keyFile string,
	passPhrase []byte,
) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, err
	}

	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, err
	}

	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return tls.Certificate{}, errors.New(
			"failed to decode PEM block containing private key",
		)
	}

	key, err := decryptKey(block, passPhrase)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.X509KeyPair(certPEM, pem.EncodeToMemory(key))
}

// decryptKey returns the plaintext key block for any supported encryption.
func decryptKey(block *pem.Block, passPhrase []byte) (*pem.Block, error) {
	switch {
	case x509.IsEncryptedPEMBlock(block): //nolint:staticcheck // Legacy OpenSSL.
		der, err := x509.DecryptPEMBlock(block, passPhrase) //nolint:staticcheck
		if err != nil {
			return nil, err
		}
		return &pem.Block{Type: block.Type, Bytes: der}, nil

	case block.Type == "ENCRYPTED PRIVATE KEY":
		priv, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes, passPhrase)
		if err != nil {
			return nil, err
		}
		der, err := x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			return nil, err
		}
		return &pem.Block{Type: "PRIVATE KEY", Bytes: der}, nil

	default:
		der, err := decryptPEMBlock(block, passPhrase)
		if err != nil {
			return nil, err
		}
		return &pem.Block{Type: block.Type, Bytes: der}, nil
	}
}
