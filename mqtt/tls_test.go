// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"
)

func encryptPEMBlock(
	t *testing.T,
	passPhrase, plaintext []byte,
) *pem.Block {
	salt := make([]byte, saltSize)
	_, err := rand.Read(salt)
	require.NoError(t, err)

	nonce := make([]byte, nonceSize)
	_, err = rand.Read(nonce)
	require.NoError(t, err)

	key := pbkdf2.Key(passPhrase, salt, 10000, 32, sha3.New256)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)

	encrypted := append(salt, nonce...)
	encrypted = append(encrypted, gcm.Seal(nil, nonce, plaintext, nil)...)
	return &pem.Block{Type: "PRIVATE KEY", Bytes: encrypted}
}

func TestDecryptPEMBlock(t *testing.T) {
	passPhrase := []byte("thermostat-pass")
	plaintext := []byte("device private key")
	block := encryptPEMBlock(t, passPhrase, plaintext)

	t.Run("Valid", func(t *testing.T) {
		decrypted, err := decryptPEMBlock(block, passPhrase)
		require.NoError(t, err)
		require.Equal(t, plaintext, decrypted)
	})

	t.Run("NilBlock", func(t *testing.T) {
		_, err := decryptPEMBlock(nil, passPhrase)
		require.EqualError(t, err, "PEM block is nil")
	})

	t.Run("WrongPassPhrase", func(t *testing.T) {
		_, err := decryptPEMBlock(block, []byte("wrong"))
		require.Error(t, err)
	})

	t.Run("TooShort", func(t *testing.T) {
		short := &pem.Block{Type: block.Type, Bytes: block.Bytes[:15]}
		_, err := decryptPEMBlock(short, passPhrase)
		require.EqualError(t, err, "ciphertext in PEM block is too short")
	})
}

func writeKeyPair(t *testing.T, key *pem.Block) (certFile, keyFile string) {
	t.Helper()
	dir := t.TempDir()
	certFile = filepath.Join(dir, "device.pem")
	keyFile = filepath.Join(dir, "device.key")
	require.NoError(t, os.WriteFile(certFile, testCert.cert, 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(key), 0o600))
	return certFile, keyFile
}

var testCert = func() struct {
	key  *ecdsa.PrivateKey
	cert []byte
} {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "thermostat-01"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		panic(err)
	}
	return struct {
		key  *ecdsa.PrivateKey
		cert []byte
	}{key, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})}
}()

func TestWithEncryptedX509(t *testing.T) {
	passPhrase := []byte("secret")

	ecDER, err := x509.MarshalECPrivateKey(testCert.key)
	require.NoError(t, err)
	pkcs8DER, err := x509.MarshalPKCS8PrivateKey(testCert.key)
	require.NoError(t, err)

	//nolint:staticcheck // Legacy OpenSSL.
	legacy, err := x509.EncryptPEMBlock(
		rand.Reader,
		"EC PRIVATE KEY",
		ecDER,
		passPhrase,
		x509.PEMCipherAES256,
	)
	require.NoError(t, err)

	encryptedPKCS8, err := pkcs8.MarshalPrivateKey(testCert.key, passPhrase, nil)
	require.NoError(t, err)

	for name, key := range map[string]*pem.Block{
		"LegacyPEM": legacy,
		"PKCS8":     {Type: "ENCRYPTED PRIVATE KEY", Bytes: encryptedPKCS8},
		"Envelope":  encryptPEMBlock(t, passPhrase, pkcs8DER),
	} {
		t.Run(name, func(t *testing.T) {
			certFile, keyFile := writeKeyPair(t, key)

			var config tls.Config
			err := WithEncryptedX509(certFile, keyFile, passPhrase)(
				context.Background(),
				&config,
			)
			require.NoError(t, err)
			require.Len(t, config.Certificates, 1)
			require.True(t, testCert.key.Equal(config.Certificates[0].PrivateKey))

			err = WithEncryptedX509(certFile, keyFile, []byte("wrong"))(
				context.Background(),
				&tls.Config{},
			)
			require.Error(t, err)
		})
	}
}
