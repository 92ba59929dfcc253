package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// CertificateBundle is a freshly generated RSA key with a self-signed
// client certificate, for exercising mTLS and private-key-JWT code paths.
type CertificateBundle struct {
	Key         *rsa.PrivateKey
	Certificate *x509.Certificate
	CertPEM     []byte
	KeyPEM      []byte
}

// NewCertificateBundle generates a 2048-bit RSA key and a self-signed
// certificate valid for one hour with the given common name.
func NewCertificateBundle(commonName string) (*CertificateBundle, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName, Organization: []string{"connauth tests"}},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	return &CertificateBundle{
		Key:         key,
		Certificate: cert,
		CertPEM:     pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:      pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}),
	}, nil
}

// PEMBundle returns the certificate followed by the PKCS#8 private key.
func (b *CertificateBundle) PEMBundle() []byte {
	out := make([]byte, 0, len(b.CertPEM)+len(b.KeyPEM))
	out = append(out, b.CertPEM...)
	return append(out, b.KeyPEM...)
}

// PKCS1KeyPEM returns the private key in the "RSA PRIVATE KEY" encoding.
func (b *CertificateBundle) PKCS1KeyPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(b.Key)})
}

// PKCS12 encodes the key and certificate as a password-protected PKCS#12
// archive.
func (b *CertificateBundle) PKCS12(password string) ([]byte, error) {
	return pkcs12.Modern.Encode(b.Key, b.Certificate, nil, password)
}
