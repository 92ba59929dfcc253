package mtls

import (
	"bytes"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"net/http"
	"time"

	pkcs12 "software.sslmate.com/src/go-pkcs12"

	"github.com/giantswarm/connauth/pkg/auth"
	"github.com/giantswarm/connauth/pkg/logging"
)

// certificateField is the connection record field reported in errors.
const certificateField = "oauth2ClientCertificate"

// Credential is a client certificate with its private key, ready to be
// presented during a TLS handshake.
type Credential struct {
	certificate tls.Certificate
	leaf        *x509.Certificate
	identity    string
}

// Load parses a client certificate and private key from raw bytes.
//
// PEM input must contain at least one CERTIFICATE block and one unencrypted
// private key block. Anything else is treated as a PKCS#12 archive and
// decoded with password (which may be empty).
//
// All failures are reported as *auth.ConfigurationError without echoing the
// input or the password.
func Load(certificate []byte, password string) (*Credential, error) {
	if len(certificate) == 0 {
		return nil, auth.NewConfigurationError(certificateField, "client certificate is required")
	}

	var (
		cert tls.Certificate
		err  error
	)
	if isPEM(certificate) {
		cert, err = loadPEM(certificate)
	} else {
		cert, err = loadPKCS12(certificate, password)
	}
	if err != nil {
		return nil, err
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, &auth.ConfigurationError{Field: certificateField, Reason: "client certificate cannot be parsed", Err: err}
	}
	cert.Leaf = leaf

	if time.Now().After(leaf.NotAfter) {
		logging.Warn("MTLS", "Client certificate %s expired at %s", leaf.Subject.CommonName, leaf.NotAfter.Format(time.RFC3339))
	}

	c := &Credential{
		certificate: cert,
		leaf:        leaf,
		identity:    IdentityOf(certificate),
	}
	logging.Debug("MTLS", "Loaded client certificate subject=%q identity=%s", leaf.Subject.CommonName, c.identity[:16])
	return c, nil
}

func isPEM(data []byte) bool {
	return bytes.Contains(data, []byte("-----BEGIN "))
}

func loadPEM(data []byte) (tls.Certificate, error) {
	var certPEM, keyPEM []byte
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch {
		case block.Type == "CERTIFICATE":
			certPEM = append(certPEM, pem.EncodeToMemory(block)...)
		case block.Type == "ENCRYPTED PRIVATE KEY" || block.Headers["Proc-Type"] != "":
			return tls.Certificate{}, auth.NewConfigurationError(certificateField,
				"encrypted PEM private keys are not supported; supply a PKCS#12 archive instead")
		case isPrivateKeyBlock(block.Type):
			keyPEM = pem.EncodeToMemory(block)
		}
	}

	if len(certPEM) == 0 {
		return tls.Certificate{}, auth.NewConfigurationError(certificateField, "PEM input contains no certificate")
	}
	if len(keyPEM) == 0 {
		return tls.Certificate{}, auth.NewConfigurationError(certificateField, "PEM input contains no private key")
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, &auth.ConfigurationError{Field: certificateField, Reason: "certificate and private key do not form a valid pair", Err: err}
	}
	return cert, nil
}

func isPrivateKeyBlock(blockType string) bool {
	switch blockType {
	case "PRIVATE KEY", "RSA PRIVATE KEY", "EC PRIVATE KEY":
		return true
	}
	return false
}

func loadPKCS12(data []byte, password string) (tls.Certificate, error) {
	key, leaf, chain, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return tls.Certificate{}, auth.NewConfigurationError(certificateField, "incorrect certificate password")
		}
		// The decoder error only describes structure, never content.
		return tls.Certificate{}, &auth.ConfigurationError{Field: certificateField, Reason: "client certificate is not valid PKCS#12 or PEM", Err: err}
	}
	if key == nil {
		return tls.Certificate{}, auth.NewConfigurationError(certificateField, "PKCS#12 archive contains no private key")
	}

	cert := tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}
	for _, ca := range chain {
		cert.Certificate = append(cert.Certificate, ca.Raw)
	}
	return cert, nil
}

// IdentityOf returns the hex SHA-256 of the raw certificate input. It is
// used as the cache discriminator for mTLS tokens so that a cache lookup
// does not need to decrypt or parse the certificate.
func IdentityOf(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Identity returns the identity of the input this credential was loaded from.
func (c *Credential) Identity() string {
	return c.identity
}

// Certificate returns the TLS certificate (chain and private key).
func (c *Credential) Certificate() tls.Certificate {
	return c.certificate
}

// Subject returns the leaf certificate's common name.
func (c *Credential) Subject() string {
	return c.leaf.Subject.CommonName
}

// NotAfter returns the expiry of the leaf certificate.
func (c *Credential) NotAfter() time.Time {
	return c.leaf.NotAfter
}

// TLSConfig returns a TLS configuration presenting this credential. Trust
// settings (RootCAs, ServerName) are copied from base when it is non-nil.
func (c *Credential) TLSConfig(base *tls.Config) *tls.Config {
	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{}
	}
	cfg.Certificates = []tls.Certificate{c.certificate}
	if cfg.MinVersion < tls.VersionTLS12 {
		cfg.MinVersion = tls.VersionTLS12
	}
	return cfg
}

// HTTPClient returns a new HTTP client presenting this credential. The
// transport, trust settings and timeout are derived from base (nil means
// http.DefaultTransport and a 30s timeout). The returned client is not
// shared: keep it for one request or one session, then drop it.
//
// Only an *http.Transport can carry the certificate. Any other RoundTripper
// on base (instrumentation, proxies) is not used; a clone of
// http.DefaultTransport takes its place and a warning is logged.
func (c *Credential) HTTPClient(base *http.Client) *http.Client {
	timeout := 30 * time.Second
	var transport *http.Transport
	if base != nil {
		timeout = base.Timeout
		switch t := base.Transport.(type) {
		case *http.Transport:
			if t != nil {
				transport = t.Clone()
			}
		case nil:
		default:
			logging.Warn("MTLS", "Transport %T cannot present a client certificate, using a copy of the default transport instead", t)
		}
	}
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	transport.TLSClientConfig = c.TLSConfig(transport.TLSClientConfig)

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
