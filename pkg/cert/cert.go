// Package cert holds certificate material for device trust stores and the
// legacy subject-hash naming scheme those stores use.
package cert

import (
	"crypto/md5" //#nosec G501 -- compatibility hash, not security
	"crypto/sha1" //#nosec G505 -- trust store row identity, not security
	"crypto/x509"
	"encoding/binary"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
)

// Certificate is an immutable certificate value. The DER form is
// authoritative; the PEM form is derived on demand.
type Certificate struct {
	der []byte
	pem string
}

// FromDER builds a Certificate from DER bytes, validating that they parse.
func FromDER(der []byte) (*Certificate, error) {
	if _, err := x509.ParseCertificate(der); err != nil {
		return nil, fmt.Errorf("invalid DER certificate: %w", err)
	}
	return &Certificate{der: der}, nil
}

// FromPEM builds a Certificate from a PEM block.
func FromPEM(pemText string) (*Certificate, error) {
	der, err := PEMToDER(pemText)
	if err != nil {
		return nil, err
	}
	if _, err := x509.ParseCertificate(der); err != nil {
		return nil, fmt.Errorf("invalid certificate: %w", err)
	}
	return &Certificate{der: der, pem: pemText}, nil
}

// Load reads a certificate file in either PEM or DER encoding.
func Load(path string) (*Certificate, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided cert file
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	if strings.Contains(string(data), "-----BEGIN") {
		return FromPEM(string(data))
	}
	return FromDER(data)
}

// DER returns a copy of the DER bytes.
func (c *Certificate) DER() []byte {
	out := make([]byte, len(c.der))
	copy(out, c.der)
	return out
}

// PEM returns the PEM form, deriving it from DER when not already held.
func (c *Certificate) PEM() string {
	if c.pem != "" {
		return c.pem
	}
	return DERToPEM(c.der)
}

// SubjectHashOld computes the legacy trust-store identifier: the first
// four bytes of the MD5 digest of the subject distinguished name DER,
// read little-endian, as eight lowercase hex digits. Matches OpenSSL's
// X509_NAME_hash_old, which Android's cacerts directory expects.
func (c *Certificate) SubjectHashOld() (string, error) {
	parsed, err := x509.ParseCertificate(c.der)
	if err != nil {
		return "", fmt.Errorf("failed to parse certificate: %w", err)
	}
	sum := md5.Sum(parsed.RawSubject) //#nosec G401
	return fmt.Sprintf("%08x", binary.LittleEndian.Uint32(sum[:4])), nil
}

// TrustStoreFileName returns the on-device file name for this certificate,
// "{subject-hash}.0".
func (c *Certificate) TrustStoreFileName() (string, error) {
	hash, err := c.SubjectHashOld()
	if err != nil {
		return "", err
	}
	return hash + ".0", nil
}

// SHA1 returns the uppercase hex SHA-1 fingerprint of the certificate.
// iOS simulator trust store rows are keyed by it.
func (c *Certificate) SHA1() string {
	sum := sha1.Sum(c.der) //#nosec G401
	return strings.ToUpper(fmt.Sprintf("%x", sum))
}

// Subject returns the certificate's subject string for display.
func (c *Certificate) Subject() (string, error) {
	parsed, err := x509.ParseCertificate(c.der)
	if err != nil {
		return "", err
	}
	return parsed.Subject.String(), nil
}

// DERToPEM encodes DER certificate bytes as a PEM block.
func DERToPEM(der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

// PEMToDER decodes the first CERTIFICATE block in the PEM text.
func PEMToDER(pemText string) ([]byte, error) {
	rest := []byte(pemText)
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, fmt.Errorf("no CERTIFICATE block found in PEM input")
		}
		if block.Type == "CERTIFICATE" {
			return block.Bytes, nil
		}
	}
}
