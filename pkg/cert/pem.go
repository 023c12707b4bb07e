package cert

import (
	"crypto/ecdsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
)

// PEM encoding/decoding errors.
var (
	ErrInvalidPEM = errors.New("invalid PEM data")
)

// EncodeCertPEM encodes an X.509 certificate to PEM format.
func EncodeCertPEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: cert.Raw,
	})
}

// DecodeCertPEM decodes a PEM-encoded X.509 certificate.
func DecodeCertPEM(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, ErrInvalidPEM
	}
	return x509.ParseCertificate(block.Bytes)
}

// EncodeKeyPEM encodes an ECDSA private key to PEM format.
func EncodeKeyPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: der,
	}), nil
}

// DecodeKeyPEM decodes a PEM-encoded ECDSA private key.
func DecodeKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "EC PRIVATE KEY" {
		return nil, ErrInvalidPEM
	}
	return x509.ParseECPrivateKey(block.Bytes)
}

// Save writes an identity to cert and key PEM files. The key file is
// created with restricted permissions.
func (id *Identity) Save(certPath, keyPath string) error {
	if err := os.WriteFile(certPath, EncodeCertPEM(id.Certificate), 0644); err != nil {
		return err
	}
	keyPEM, err := EncodeKeyPEM(id.PrivateKey)
	if err != nil {
		return err
	}
	return os.WriteFile(keyPath, keyPEM, 0600)
}

// Load reads an identity from cert and key PEM files.
func Load(certPath, keyPath string) (*Identity, error) {
	certData, err := os.ReadFile(certPath)
	if err != nil {
		return nil, err
	}
	parsed, err := DecodeCertPEM(certData)
	if err != nil {
		return nil, err
	}
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}
	key, err := DecodeKeyPEM(keyData)
	if err != nil {
		return nil, err
	}
	return &Identity{
		Certificate: parsed,
		PrivateKey:  key,
		TLS: tls.Certificate{
			Certificate: [][]byte{parsed.Raw},
			PrivateKey:  key,
			Leaf:        parsed,
		},
	}, nil
}
