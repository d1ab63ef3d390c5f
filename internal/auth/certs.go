package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"authgate/internal/kv"
)

const maxCertBytes = 64 * 1024

// Provisioner fetches the identity provider's signing certificate and stores
// the derived public-key material. It runs once at boot, before the process
// accepts traffic; there is no degraded mode without a verification key.
type Provisioner struct {
	store   kv.Store
	client  *http.Client
	certURL string
}

// ProvisionerOption customizes a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithProvisionerHTTPClient overrides the HTTP client used for the fetch.
func WithProvisionerHTTPClient(client *http.Client) ProvisionerOption {
	return func(p *Provisioner) {
		p.client = client
	}
}

// WithCertURL overrides the certificate endpoint derived from the provider
// domain.
func WithCertURL(url string) ProvisionerOption {
	return func(p *Provisioner) {
		p.certURL = url
	}
}

// NewProvisioner creates a Provisioner fetching from https://{domain}/pem.
func NewProvisioner(store kv.Store, domain string, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		store:   store,
		client:  &http.Client{Timeout: 10 * time.Second},
		certURL: fmt.Sprintf("https://%s/pem", domain),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision fetches the PEM signing certificate and persists the public key
// in PEM and DER form alongside the DER certificate. Any previously stored
// key material is overwritten.
func (p *Provisioner) Provision(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.certURL, nil)
	if err != nil {
		return fmt.Errorf("build certificate request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch signing certificate: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch signing certificate: provider returned %s", resp.Status)
	}

	pemCert, err := io.ReadAll(io.LimitReader(resp.Body, maxCertBytes))
	if err != nil {
		return fmt.Errorf("read signing certificate: %w", err)
	}

	block, _ := pem.Decode(pemCert)
	if block == nil || block.Type != "CERTIFICATE" {
		return errors.New("signing certificate is not a PEM certificate")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return fmt.Errorf("parse signing certificate: %w", err)
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errors.New("signing certificate does not carry an RSA public key")
	}

	derPub, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}
	pemPub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: derPub})

	if err := p.store.Set(ctx, kv.KeyPubKeyPEM, pemPub); err != nil {
		return fmt.Errorf("store %s: %w", kv.KeyPubKeyPEM, err)
	}
	if err := p.store.Set(ctx, kv.KeyPubKeyDER, derPub); err != nil {
		return fmt.Errorf("store %s: %w", kv.KeyPubKeyDER, err)
	}
	if err := p.store.Set(ctx, kv.KeyCertDER, cert.Raw); err != nil {
		return fmt.Errorf("store %s: %w", kv.KeyCertDER, err)
	}

	return nil
}
