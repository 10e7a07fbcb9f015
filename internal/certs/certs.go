// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package certs resolves the CA bundle handed to the conversion library.
// Corporate TLS proxies re-sign traffic with their own root, so model
// downloads fail unless the converter is pointed at that root.
package certs

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertificates is returned when a bundle file holds no PEM certificates.
var ErrNoCertificates = errors.New("no PEM certificates found")

// Source describes where a bundle came from.
type Source string

const (
	SourceCustom Source = "custom"
	SourceSystem Source = "system"
	SourceNone   Source = "none"
)

// systemBundles lists well-known CA bundle locations, in lookup order.
var systemBundles = []string{
	"/etc/ssl/certs/ca-certificates.crt",
	"/etc/pki/tls/certs/ca-bundle.crt",
	"/etc/ssl/ca-bundle.pem",
	"/etc/pki/tls/cacert.pem",
	"/etc/ssl/cert.pem",
}

// Bundle is a resolved CA bundle.
type Bundle struct {
	Path   string
	Source Source

	// Warning is set when a requested custom bundle was not used.
	Warning string

	pem []byte
}

// Resolve picks the bundle for certFile. A set and existing certFile must
// contain at least one certificate. A set but missing certFile falls back
// to the system bundle with a warning.
func Resolve(certFile string) (Bundle, error) {
	return resolve(certFile, systemBundles)
}

func resolve(certFile string, candidates []string) (Bundle, error) {
	var warning string
	if certFile != "" {
		data, err := os.ReadFile(certFile)
		switch {
		case err == nil:
			if !x509.NewCertPool().AppendCertsFromPEM(data) {
				return Bundle{}, fmt.Errorf("certificate %s: %w", certFile, ErrNoCertificates)
			}
			return Bundle{Path: certFile, Source: SourceCustom, pem: data}, nil
		case errors.Is(err, os.ErrNotExist):
			warning = fmt.Sprintf("certificate not found at %s, using system bundle", certFile)
		default:
			return Bundle{}, fmt.Errorf("reading certificate %s: %w", certFile, err)
		}
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return Bundle{Path: p, Source: SourceSystem, Warning: warning}, nil
		}
	}
	return Bundle{Source: SourceNone, Warning: warning}, nil
}

// Env returns the environment assignments that point Python HTTP stacks at
// the bundle. It is empty when no bundle was found.
func (b Bundle) Env() []string {
	if b.Path == "" {
		return nil
	}
	return []string{
		"SSL_CERT_FILE=" + b.Path,
		"REQUESTS_CA_BUNDLE=" + b.Path,
	}
}

// TLSConfig returns a client TLS config trusting the system roots plus the
// custom bundle, if any.
func (b Bundle) TLSConfig() *tls.Config {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if len(b.pem) > 0 {
		pool.AppendCertsFromPEM(b.pem)
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
}
