package promapi

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"math"
	"time"
)

// expiringWithin is the window in which a still-valid certificate is
// reported as expiring.
const expiringWithin = 30 * 24 * time.Hour

// certificateProblem reports whether err is a TLS verification failure and,
// if so, describes the leaf certificate the server presented.
func certificateProblem(err error, now time.Time) (string, bool) {
	var (
		leaf     *x509.Certificate
		reason   string
		unknown  x509.UnknownAuthorityError
		invalid  x509.CertificateInvalidError
		hostname x509.HostnameError
		verify   *tls.CertificateVerificationError
	)
	switch {
	case errors.As(err, &invalid):
		leaf, reason = invalid.Cert, "certificate invalid"
	case errors.As(err, &hostname):
		leaf, reason = hostname.Certificate, fmt.Sprintf("certificate not valid for host %q", hostname.Host)
	case errors.As(err, &unknown):
		leaf, reason = unknown.Cert, "certificate signed by unknown authority"
	case errors.As(err, &verify):
		reason = "certificate verification failed"
		if len(verify.UnverifiedCertificates) > 0 {
			leaf = verify.UnverifiedCertificates[0]
		}
	default:
		return "", false
	}

	if leaf == nil {
		return reason, true
	}
	return reason + " (" + describeCertificate(leaf, now) + ")", true
}

// describeCertificate summarises subject, issuer and expiry of c.
func describeCertificate(c *x509.Certificate, now time.Time) string {
	left := c.NotAfter.Sub(now)
	days := int(math.Floor(left.Hours() / 24))

	var state string
	switch {
	case now.Before(c.NotBefore):
		state = "not valid before " + c.NotBefore.UTC().Format(time.RFC3339)
	case left <= 0:
		state = fmt.Sprintf("expired %s, %d days ago", c.NotAfter.UTC().Format(time.RFC3339), int(-left.Hours()/24))
	case left <= expiringWithin:
		state = fmt.Sprintf("expiring %s, %d days left", c.NotAfter.UTC().Format(time.RFC3339), days)
	default:
		state = "valid until " + c.NotAfter.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("subject %q, issuer %q, %s", c.Subject.CommonName, c.Issuer.CommonName, state)
}
