package config

import (
	"crypto/tls"

	mail "github.com/go-mail/mail/v2"
)

// NewDialer builds the SMTP dialer. STARTTLS is mandatory on the submission
// port; ServerName must match the SMTP host for certificate checks.
func (s SMTPConfig) NewDialer() *mail.Dialer {
	port := s.Port
	if port == 0 {
		port = 587
	}
	d := mail.NewDialer(s.Host, port, s.User, s.Pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.SkipTLSVerify,
	}
	return d
}
