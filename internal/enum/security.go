package enum

import "strings"

type EmailSecurity string

const (
	EmailSecurityNone     EmailSecurity = "none"
	EmailSecuritySSL      EmailSecurity = "ssl"
	EmailSecurityTLS      EmailSecurity = "tls"
	EmailSecurityStartTLS EmailSecurity = "startTLS"
)

func (t EmailSecurity) String() string {
	return string(t)
}

// ParseEmailSecurity maps a configured value onto a known mode, defaulting
// to implicit TLS.
func ParseEmailSecurity(value string) EmailSecurity {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none", "plain":
		return EmailSecurityNone
	case "starttls":
		return EmailSecurityStartTLS
	case "ssl":
		return EmailSecuritySSL
	default:
		return EmailSecurityTLS
	}
}

// Implicit reports whether the connection is wrapped in TLS from the start.
func (t EmailSecurity) Implicit() bool {
	return t == EmailSecurityTLS || t == EmailSecuritySSL
}
