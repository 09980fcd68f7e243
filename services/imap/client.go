package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailsort/config"
	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/tracing"
)

const (
	defaultDialTimeout = 30 * time.Second
	keepAlive          = 30 * time.Second
	logoutTimeout      = 5 * time.Second
	selectTimeout      = 30 * time.Second
)

// NewDialer returns a dialer that opens an authenticated session for the
// configured account on every call.
func NewDialer(cfg config.ImapConfig, log logger.Logger) interfaces.MailboxDialer {
	return func(ctx context.Context) (interfaces.Mailbox, error) {
		c, err := connect(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return newMailbox(c, log), nil
	}
}

func connect(ctx context.Context, cfg config.ImapConfig, log logger.Logger) (*client.Client, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAP.connect")
	defer span.Finish()
	tracing.SetDefaultImapSpanTags(ctx, span)
	security := enum.ParseEmailSecurity(cfg.ImapSecurity)
	span.SetTag("server", cfg.Server)
	span.SetTag("port", cfg.Port)
	span.SetTag("security", security.String())

	if cfg.Server == "" {
		err := errors.New("imap server is not configured")
		tracing.TraceErr(span, err)
		return nil, err
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)
	timeout := defaultDialTimeout
	if cfg.DialTimeoutSec > 0 {
		timeout = time.Duration(cfg.DialTimeoutSec) * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: keepAlive,
	}
	tlsConfig := &tls.Config{
		ServerName:         cfg.Server,
		InsecureSkipVerify: cfg.InsecureTLS,
	}

	var c *client.Client
	var err error
	if security.Implicit() {
		c, err = client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}
	if err != nil {
		err = errors.Wrapf(err, "connection error to %s", serverAddr)
		tracing.TraceErr(span, err)
		return nil, err
	}

	c.Timeout = timeout

	if security == enum.EmailSecurityStartTLS {
		if err = c.StartTLS(tlsConfig); err != nil {
			_ = c.Logout()
			err = errors.Wrap(err, "starttls error")
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	loginSpan := opentracing.StartSpan("IMAP.login", opentracing.ChildOf(span.Context()))
	loginSpan.SetTag("username", cfg.Username)
	if err = c.Login(cfg.Username, cfg.Password); err != nil {
		_ = c.Logout()
		err = errors.Wrapf(err, "login error as %s", cfg.Username)
		tracing.TraceErr(loginSpan, err)
		loginSpan.Finish()
		tracing.TraceErr(span, err)
		return nil, err
	}
	loginSpan.Finish()

	c.Timeout = 0

	log.Infof("Connected to %s as %s", serverAddr, cfg.Username)
	span.SetTag("success", true)
	return c, nil
}
