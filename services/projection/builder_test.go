package projection

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartMessage = "From: Ops <ops@billing.example.com>\r\n" +
	"To: Me <me@example.com>\r\n" +
	"Cc: team@example.com\r\n" +
	"Subject: =?UTF-8?Q?Invoice_=E2=84=964?=\r\n" +
	"Date: Mon, 02 Jan 2006 15:04:05 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>html first</p>\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"plain body\r\n" +
	"--b1--\r\n"

func TestBuild_Headers(t *testing.T) {
	p, err := Build(42, []string{`\Seen`}, []byte(multipartMessage))
	require.NoError(t, err)

	assert.Equal(t, uint32(42), p.UID)
	assert.Equal(t, "Invoice №4", p.Subject)
	assert.Contains(t, p.Sender, "ops@billing.example.com")
	assert.Equal(t, "billing.example.com", p.SenderDomain())
	assert.Contains(t, p.Recipients, "me@example.com")
	assert.Equal(t, "team@example.com", p.CC)
	assert.True(t, p.HasFlag(`\seen`))
	assert.Equal(t, time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC), p.Date.UTC())
}

func TestBuild_FirstPlainTextPart(t *testing.T) {
	p, err := Build(1, nil, []byte(multipartMessage))
	require.NoError(t, err)

	assert.Equal(t, "plain body", strings.TrimSpace(p.Body()))
}

func TestBuild_UntypedMultipartChildIsPlainText(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Subject: untyped part\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"b2\"\r\n" +
		"\r\n" +
		"--b2\r\n" +
		"\r\n" +
		"default typed body\r\n" +
		"--b2--\r\n"

	p, err := Build(1, nil, []byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "default typed body", strings.TrimSpace(p.Body()))
}

func TestBuild_Truncation(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Subject: " + strings.Repeat("s", 150) + "\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		strings.Repeat("b", 1500) + "\r\n"

	p, err := Build(1, nil, []byte(raw))
	require.NoError(t, err)

	assert.Len(t, p.Subject, MaxSubjectLength)
	assert.Len(t, p.Body(), MaxBodyLength)
}

func TestBuild_NoPlainPart(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Subject: html only\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<b>hi</b>\r\n"

	p, err := Build(1, nil, []byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "", p.Body())
	assert.True(t, p.Date.IsZero())
}
