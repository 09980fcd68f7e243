package projection

import (
	"bytes"
	"net/mail"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/internal/utils"
)

const (
	MaxSubjectLength = 100
	MaxBodyLength    = 1000
)

// Build parses a raw RFC 5322 message into the projection used for
// classification. The body is decoded only when a condition asks for it.
func Build(uid uint32, flags []string, raw []byte) (*models.MessageProjection, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "parse message %d", uid)
	}

	projection := models.NewMessageProjection(uid, flags, func() string {
		return utils.Truncate(firstPlainText(envelope.Root), MaxBodyLength)
	})
	projection.Subject = utils.Truncate(envelope.GetHeader("Subject"), MaxSubjectLength)
	projection.Sender = envelope.GetHeader("From")
	projection.Recipients = envelope.GetHeader("To")
	projection.CC = envelope.GetHeader("Cc")

	if date := strings.TrimSpace(envelope.GetHeader("Date")); date != "" {
		if parsed, err := mail.ParseDate(date); err == nil {
			projection.Date = parsed
		}
	}

	return projection, nil
}

// firstPlainText returns the content of the first text/plain part in
// depth-first order.
func firstPlainText(part *enmime.Part) string {
	if part == nil {
		return ""
	}
	if isPlainText(part) && len(part.Content) > 0 {
		return string(part.Content)
	}
	for child := part.FirstChild; child != nil; child = child.NextSibling {
		if text := firstPlainText(child); text != "" {
			return text
		}
	}
	return ""
}

// isPlainText treats a multipart child without a Content-Type as
// text/plain, the MIME default.
func isPlainText(part *enmime.Part) bool {
	if strings.EqualFold(part.ContentType, "text/plain") {
		return true
	}
	return part.ContentType == "" && part.Parent != nil &&
		strings.HasPrefix(strings.ToLower(part.Parent.ContentType), "multipart/")
}
