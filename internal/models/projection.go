package models

import (
	"regexp"
	"strings"
	"time"
)

var senderDomainRegex = regexp.MustCompile(`@([^\s>]+)`)

// MessageProjection is the read-only view of a fetched message used for
// classification. The body is computed on first use.
type MessageProjection struct {
	UID        uint32
	Subject    string
	Sender     string
	Recipients string
	CC         string
	Date       time.Time
	Flags      []string

	bodyFn     func() string
	body       string
	bodyLoaded bool
}

func NewMessageProjection(uid uint32, flags []string, bodyFn func() string) *MessageProjection {
	return &MessageProjection{
		UID:    uid,
		Flags:  flags,
		bodyFn: bodyFn,
	}
}

func (p *MessageProjection) Body() string {
	if !p.bodyLoaded {
		if p.bodyFn != nil {
			p.body = p.bodyFn()
		}
		p.bodyLoaded = true
	}
	return p.body
}

// SenderDomain returns the text following '@' in the sender up to
// whitespace or '>', or "" when there is none.
func (p *MessageProjection) SenderDomain() string {
	match := senderDomainRegex.FindStringSubmatch(p.Sender)
	if match == nil {
		return ""
	}
	return match[1]
}

func (p *MessageProjection) HasFlag(flag string) bool {
	for _, f := range p.Flags {
		if strings.EqualFold(f, flag) {
			return true
		}
	}
	return false
}
