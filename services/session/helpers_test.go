package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/customeros/mailsort/dto"
	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/services/classifier"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func rawMessage(subject, from, to, cc string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	if cc != "" {
		fmt.Fprintf(&b, "Cc: %s\r\n", cc)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("Date: Mon, 02 Jan 2006 15:04:05 +0000\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Body of %s\r\n", subject)
	return b.String()
}

func moveRule(name string, priority int, keyword, folder string) models.Rule {
	return models.Rule{
		Name:           name,
		Priority:       priority,
		Condition:      models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorContains, Keyword: keyword},
		Action:         enum.ActionMove,
		Folder:         folder,
		StopProcessing: true,
	}
}

func newController() *Controller {
	return NewController(classifier.NewResolver(nil))
}

var messageDate = time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)

// recordingSink keeps everything the engine reports.
type recordingSink struct {
	mu       sync.Mutex
	events   []dto.Event
	progress []dto.ProgressUpdate
	reports  []models.SessionReport
}

func (s *recordingSink) Emit(event dto.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) Progress(update dto.ProgressUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, update)
}

func (s *recordingSink) Finish(report models.SessionReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
}

func (s *recordingSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]string, 0, len(s.events))
	for _, e := range s.events {
		messages = append(messages, string(e.Severity)+" "+e.Message)
	}
	return messages
}

func (s *recordingSink) count(prefix string) int {
	n := 0
	for _, m := range s.messages() {
		if strings.Contains(m, prefix) {
			n++
		}
	}
	return n
}
