package services

import (
	"gorm.io/gorm"

	"github.com/customeros/mailsort/config"
	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/repository"
	"github.com/customeros/mailsort/services/classifier"
	"github.com/customeros/mailsort/services/events"
	"github.com/customeros/mailsort/services/imap"
	"github.com/customeros/mailsort/services/session"
)

type Services struct {
	Dialer       interfaces.MailboxDialer
	Publisher    interfaces.ReportPublisher
	Repositories *repository.Repositories
	Runner       *session.Runner
}

// InitServices wires the engine. db may be nil, in which case run history
// is only kept in memory. Report publishing is enabled by RABBITMQ_URL.
// Extra sinks receive the same events as the log.
func InitServices(cfg *config.Config, log logger.Logger, db *gorm.DB, extra ...interfaces.EventSink) (*Services, error) {
	services := &Services{
		Dialer: imap.NewDialer(*cfg.ImapConfig, log),
	}

	var runRepository interfaces.SessionRunRepository
	if db != nil {
		services.Repositories = repository.InitRepositories(db)
		runRepository = services.Repositories.SessionRunRepository
	}

	sinks := append([]interfaces.EventSink{events.NewLoggingSink(log)}, extra...)
	if cfg.AppConfig.RabbitMQURL != "" {
		publisherConfig := &events.PublisherConfig{
			MessageTTL:          events.DefaultMessageTTL,
			MaxRetries:          events.DefaultMaxRetries,
			PublishTimeout:      events.DefaultPublishTimeout,
			ReconnectBackoff:    events.DefaultReconnectBackoff,
			MaxReconnectBackoff: events.DefaultMaxReconnectBackoff,
		}
		publisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, cfg.ImapConfig.Address(), log, publisherConfig)
		if err != nil {
			return nil, err
		}
		services.Publisher = publisher
		sinks = append(sinks, events.NewPublishingSink(publisher, log))
	}

	controller := session.NewController(classifier.NewResolver(classifier.NewEvaluator()))
	services.Runner = session.NewRunner(services.Dialer, controller, events.NewMultiSink(sinks...), runRepository, log)

	return services, nil
}

func (s *Services) Close() error {
	if s.Publisher != nil {
		return s.Publisher.Close()
	}
	return nil
}
