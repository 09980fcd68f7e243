package config

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"12222"`
	APIKey      string `env:"API_KEY"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

type ImapConfig struct {
	Server         string `env:"IMAP_SERVER"`
	Port           int    `env:"IMAP_PORT" envDefault:"993"`
	ImapSecurity   string `env:"IMAP_SECURITY" envDefault:"tls"`
	Username       string `env:"IMAP_USERNAME"`
	Password       string `env:"IMAP_PASSWORD"`
	AccountAddress string `env:"IMAP_ACCOUNT_ADDRESS"`
	InsecureTLS    bool   `env:"IMAP_INSECURE_SKIP_VERIFY" envDefault:"false"`
	DialTimeoutSec int    `env:"IMAP_DIAL_TIMEOUT_SECONDS" envDefault:"30"`
}

// Address returns the account address used for CC routing, falling back
// to the login name.
func (c *ImapConfig) Address() string {
	if c.AccountAddress != "" {
		return c.AccountAddress
	}
	return c.Username
}

type ClassifierConfig struct {
	PreserveUnread     bool     `env:"CLASSIFIER_PRESERVE_UNREAD" envDefault:"true"`
	CCEnabled          bool     `env:"CLASSIFIER_CC_ENABLED" envDefault:"false"`
	CCFolder           string   `env:"CLASSIFIER_CC_FOLDER" envDefault:"CC"`
	CCMarkReadAfter    bool     `env:"CLASSIFIER_CC_MARK_READ_AFTER" envDefault:"false"`
	CCSkipImportant    bool     `env:"CLASSIFIER_CC_SKIP_IMPORTANT" envDefault:"true"`
	CCSkipRecent       bool     `env:"CLASSIFIER_CC_SKIP_RECENT" envDefault:"false"`
	MaxMessages        int      `env:"CLASSIFIER_MAX_MESSAGES" envDefault:"0"`
	FilterUnreadOnly   bool     `env:"CLASSIFIER_FILTER_UNREAD_ONLY" envDefault:"false"`
	FilterSinceDays    int      `env:"CLASSIFIER_FILTER_SINCE_DAYS" envDefault:"0"`
	DryRun             bool     `env:"CLASSIFIER_DRY_RUN" envDefault:"false"`
	BackupBeforeMove   bool     `env:"CLASSIFIER_BACKUP_BEFORE_MOVE" envDefault:"false"`
	BatchSize          int      `env:"CLASSIFIER_BATCH_SIZE" envDefault:"50"`
	FoldersToScan      []string `env:"CLASSIFIER_FOLDERS_TO_SCAN" envSeparator:","`
	IncludeInbox       bool     `env:"CLASSIFIER_INCLUDE_INBOX" envDefault:"true"`
	ParallelProcessing bool     `env:"CLASSIFIER_PARALLEL_PROCESSING" envDefault:"false"`
	RulesFile          string   `env:"RULES_FILE" envDefault:"rules.json"`
	ChainsFile         string   `env:"CHAINS_FILE"`
	ProfileFile        string   `env:"PROFILE_FILE"`
}

type DatabaseConfig struct {
	Host            string `env:"MAILSORT_POSTGRES_HOST"`
	Port            string `env:"MAILSORT_POSTGRES_PORT" envDefault:"5432"`
	User            string `env:"MAILSORT_POSTGRES_USER"`
	DBName          string `env:"MAILSORT_POSTGRES_DB_NAME" envDefault:"mailsort"`
	Password        string `env:"MAILSORT_POSTGRES_PASSWORD"`
	MaxConn         int    `env:"MAILSORT_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"MAILSORT_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"MAILSORT_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"MAILSORT_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"MAILSORT_POSTGRES_SSL_MODE" envDefault:"disable"`
}

// Enabled reports whether run history should be persisted.
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}
