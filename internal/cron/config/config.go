package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Scheduled classification run, disabled when empty
	CronScheduleClassify string `env:"CRON_SCHEDULE_CLASSIFY"`
}
