package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `fieldtrack - field worker journey tracking

Usage:
  fieldtrack --mode=<service> [--config-path=config.yaml]

Modes:
  journey-service    journey API, admin reports and live feed
  notifier-service   start-of-day reminders and auto-finalize notices

Flags:
  --mode          service to run
  --config-path   YAML config file (optional, default config.yaml)
  --help          show this message

Every setting can be overridden from the environment as SECTION_KEY,
for example DATABASE_HOST, AUTH_JWT_SECRET or JOURNEY_CURFEW_HOUR.
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}

// PrintConfig prints the non-secret settings the process starts with.
func PrintConfig(cfg *Config) {
	fmt.Printf("mode=%s http.port=%s database=%s:%s/%s rabbitmq=%s:%s redis=%q timezone=%s\n",
		cfg.Mode,
		cfg.HTTP.Port,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database,
		cfg.RabbitMQ.Host, cfg.RabbitMQ.Port,
		cfg.Redis.Addr,
		cfg.Journey.Timezone,
	)
}
