package config

// Redacted returns a copy of c with secrets replaced by "***", for logging.
func (c *Config) Redacted() Config {
	out := *c

	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.API.APIKey)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the copy.
	out.Run.Symbols = append([]string(nil), c.Run.Symbols...)
	out.Run.Strategies = append([]string(nil), c.Run.Strategies...)
	out.Notify.Events = append([]string(nil), c.Notify.Events...)
	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
