// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// A map run reads .env files and opens database connections, so warnings
// routinely carry values that must not end up in a terminal scrollback or a
// CI log. The SecureHandler masks:
//   - Laravel secrets by key (APP_KEY, DB_PASSWORD, MAIL_PASSWORD, ...)
//   - values that look like secrets (base64 app keys, JWTs, bearer tokens)
//   - passwords embedded in DSNs, in URL, go-sql-driver and key=value forms
//
// Even in verbose mode, sensitive values are masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("connection failed",
//	    "connection", "pgsql",
//	    "dsn", "postgres://app:secret@db:5432/shop", // password is masked
//	)
package log
