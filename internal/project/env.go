package project

import (
	"os"
	"strings"
)

// ConvertEnv applies the conversions Laravel's env() helper performs on a
// raw environment string: the keywords true, false, empty and null (bare or
// parenthesised) become their typed values and a value wrapped in matching
// quotes loses the quotes. Everything else is returned unchanged as a string.
func ConvertEnv(raw string) any {
	switch strings.ToLower(raw) {
	case "true", "(true)":
		return true
	case "false", "(false)":
		return false
	case "empty", "(empty)":
		return ""
	case "null", "(null)":
		return nil
	}
	if len(raw) > 1 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '"' || first == '\'') && first == last {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

// EnvString returns the raw value of an environment variable. The process
// environment takes precedence over the project's .env file, as it does in
// Laravel.
func (p *Project) EnvString(name string) (string, bool) {
	if v, ok := os.LookupEnv(name); ok {
		return v, true
	}
	v, ok := p.dotenv[name]
	return v, ok
}

// Env returns an environment variable converted the way env() converts it.
// ok is false when the variable is not set anywhere.
func (p *Project) Env(name string) (any, bool) {
	raw, ok := p.EnvString(name)
	if !ok {
		return nil, false
	}
	return ConvertEnv(raw), true
}
