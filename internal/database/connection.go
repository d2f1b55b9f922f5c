package database

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nao1215/aimap/internal/config"
	"github.com/nao1215/aimap/internal/php"
	"github.com/nao1215/aimap/internal/project"
)

// Connection is one candidate database connection, as declared in
// config/database.php or in the aimap config file.
type Connection struct {
	Name   string
	Driver string

	// URL is Laravel's "url" option. When set it takes precedence over the
	// discrete fields.
	URL string

	Host     string
	Port     int
	Database string
	Username string
	Password string //nolint:gosec // connection settings are never logged unmasked

	// UnixSocket is the MySQL socket path, empty for TCP.
	UnixSocket string
	// SearchPath is the PostgreSQL schema, "public" when empty.
	SearchPath string
	// SSLMode is the PostgreSQL sslmode.
	SSLMode string
	// Charset is passed to MySQL.
	Charset string
}

// Schema returns the PostgreSQL schema the connection reads from.
func (c Connection) Schema() string {
	if c.SearchPath == "" {
		return "public"
	}
	return c.SearchPath
}

// ResolveConnections returns the candidate connections of a project in the
// order they are tried: the configured default first, then every other
// connection in declaration order. Extra connections replace same-named
// ones in place or are appended.
//
// When the project declares no connections at all (no config/database.php
// and no vendored framework), a single connection is built from the DB_*
// environment variables.
func ResolveConnections(ctx context.Context, p *project.Project, extra []config.Connection) []Connection {
	var declared []Connection

	if raw, ok := p.Config(ctx, "database.connections"); ok {
		if arr, ok := raw.(*php.Array); ok {
			for _, e := range arr.Entries {
				name, ok := php.StringValue(e.Key)
				if !ok {
					continue
				}
				settings, ok := e.Value.(*php.Array)
				if !ok {
					continue
				}
				declared = append(declared, fromSettings(name, settings))
			}
		}
	}

	if len(declared) == 0 {
		declared = append(declared, fromEnv(p))
	}

	for _, x := range extra {
		c := fromConfig(x)
		replaced := false
		for i := range declared {
			if declared[i].Name == c.Name {
				declared[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			declared = append(declared, c)
		}
	}

	def := p.ConfigString(ctx, "database.default", "")
	return orderByDefault(declared, def)
}

// orderByDefault moves the default connection to the front and keeps the
// relative order of the rest.
func orderByDefault(conns []Connection, def string) []Connection {
	out := make([]Connection, 0, len(conns))
	for _, c := range conns {
		if c.Name == def {
			out = append(out, c)
		}
	}
	for _, c := range conns {
		if c.Name != def {
			out = append(out, c)
		}
	}
	return out
}

func fromSettings(name string, s *php.Array) Connection {
	str := func(key string) string {
		v, _ := s.Get(key)
		if sv, ok := php.StringValue(v); ok {
			return sv
		}
		if iv, ok := v.(int64); ok {
			return strconv.FormatInt(iv, 10)
		}
		return ""
	}

	c := Connection{
		Name:       name,
		Driver:     str("driver"),
		URL:        str("url"),
		Host:       str("host"),
		Database:   str("database"),
		Username:   str("username"),
		Password:   str("password"),
		UnixSocket: str("unix_socket"),
		SSLMode:    str("sslmode"),
		Charset:    str("charset"),
	}
	if port, err := strconv.Atoi(str("port")); err == nil {
		c.Port = port
	}

	// search_path may be a string or a list; the first schema is used.
	if v, ok := s.Get("search_path"); ok {
		if sv, ok := php.StringValue(v); ok {
			c.SearchPath = firstSchema(sv)
		} else if arr, ok := v.(*php.Array); ok {
			if list := arr.Strings(); len(list) > 0 {
				c.SearchPath = list[0]
			}
		}
	} else if sv := str("schema"); sv != "" {
		c.SearchPath = sv
	}
	return c
}

func fromEnv(p *project.Project) Connection {
	get := func(name string) string {
		v, _ := p.EnvString(name)
		return v
	}
	c := Connection{
		Name:     get("DB_CONNECTION"),
		URL:      get("DB_URL"),
		Host:     get("DB_HOST"),
		Database: get("DB_DATABASE"),
		Username: get("DB_USERNAME"),
		Password: get("DB_PASSWORD"),
	}
	if c.Name == "" {
		c.Name = "sqlite"
	}
	c.Driver = c.Name
	if port, err := strconv.Atoi(get("DB_PORT")); err == nil {
		c.Port = port
	}
	if c.Driver == "sqlite" && c.Database == "" {
		c.Database = p.Path("database", "database.sqlite")
	}
	return c
}

func fromConfig(x config.Connection) Connection {
	return Connection{
		Name:     x.Name,
		Driver:   x.Driver,
		URL:      x.DSN,
		Host:     x.Host,
		Port:     x.Port,
		Database: x.Database,
		Username: x.Username,
		Password: x.Password,
	}
}

// firstSchema picks the first entry of a comma separated search_path,
// skipping the special "$user" entry.
func firstSchema(path string) string {
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == ',' {
			s := trimQuotes(path[start:i])
			if s != "" && s != "$user" {
				return s
			}
			start = i + 1
		}
	}
	return ""
}

func trimQuotes(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '"' || s[len(s)-1] == '\'') {
		s = s[:len(s)-1]
	}
	return s
}

// String identifies the connection in log output.
func (c Connection) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Driver)
}
