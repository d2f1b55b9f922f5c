package config

import (
	"fmt"
	"time"
)

// Connection is a database connection declared in the config file.
// Either DSN or the discrete host fields are used; the driver decides how
// the discrete fields are assembled into a DSN.
type Connection struct {
	// Name identifies the connection. A name that also exists in
	// config/database.php replaces that connection.
	Name string `yaml:"name"`

	// Driver is sqlite, pgsql, mysql or mariadb, as in Laravel.
	Driver string `yaml:"driver"`

	// DSN is passed to the driver unchanged when set.
	DSN string `yaml:"dsn,omitempty"`

	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"` //nolint:gosec // read from the user's own config file
}

// File represents the structure of the .aimap.yaml configuration file.
// Every field is optional; a zero value leaves the built-in default (or
// the command line flag) in place.
type File struct {
	Output         string        `yaml:"output,omitempty"`
	Compact        *bool         `yaml:"compact,omitempty"`
	Format         string        `yaml:"format,omitempty"`
	PHP            string        `yaml:"php,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	ConnectTimeout time.Duration `yaml:"connectTimeout,omitempty"`

	// Disable lists sections by switch name (db, files, models, ...).
	Disable []string `yaml:"disable,omitempty"`

	Directories []string     `yaml:"directories,omitempty"`
	ModelsDir   string       `yaml:"modelsDir,omitempty"`
	Exclude     []string     `yaml:"exclude,omitempty"`
	Connections []Connection `yaml:"connections,omitempty"`
}

// Apply merges the file into c. changed reports whether a command line
// flag was set explicitly; explicit flags always win over the file.
func (c *Config) Apply(f *File, changed func(flag string) bool) error {
	if f == nil {
		return nil
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if f.Output != "" && !changed("output") {
		c.Output = f.Output
	}
	if f.Compact != nil && !changed("compact") {
		c.Compact = *f.Compact
	}
	if f.Format != "" && !changed("format") {
		c.Format = f.Format
	}
	if f.PHP != "" && !changed("php") {
		c.PHPBinary = f.PHP
	}
	if f.Timeout != 0 && !changed("timeout") {
		c.Timeout = f.Timeout
	}
	if f.ConnectTimeout != 0 && !changed("connect-timeout") {
		c.ConnectTimeout = f.ConnectTimeout
	}

	for _, name := range f.Disable {
		s := Section(name)
		if !s.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownSection, name)
		}
		c.Disable(s)
	}

	if len(f.Directories) > 0 {
		c.Directories = f.Directories
	}
	if f.ModelsDir != "" {
		c.ModelsDir = f.ModelsDir
	}
	c.Exclude = append(c.Exclude, f.Exclude...)
	c.Connections = append(c.Connections, f.Connections...)
	return nil
}
