package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Driver names registered with database/sql.
const (
	sqliteDriver   = "sqlite"
	postgresDriver = "pgx"
	mysqlDriver    = "mysql"
)

var (
	// ErrUnsupportedDriver is returned for Laravel drivers without a catalog,
	// such as sqlsrv.
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrDatabaseFileMissing is returned when a SQLite database file does
	// not exist. Opening it would silently create an empty database.
	ErrDatabaseFileMissing = errors.New("sqlite database file does not exist")
)

// Kind normalises a Laravel driver name to the catalog family.
func Kind(driver string) string {
	switch strings.ToLower(driver) {
	case "sqlite":
		return "sqlite"
	case "pgsql", "postgres", "postgresql":
		return "pgsql"
	case "mysql", "mariadb":
		return "mysql"
	default:
		return strings.ToLower(driver)
	}
}

// dataSource returns the database/sql driver name and DSN of a connection.
// basePath resolves relative SQLite paths.
func dataSource(c Connection, basePath string) (string, string, error) {
	switch Kind(c.Driver) {
	case "sqlite":
		dsn, err := sqliteDSN(c, basePath)
		return sqliteDriver, dsn, err
	case "pgsql":
		return postgresDriver, postgresDSN(c), nil
	case "mysql":
		dsn, err := mysqlDSN(c)
		return mysqlDriver, dsn, err
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Driver)
	}
}

func sqliteDSN(c Connection, basePath string) (string, error) {
	path := c.Database
	if c.URL != "" {
		path = strings.TrimPrefix(strings.TrimPrefix(c.URL, "sqlite://"), "sqlite:")
	}
	if path == ":memory:" {
		return path, nil
	}
	if path == "" {
		path = filepath.Join(basePath, "database", "database.sqlite")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(basePath, path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrDatabaseFileMissing, path)
	}
	return path, nil
}

func postgresDSN(c Connection) string {
	if c.URL != "" {
		u := c.URL
		if strings.HasPrefix(u, "pgsql://") {
			u = "postgres://" + strings.TrimPrefix(u, "pgsql://")
		}
		return u
	}

	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + c.Database,
	}
	if c.Username != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		} else {
			u.User = url.User(c.Username)
		}
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func mysqlDSN(c Connection) (string, error) {
	cfg := mysql.NewConfig()

	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil {
			return "", fmt.Errorf("invalid database url: %w", err)
		}
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		if u.Port() == "" {
			cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
		}
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		return cfg.FormatDSN(), nil
	}

	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.DBName = c.Database
	if c.UnixSocket != "" {
		cfg.Net = "unix"
		cfg.Addr = c.UnixSocket
	} else {
		host := c.Host
		if host == "" {
			host = "127.0.0.1"
		}
		port := c.Port
		if port == 0 {
			port = 3306
		}
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
	if c.Charset != "" {
		cfg.Params = map[string]string{"charset": c.Charset}
	}
	return cfg.FormatDSN(), nil
}
