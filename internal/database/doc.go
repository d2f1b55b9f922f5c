// Package database reads the schema of a Laravel project's live database.
//
// Candidate connections come from config/database.php (see
// ResolveConnections). Each candidate is tried once, default first, and
// the first one that answers a ping is read through a driver specific
// Catalog:
//   - sqlite through modernc.org/sqlite and PRAGMA statements
//   - pgsql through jackc/pgx and pg_catalog
//   - mysql and mariadb through go-sql-driver/mysql and information_schema
//
// Every catalog reports columns, indexes and foreign keys in the shape of
// Laravel's Schema::getColumns(), getIndexes() and getForeignKeys(), so the
// map looks the same as one produced from inside the application.
//
// Design decision: the package only ever runs SELECT and PRAGMA queries
// and refuses to open a SQLite file that does not exist, because opening
// would create it. Mapping a project must never change it.
package database
