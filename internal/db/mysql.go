package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQLClient manages the connection to an XG or MariaDB server
type MySQLClient struct {
	db       *sql.DB
	database string
}

// NewMySQLClient opens and pings a server level connection for dsn. The
// database dsn names is only remembered, see Database.
func NewMySQLClient(ctx context.Context, dsn string) (*MySQLClient, error) {
	cfg, database, err := connectorConfig(dsn)
	if err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := sql.OpenDB(connector)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLClient{db: db, database: database}, nil
}

// connectorConfig parses dsn and takes the database segment out of it.
// Catalog queries name their schema explicitly, so a database that does
// not exist fails at introspection and not at connect time.
func connectorConfig(dsn string) (*mysql.Config, string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse connection string: %w", err)
	}
	database := cfg.DBName
	cfg.DBName = ""
	return cfg, database, nil
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

// Database returns the database named in the connection string
func (c *MySQLClient) Database() string {
	return c.database
}
