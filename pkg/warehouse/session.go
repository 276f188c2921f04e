// pkg/warehouse/session.go
package warehouse

import (
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/inspections-elt/pkg/connector"
	"github.com/David-Botos/inspections-elt/pkg/model"
)

// Options tunes a Session. Zero values get defaults.
type Options struct {
	InsertChunkSize int           // rows per INSERT statement, default 1000
	QueryTimeout    time.Duration // per statement, default 5m
}

// Session provisions, loads and aggregates the inspections table over one
// exclusively owned warehouse connection.
type Session struct {
	conn         connector.WarehouseConnector
	db           *sqlx.DB
	dialect      Dialect
	table        model.TableMetadata
	chunkSize    int
	queryTimeout time.Duration
	verifier     *Verifier
	logger       *zap.Logger
}

// NewSession wraps conn. The session owns conn from here on; Close releases it.
func NewSession(conn connector.WarehouseConnector, opts Options, logger *zap.Logger) (*Session, error) {
	dialect, err := DialectFor(conn.Dialect())
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.Named("warehouse").With(zap.String("dialect", dialect.Name))

	if opts.InsertChunkSize <= 0 {
		opts.InsertChunkSize = 1000
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 5 * time.Minute
	}

	table := model.InspectionsTable
	if maxRows := dialect.maxRowsPerStatement(len(table.Columns)); maxRows > 0 && opts.InsertChunkSize > maxRows {
		logger.Warn("Insert chunk size exceeds bind parameter limit, clamping",
			zap.Int("requested", opts.InsertChunkSize),
			zap.Int("max", maxRows))
		opts.InsertChunkSize = maxRows
	}

	return &Session{
		conn:         conn,
		db:           conn.DB(),
		dialect:      dialect,
		table:        table,
		chunkSize:    opts.InsertChunkSize,
		queryTimeout: opts.QueryTimeout,
		verifier:     NewVerifier(conn, logger).WithTimeout(opts.QueryTimeout),
		logger:       logger,
	}, nil
}

// Dialect returns the session's SQL dialect
func (s *Session) Dialect() Dialect {
	return s.dialect
}

// Close releases the warehouse connection
func (s *Session) Close() error {
	return s.conn.Close()
}
