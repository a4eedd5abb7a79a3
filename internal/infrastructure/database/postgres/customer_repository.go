package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-manager/internal/domain/customer"
	"customer-manager/internal/infrastructure/monitoring"
	"customer-manager/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

const backendName = "postgres"

const (
	createTableQuery = `
        CREATE TABLE IF NOT EXISTS customers (
            email         TEXT PRIMARY KEY,
            name          TEXT NOT NULL,
            address       TEXT NOT NULL DEFAULT '',
            balance       NUMERIC(14, 2) NOT NULL CHECK (balance >= 0),
            registered_at TIMESTAMPTZ NOT NULL,
            active        BOOLEAN NOT NULL DEFAULT TRUE,
            customer_type TEXT NOT NULL,
            discount_rate NUMERIC(5, 4),
            tier          TEXT
        )`

	selectCustomersQuery = `
        SELECT email, name, address, balance::text, registered_at, active, customer_type, discount_rate::text, tier
        FROM customers
        ORDER BY email ASC`

	deleteCustomersQuery = `DELETE FROM customers`

	insertCustomerQuery = `
        INSERT INTO customers (email, name, address, balance, registered_at, active, customer_type, discount_rate, tier)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

// CustomerRepository keeps the customer collection in a single table. Save
// replaces the table contents inside one transaction.
type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createTableQuery); err != nil {
		r.logger.ErrorContext(ctx, "Failed to create customers table", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *CustomerRepository) Load(ctx context.Context) (records []customer.Record, err error) {
	start := time.Now()
	defer func() { monitoring.RecordStorageOperation(backendName, "load", err, time.Since(start)) }()

	r.logger.InfoContext(ctx, "Attempting to load all customers")

	rows, err := r.db.Query(ctx, selectCustomersQuery)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to query customers")
	}
	defer rows.Close()

	records = make([]customer.Record, 0)
	for rows.Next() {
		var (
			rec          customer.Record
			balance      string
			kind         string
			discountRate *string
			tier         *string
		)
		if err := rows.Scan(
			&rec.Email,
			&rec.Name,
			&rec.Address,
			&balance,
			&rec.RegisteredAt,
			&rec.Active,
			&kind,
			&discountRate,
			&tier,
		); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, apperrors.WrapDatabaseError(err, "failed to scan customer row")
		}

		if err := fillRecord(&rec, balance, kind, discountRate, tier); err != nil {
			r.logger.WarnContext(ctx, "Skipping malformed customer row", slog.String("email", rec.Email), slog.Any("error", err))
			continue
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "error iterating customer rows")
	}

	r.logger.InfoContext(ctx, "Finished loading customers", slog.Int("count", len(records)))
	return records, nil
}

func fillRecord(rec *customer.Record, balance, kind string, discountRate, tier *string) error {
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return fmt.Errorf("%w: balance %q: %w", apperrors.ErrInvalidArgument, balance, err)
	}
	rec.Balance = b
	rec.Type = customer.Kind(kind)

	if discountRate != nil {
		rate, err := decimal.NewFromString(*discountRate)
		if err != nil {
			return fmt.Errorf("%w: discount rate %q: %w", apperrors.ErrInvalidArgument, *discountRate, err)
		}
		rec.DiscountRate = &rate
	}
	if tier != nil {
		rec.Tier = customer.Tier(*tier)
	}
	return rec.Validate()
}

func (r *CustomerRepository) Save(ctx context.Context, records []customer.Record) (err error) {
	start := time.Now()
	defer func() { monitoring.RecordStorageOperation(backendName, "save", err, time.Since(start)) }()

	r.logger.InfoContext(ctx, "Attempting to replace customers", slog.Int("count", len(records)))

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = r.RollbackTx(ctx, tx)
		}
	}()

	if _, err = tx.Exec(ctx, deleteCustomersQuery); err != nil {
		r.logger.ErrorContext(ctx, "Failed to clear customers table", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	for _, rec := range records {
		if _, err = tx.Exec(ctx, insertCustomerQuery, insertArgs(rec)...); err != nil {
			r.logger.ErrorContext(ctx, "Failed to insert customer", slog.String("email", rec.Email), slog.Any("error", err))
			return translateDBError(err, r.logger)
		}
	}

	return r.CommitTx(ctx, tx)
}

func insertArgs(rec customer.Record) []any {
	var discountRate, tier *string
	if rec.DiscountRate != nil {
		rate := rec.DiscountRate.String()
		discountRate = &rate
	}
	if rec.Tier != "" {
		t := string(rec.Tier)
		tier = &t
	}
	return []any{
		rec.Email,
		rec.Name,
		rec.Address,
		rec.Balance.String(),
		rec.RegisteredAt,
		rec.Active,
		string(rec.Type),
		discountRate,
		tier,
	}
}

func (r *CustomerRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	r.logger.DebugContext(ctx, "Beginning transaction")
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *CustomerRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrDatabase, err)
	}
	r.logger.DebugContext(ctx, "Transaction committed successfully")
	return nil
}

func (r *CustomerRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to rollback transaction: %w", apperrors.ErrDatabase, err)
	}
	r.logger.InfoContext(ctx, "Transaction rolled back")
	return nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
}
