package jsonfile

import (
	"context"
	"customer-manager/internal/domain/customer"
	"customer-manager/internal/infrastructure/monitoring"
	"customer-manager/internal/pkg/apperrors"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const backendName = "file"

// Layouts accepted for registeredAt. Files written by the legacy tool carry
// naive timestamps, which are read in the local zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// fileRecord is the on-disk shape of one customer. The Spanish keys are
// only read, never written.
type fileRecord struct {
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Address      string           `json:"address"`
	Balance      *decimal.Decimal `json:"balance"`
	RegisteredAt string           `json:"registeredAt"`
	Active       *bool            `json:"active"`
	Type         string           `json:"type"`
	DiscountRate *decimal.Decimal `json:"discountRate,omitempty"`
	Tier         string           `json:"tier,omitempty"`

	LegacyName         string           `json:"nombre,omitempty"`
	LegacyEmail        string           `json:"correo,omitempty"`
	LegacyAddress      string           `json:"direccion,omitempty"`
	LegacyBalance      *decimal.Decimal `json:"saldo,omitempty"`
	LegacyRegisteredAt string           `json:"fecha_registro,omitempty"`
	LegacyActive       *bool            `json:"activo,omitempty"`
	LegacyType         string           `json:"tipo,omitempty"`
	LegacyDiscountRate *decimal.Decimal `json:"descuento,omitempty"`
	LegacyTier         string           `json:"nivel_vip,omitempty"`
}

type Repository struct {
	path   string
	logger *slog.Logger
}

func NewRepository(path string, logger *slog.Logger) *Repository {
	return &Repository{
		path:   path,
		logger: logger.With(slog.String("component", "jsonFileRepository"), slog.String("path", path)),
	}
}

func (r *Repository) Path() string {
	return r.path
}

// Load reads the whole document. A missing file yields no records; a file
// that is not a JSON object is an error. Entries that cannot be decoded are
// skipped with a warning.
func (r *Repository) Load(ctx context.Context) (records []customer.Record, err error) {
	start := time.Now()
	defer func() { monitoring.RecordStorageOperation(backendName, "load", err, time.Since(start)) }()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.InfoContext(ctx, "Data file does not exist yet, starting empty")
			return []customer.Record{}, nil
		}
		return nil, apperrors.WrapStorageError(err, "failed to read customer data file")
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return []customer.Record{}, nil
	}

	var document map[string]json.RawMessage
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, apperrors.WrapStorageError(err, "customer data file is corrupt")
	}

	records = make([]customer.Record, 0, len(document))
	for key, raw := range document {
		rec, err := decodeEntry(key, raw)
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping malformed customer entry", slog.String("key", key), slog.Any("error", err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save replaces the document with records. The content is written to a
// temporary file in the same directory and renamed over the target.
func (r *Repository) Save(ctx context.Context, records []customer.Record) (err error) {
	start := time.Now()
	defer func() { monitoring.RecordStorageOperation(backendName, "save", err, time.Since(start)) }()

	document := make(map[string]fileRecord, len(records))
	for _, rec := range records {
		document[rec.Email] = encodeRecord(rec)
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return apperrors.WrapStorageError(err, "failed to encode customers")
	}

	if err := writeFileAtomic(r.path, data); err != nil {
		r.logger.ErrorContext(ctx, "Failed to write data file", slog.Any("error", err))
		return apperrors.WrapStorageError(err, "failed to write customer data file")
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func encodeRecord(rec customer.Record) fileRecord {
	balance := rec.Balance
	active := rec.Active
	return fileRecord{
		Name:         rec.Name,
		Email:        rec.Email,
		Address:      rec.Address,
		Balance:      &balance,
		RegisteredAt: rec.RegisteredAt.Format(time.RFC3339Nano),
		Active:       &active,
		Type:         string(rec.Type),
		DiscountRate: rec.DiscountRate,
		Tier:         string(rec.Tier),
	}
}

func decodeEntry(key string, raw json.RawMessage) (customer.Record, error) {
	var fr fileRecord
	if err := json.Unmarshal(raw, &fr); err != nil {
		return customer.Record{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidArgument, err)
	}

	rec := customer.Record{
		Name:         firstNonEmpty(fr.Name, fr.LegacyName),
		Email:        firstNonEmpty(fr.Email, fr.LegacyEmail, key),
		Address:      firstNonEmpty(fr.Address, fr.LegacyAddress),
		Type:         customer.Kind(firstNonEmpty(fr.Type, fr.LegacyType)),
		Tier:         customer.Tier(firstNonEmpty(fr.Tier, fr.LegacyTier)),
		DiscountRate: firstDecimal(fr.DiscountRate, fr.LegacyDiscountRate),
	}

	balance := firstDecimal(fr.Balance, fr.LegacyBalance)
	if balance == nil {
		return customer.Record{}, apperrors.NewValidationError("balance", "balance is required")
	}
	rec.Balance = *balance

	active := fr.Active
	if active == nil {
		active = fr.LegacyActive
	}
	rec.Active = active == nil || *active

	ts := firstNonEmpty(fr.RegisteredAt, fr.LegacyRegisteredAt)
	registeredAt, err := parseTimestamp(ts)
	if err != nil {
		return customer.Record{}, err
	}
	rec.RegisteredAt = registeredAt

	return rec, rec.Validate()
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperrors.NewValidationError("registeredAt", "registration timestamp is required")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("registeredAt", fmt.Sprintf("unrecognized timestamp %q", value))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstDecimal(values ...*decimal.Decimal) *decimal.Decimal {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

var _ customer.Repository = (*Repository)(nil)
