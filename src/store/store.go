package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/mbks/GhostfolioSidekick/src/logger"
	"github.com/mbks/GhostfolioSidekick/src/models"
)

// Store is the persistent holdings collection: parsed partial activities
// accumulate here per account until the reconciliation step picks them up.
// Duplicates are dropped on the natural key; a trade and its stamp-duty fee
// legitimately share an external id, so the activity type is part of it.
type Store struct {
	db *sql.DB
}

func New(databasePath string) (*Store, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS partial_activities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_name TEXT NOT NULL,
		external_id TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		currency TEXT,
		date TIMESTAMP NOT NULL,
		amount TEXT,
		quantity TEXT,
		unit_price TEXT,
		symbol_identifiers TEXT,
		to_symbol_identifiers TEXT,
		to_quantity TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_name, external_id, activity_type)
	);`
	if _, err := db.Exec(createTableStatement); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create partial_activities table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AddPartialActivity inserts activities in the order given, ignoring rows
// already present under the same natural key.
func (s *Store) AddPartialActivity(accountName string, activities ...models.PartialActivity) error {
	if len(activities) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO partial_activities
		(account_name, external_id, activity_type, currency, date, amount, quantity, unit_price, symbol_identifiers, to_symbol_identifiers, to_quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_name, external_id, activity_type) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range activities {
		symbols, err := json.Marshal(a.SymbolIdentifiers)
		if err != nil {
			return fmt.Errorf("failed to encode symbol identifiers for %s: %w", a.ExternalID, err)
		}
		toSymbols, err := json.Marshal(a.ToSymbolIdentifiers)
		if err != nil {
			return fmt.Errorf("failed to encode symbol identifiers for %s: %w", a.ExternalID, err)
		}

		_, err = stmt.Exec(
			accountName,
			a.ExternalID,
			string(a.Type),
			string(a.Currency),
			a.Date.UTC().Format(time.RFC3339),
			a.Amount.String(),
			a.Quantity.String(),
			a.UnitPrice.String(),
			string(symbols),
			string(toSymbols),
			a.ToQuantity.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert activity %s: %w", a.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activities: %w", err)
	}
	logger.L.Debug("Stored partial activities", "account", accountName, "count", len(activities))
	return nil
}

// Activities returns the stored activities for an account in insertion
// order, which preserves source row order within each parsed file.
func (s *Store) Activities(accountName string) ([]models.PartialActivity, error) {
	rows, err := s.db.Query(`SELECT external_id, activity_type, currency, date, amount, quantity, unit_price, symbol_identifiers, to_symbol_identifiers, to_quantity
		FROM partial_activities WHERE account_name = ? ORDER BY id`, accountName)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []models.PartialActivity
	for rows.Next() {
		var a models.PartialActivity
		var typ, currency, date, amount, quantity, unitPrice, symbols, toSymbols, toQuantity string
		if err := rows.Scan(&a.ExternalID, &typ, &currency, &date, &amount, &quantity, &unitPrice, &symbols, &toSymbols, &toQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}

		a.Type = models.ActivityType(typ)
		a.Currency = models.Currency(currency)

		a.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
		}
		a.Date = a.Date.UTC()

		if a.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		if a.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("invalid stored quantity %q: %w", quantity, err)
		}
		if a.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("invalid stored unit price %q: %w", unitPrice, err)
		}
		if a.ToQuantity, err = decimal.NewFromString(toQuantity); err != nil {
			return nil, fmt.Errorf("invalid stored quantity %q: %w", toQuantity, err)
		}
		if err := json.Unmarshal([]byte(symbols), &a.SymbolIdentifiers); err != nil {
			return nil, fmt.Errorf("invalid stored symbol identifiers %q: %w", symbols, err)
		}
		if err := json.Unmarshal([]byte(toSymbols), &a.ToSymbolIdentifiers); err != nil {
			return nil, fmt.Errorf("invalid stored symbol identifiers %q: %w", toSymbols, err)
		}

		activities = append(activities, a)
	}
	return activities, rows.Err()
}
