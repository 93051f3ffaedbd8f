package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"paper-trader/internal/models"
	"paper-trader/internal/store"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database is the SQLite-backed store.
type Database struct {
	db *gorm.DB
}

var (
	_ store.Store       = (*Database)(nil)
	_ store.PriceWriter = (*Database)(nil)
)

// NewDatabase opens the SQLite database at dsn and migrates the schema.
func NewDatabase(dsn string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every new connection to an in-memory database sees an empty database.
	if strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// AutoMigrate creates or updates the tables. Existing rows are kept: the
// holdings and P&L tables are the durable state of the portfolio.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.DailyPrice{}, &models.Holding{}, &models.PnLRecord{}, &models.Trade{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// LatestPrice returns the most recent close price for symbol.
func (d *Database) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var price models.DailyPrice
	err := d.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("date desc").
		First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, store.ErrNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query price for %s: %w", symbol, err)
	}
	return price.ClosePrice, nil
}

// SavePrice upserts a price row on (symbol, date).
func (d *Database) SavePrice(ctx context.Context, p models.DailyPrice) error {
	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&p).Error
	if err != nil {
		return fmt.Errorf("failed to save price for %s on %s: %w", p.Symbol, p.Date, err)
	}
	return nil
}

// LoadHoldings returns every stored holding ordered by symbol.
func (d *Database) LoadHoldings(ctx context.Context) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := d.db.WithContext(ctx).Order("symbol").Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	return holdings, nil
}

// SaveHolding upserts the holding on symbol.
func (d *Database) SaveHolding(ctx context.Context, h models.Holding) error {
	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "avg_price"}),
		}).
		Create(&h).Error
	if err != nil {
		return fmt.Errorf("failed to save holding %s: %w", h.Symbol, err)
	}
	return nil
}

// DeleteHolding removes the holding row for symbol. Deleting an absent row is
// not an error.
func (d *Database) DeleteHolding(ctx context.Context, symbol string) error {
	if err := d.db.WithContext(ctx).Delete(&models.Holding{}, "symbol = ?", symbol).Error; err != nil {
		return fmt.Errorf("failed to delete holding %s: %w", symbol, err)
	}
	return nil
}

// UpsertPnL writes rec, replacing any existing row for the same date.
func (d *Database) UpsertPnL(ctx context.Context, rec models.PnLRecord) error {
	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"cash", "unrealized_pnl", "total"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save pnl for %s: %w", rec.Date, err)
	}
	return nil
}

// LatestPnL returns the most recent daily record.
func (d *Database) LatestPnL(ctx context.Context) (models.PnLRecord, error) {
	var rec models.PnLRecord
	err := d.db.WithContext(ctx).Order("date desc").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PnLRecord{}, store.ErrNotFound
	}
	if err != nil {
		return models.PnLRecord{}, fmt.Errorf("failed to query latest pnl: %w", err)
	}
	return rec, nil
}

// RecentPrices returns up to limit price rows, newest date first.
func (d *Database) RecentPrices(ctx context.Context, limit int) ([]models.DailyPrice, error) {
	var prices []models.DailyPrice
	if err := d.db.WithContext(ctx).Order("date desc, symbol").Limit(limit).Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("failed to query recent prices: %w", err)
	}
	return prices, nil
}

// PnLHistory returns up to limit daily records, newest first.
func (d *Database) PnLHistory(ctx context.Context, limit int) ([]models.PnLRecord, error) {
	var recs []models.PnLRecord
	if err := d.db.WithContext(ctx).Order("date desc").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to query pnl history: %w", err)
	}
	return recs, nil
}

// RecordTrade appends t to the journal.
func (d *Database) RecordTrade(ctx context.Context, t models.Trade) error {
	if err := d.db.WithContext(ctx).Create(&t).Error; err != nil {
		return fmt.Errorf("failed to record trade %s: %w", t.ID, err)
	}
	return nil
}

// ListTrades returns up to limit trades, newest first.
func (d *Database) ListTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	// ULIDs sort by execution time.
	if err := d.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
