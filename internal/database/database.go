package database

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db               *gorm.DB
	adminID          int64
	defaultThreshold decimal.Decimal
}

// Models

type User struct {
	ID                   uint  `gorm:"primaryKey;autoIncrement"`
	UserID               int64 `gorm:"uniqueIndex"`
	Username             string
	Subscribed           bool `gorm:"default:false"`
	SubscriptionEnd      *time.Time
	NotificationInterval int             `gorm:"default:5"`
	PriceThreshold       decimal.Decimal `gorm:"type:decimal(10,4);default:1.0"`
	NotificationFormat   string          `gorm:"default:plain"`
	CreatedAt            time.Time
}

type Tracker struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	UserID       int64  `gorm:"index;uniqueIndex:idx_user_symbol"`
	Symbol       string `gorm:"uniqueIndex:idx_user_symbol"`
	InitialPrice decimal.Decimal `gorm:"type:decimal(20,8)"`
	LastPrice    decimal.Decimal `gorm:"type:decimal(20,8)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Invoice struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"`
	UserID    int64 `gorm:"index"`
	InvoiceID int64 `gorm:"uniqueIndex"`
	Hash      string `gorm:"uniqueIndex"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,8)"`
	Currency  string
	Status    string `gorm:"default:active"`
	CreatedAt time.Time
}

type SubscriptionPrice struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Period    string `gorm:"uniqueIndex"`
	PriceUSDT decimal.Decimal `gorm:"type:decimal(20,8)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrackerRow is one row of the watcher snapshot: a user joined with one of
// their trackers, or a user alone when they track nothing (empty Symbol).
type TrackerRow struct {
	UserID          int64
	Username        string
	IntervalMinutes int
	ThresholdPct    decimal.Decimal
	Format          string
	Symbol          string
	LastPrice       decimal.Decimal
}

// Settings are the per-user notification preferences.
type Settings struct {
	IntervalMinutes int
	Threshold       decimal.Decimal
	Format          string
}

func New(dbPath string, adminID int64, defaultThreshold decimal.Decimal) (*Database, error) {
	var db *gorm.DB
	var err error

	// Check if this is a PostgreSQL connection string
	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Database connected (PostgreSQL)")
	} else {
		// SQLite fallback
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dbPath).Msg("Database initialized (SQLite)")
	}

	if err := db.AutoMigrate(&User{}, &Tracker{}, &Invoice{}, &SubscriptionPrice{}); err != nil {
		return nil, err
	}

	if defaultThreshold.LessThanOrEqual(decimal.Zero) {
		defaultThreshold = decimal.NewFromFloat(1.0)
	}
	d := &Database{db: db, adminID: adminID, defaultThreshold: defaultThreshold}
	if err := d.seedSubscriptionPrices(); err != nil {
		return nil, err
	}

	return d, nil
}

// seedSubscriptionPrices inserts default plan prices on first start
func (d *Database) seedSubscriptionPrices() error {
	var count int64
	if err := d.db.Model(&SubscriptionPrice{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []SubscriptionPrice{
		{Period: "day", PriceUSDT: decimal.NewFromFloat(0.1)},
		{Period: "week", PriceUSDT: decimal.NewFromFloat(0.5)},
		{Period: "month", PriceUSDT: decimal.NewFromFloat(1.0)},
	}
	if err := d.db.Create(&defaults).Error; err != nil {
		return err
	}
	log.Info().Msg("Seeded default subscription prices")
	return nil
}

// User operations

// AddUser registers a user on first contact. Existing users are left untouched.
func (d *Database) AddUser(userID int64, username string) error {
	var existing User
	err := d.db.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user := User{
		UserID:               userID,
		Username:             username,
		NotificationInterval: 5,
		PriceThreshold:       d.defaultThreshold,
		NotificationFormat:   "plain",
	}
	if err := d.db.Create(&user).Error; err != nil {
		return err
	}
	log.Info().Int64("user_id", userID).Str("username", username).Msg("New user registered")
	return nil
}

// IsSubscribed reports whether the user holds an active subscription.
// The admin always passes. An expired subscription is reset on read.
func (d *Database) IsSubscribed(userID int64) bool {
	if userID == d.adminID {
		return true
	}

	var user User
	if err := d.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		return false
	}
	if !user.Subscribed {
		return false
	}
	if user.SubscriptionEnd != nil && !time.Now().Before(*user.SubscriptionEnd) {
		if err := d.SetSubscription(userID, false, 0); err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("Failed to reset expired subscription")
		}
		return false
	}
	return true
}

// SetSubscription activates or deactivates a subscription. When activating,
// the end date is now+days.
func (d *Database) SetSubscription(userID int64, active bool, days int) error {
	updates := map[string]interface{}{"subscribed": active}
	if active {
		end := time.Now().AddDate(0, 0, days)
		updates["subscription_end"] = &end
	} else {
		updates["subscription_end"] = nil
	}
	err := d.db.Model(&User{}).Where("user_id = ?", userID).Updates(updates).Error
	if err == nil {
		log.Info().Int64("user_id", userID).Bool("active", active).Int("days", days).Msg("Subscription updated")
	}
	return err
}

func (d *Database) SubscriptionEnd(userID int64) (*time.Time, error) {
	var user User
	if err := d.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return user.SubscriptionEnd, nil
}

// Tracker operations

// SetTracking starts or refreshes a watch on a symbol. A new tracker gets
// initial = last = price; an existing one keeps its initial price and only
// the last observed price moves.
func (d *Database) SetTracking(userID int64, symbol string, price decimal.Decimal) error {
	var tracker Tracker
	err := d.db.Where("user_id = ? AND symbol = ?", userID, symbol).First(&tracker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return d.db.Create(&Tracker{
			UserID:       userID,
			Symbol:       symbol,
			InitialPrice: price,
			LastPrice:    price,
		}).Error
	}
	if err != nil {
		return err
	}
	return d.db.Model(&Tracker{}).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Update("last_price", price).Error
}

func (d *Database) Tracking(userID int64) ([]Tracker, error) {
	var trackers []Tracker
	err := d.db.Where("user_id = ?", userID).Order("created_at").Find(&trackers).Error
	return trackers, err
}

// ListTrackersWithSettings returns the polling snapshot: one row per
// (user, tracker), and a bare row with an empty symbol for users that track
// nothing.
func (d *Database) ListTrackersWithSettings() ([]TrackerRow, error) {
	var users []User
	if err := d.db.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}

	var trackers []Tracker
	if err := d.db.Order("id").Find(&trackers).Error; err != nil {
		return nil, err
	}

	byUser := make(map[int64][]Tracker, len(users))
	for _, t := range trackers {
		byUser[t.UserID] = append(byUser[t.UserID], t)
	}

	rows := make([]TrackerRow, 0, len(users)+len(trackers))
	for _, u := range users {
		base := TrackerRow{
			UserID:          u.UserID,
			Username:        u.Username,
			IntervalMinutes: u.NotificationInterval,
			ThresholdPct:    u.PriceThreshold,
			Format:          u.NotificationFormat,
		}
		owned := byUser[u.UserID]
		if len(owned) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, t := range owned {
			row := base
			row.Symbol = t.Symbol
			row.LastPrice = t.LastPrice
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Settings operations

func (d *Database) UserSettings(userID int64) (Settings, error) {
	settings := Settings{
		IntervalMinutes: 5,
		Threshold:       d.defaultThreshold,
		Format:          "plain",
	}

	var user User
	if err := d.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return settings, nil
		}
		return settings, err
	}

	if user.NotificationInterval > 0 {
		settings.IntervalMinutes = user.NotificationInterval
	}
	if user.PriceThreshold.IsPositive() {
		settings.Threshold = user.PriceThreshold
	}
	if user.NotificationFormat != "" {
		settings.Format = user.NotificationFormat
	}
	return settings, nil
}

func (d *Database) UpdateInterval(userID int64, minutes int) error {
	return d.updateUserColumn(userID, "notification_interval", minutes)
}

func (d *Database) UpdateThreshold(userID int64, threshold decimal.Decimal) error {
	return d.updateUserColumn(userID, "price_threshold", threshold)
}

func (d *Database) UpdateFormat(userID int64, format string) error {
	return d.updateUserColumn(userID, "notification_format", format)
}

func (d *Database) updateUserColumn(userID int64, column string, value interface{}) error {
	err := d.db.Model(&User{}).Where("user_id = ?", userID).Update(column, value).Error
	if err == nil {
		log.Info().Int64("user_id", userID).Str("setting", column).Msg("User setting updated")
	}
	return err
}

// Subscription price operations

func (d *Database) SubscriptionPrices() (map[string]decimal.Decimal, error) {
	var prices []SubscriptionPrice
	if err := d.db.Order("period").Find(&prices).Error; err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(prices))
	for _, p := range prices {
		out[p.Period] = p.PriceUSDT
	}
	return out, nil
}

func (d *Database) SetSubscriptionPrice(period string, price decimal.Decimal) error {
	res := d.db.Model(&SubscriptionPrice{}).
		Where("period = ?", period).
		Updates(map[string]interface{}{"price_usdt": price, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return d.db.Create(&SubscriptionPrice{Period: period, PriceUSDT: price}).Error
	}
	return nil
}

// Invoice operations

func (d *Database) AddInvoice(userID, invoiceID int64, hash string, amount decimal.Decimal, currency string) error {
	return d.db.Create(&Invoice{
		UserID:    userID,
		InvoiceID: invoiceID,
		Hash:      hash,
		Amount:    amount,
		Currency:  currency,
		Status:    "active",
	}).Error
}

func (d *Database) ActiveInvoice(userID int64) (*Invoice, error) {
	var invoice Invoice
	err := d.db.Where("user_id = ? AND status = ?", userID, "active").
		Order("created_at DESC").First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (d *Database) UserInvoices(userID int64) ([]Invoice, error) {
	var invoices []Invoice
	err := d.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

func (d *Database) InvoiceByID(invoiceID int64) (*Invoice, error) {
	var invoice Invoice
	err := d.db.Where("invoice_id = ?", invoiceID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (d *Database) UpdateInvoiceStatus(invoiceID int64, status string) error {
	err := d.db.Model(&Invoice{}).Where("invoice_id = ?", invoiceID).Update("status", status).Error
	if err == nil {
		log.Info().Int64("invoice_id", invoiceID).Str("status", status).Msg("Invoice status updated")
	}
	return err
}

// Stats operations

type UserStats struct {
	Total        int64
	Subscribed   int64
	Unsubscribed int64
}

func (d *Database) GetUserStats() (UserStats, error) {
	var stats UserStats
	if err := d.db.Model(&User{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := d.db.Model(&User{}).Where("subscribed = ?", true).Count(&stats.Subscribed).Error; err != nil {
		return stats, err
	}
	stats.Unsubscribed = stats.Total - stats.Subscribed
	return stats, nil
}

// AllUsers returns every registered user, for broadcasts.
func (d *Database) AllUsers() ([]User, error) {
	var users []User
	err := d.db.Order("id").Find(&users).Error
	return users, err
}
