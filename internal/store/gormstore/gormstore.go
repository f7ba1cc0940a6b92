// Package gormstore is a users.Store built on the gorm object-relational
// mapper. It runs against PostgreSQL or SQLite depending on the DSN.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Tyrowin/bubingachat/internal/users"
)

type userModel struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"size:30;not null;uniqueIndex"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userModel) TableName() string { return "users" }

func (m userModel) toUser() users.User {
	return users.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open picks the postgres dialector for postgres:// URLs and SQLite for
// anything else, which is treated as a file path.
func Open(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the users table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&userModel{})
}

func (s *Store) CreateUser(ctx context.Context, nu users.NewUser) (users.User, error) {
	m := userModel{
		ID:           uuid.NewString(),
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    s.now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&userModel{}).
			Where("email = ? OR username = ?", m.Email, m.Username).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return users.ErrDuplicate
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return users.User{}, users.ErrDuplicate
		}
		return users.User{}, fmt.Errorf("gorm create user: %w", err)
	}

	return m.toUser(), nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (users.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *Store) FindByID(ctx context.Context, id string) (users.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *Store) FindByEmailOrUsername(ctx context.Context, email, username string) (users.User, error) {
	return s.first(ctx, "email = ? OR username = ?", email, username)
}

func (s *Store) first(ctx context.Context, query string, args ...any) (users.User, error) {
	var m userModel
	err := s.db.WithContext(ctx).Where(query, args...).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, fmt.Errorf("gorm query: %w", err)
	}
	return m.toUser(), nil
}
