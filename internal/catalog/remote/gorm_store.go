package remote

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/silmarabolos/storefront/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStore keeps products in a SQL table through gorm.
// Ids are random UUIDs; createdAt/updatedAt are set by the database clock.
type GormStore struct {
	db   *gorm.DB
	name string
}

// OpenGorm connects to postgres or sqlite and migrates the product table.
func OpenGorm(driver, dsn string, debug bool) (*GormStore, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.Errorf("unsupported sql driver %q", driver)
	}

	level := logger.Silent
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", driver)
	}
	s := NewGormStore(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewGormStore wraps an existing gorm handle without migrating.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, name: db.Dialector.Name()}
}

func (s *GormStore) Name() string { return s.name }

// DB returns the underlying gorm handle.
func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Migrate() error {
	if err := s.db.Migrator().AutoMigrate(domain.Tables...); err != nil {
		return errors.Wrap(err, "migrate catalog tables")
	}
	return nil
}

// Reset drops and recreates the product table.
func (s *GormStore) Reset(ctx context.Context) error {
	_ = s.db.WithContext(ctx).Migrator().DropTable(domain.Tables...)
	return s.Migrate()
}

func (s *GormStore) List(ctx context.Context) ([]domain.Product, error) {
	var rows []domain.Product
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, s.wrap("list", err)
	}
	return rows, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return domain.Product{}, s.wrap("get", err)
	}
	return p, nil
}

func (s *GormStore) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.ID = uuid.NewString()
	p.UpdatedAt = nil
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Product{}).Where("id = ?", p.ID).
			UpdateColumn("created_at", serverNow()).Error
	})
	if err != nil {
		return domain.Product{}, s.wrap("insert", err)
	}
	return s.Get(ctx, p.ID)
}

func (s *GormStore) Merge(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	updates := patch.Fields(func(field string) string { return field })
	updates["updated_at"] = serverNow()

	res := s.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return domain.Product{}, s.wrap("merge", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *GormStore) Remove(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		return s.wrap("remove", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return s.wrap("ping", err)
	}
	return s.wrap("ping", sqlDB.PingContext(ctx))
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func serverNow() clause.Expr {
	return gorm.Expr("CURRENT_TIMESTAMP")
}

func (s *GormStore) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return domain.Unavailable(s.name, op, errors.WithStack(err))
}
