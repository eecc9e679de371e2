// Package dao 实现数据访问层
package dao

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caredraft/draft-sync-service/internal/model"
	"github.com/caredraft/draft-sync-service/pkg/fileurl"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type         string `yaml:"type" default:"sqlite"`
	Path         string `yaml:"path" default:"storage/database/draft-sync.db"`
	TablePrefix  string `yaml:"table-prefix" default:""`
	RunMode      string `yaml:"-"`
	MaxIdleConns int    `yaml:"max-idle-conns" default:"10"`
	MaxOpenConns int    `yaml:"max-open-conns" default:"30"`
}

// Dao 数据访问对象，持有数据库连接
type Dao struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Option Dao 可选配置
type Option func(*Dao)

// WithLogger 设置日志记录器
func WithLogger(lg *zap.Logger) Option {
	return func(d *Dao) {
		d.logger = lg
	}
}

// New 创建 Dao 实例
func New(db *gorm.DB, options ...Option) *Dao {
	d := &Dao{
		db:     db,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// DB 获取底层数据库连接
func (d *Dao) DB() *gorm.DB {
	return d.db
}

// NewDBEngineWithConfig 初始化 GORM 数据库引擎并迁移表结构
func NewDBEngineWithConfig(c DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {

	dialector := userDialector(c)
	if dialector == nil {
		return nil, fmt.Errorf("unsupported database type: %s", c.Type)
	}

	logMode := logger.Silent
	if c.RunMode == "debug" {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB ，配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.Type == "sqlite" && c.Path == ":memory:" {
		// 内存库只活在单个连接上，连接归还即销毁，必须固定为一个常驻连接
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Minute * 10)
	}

	for _, key := range []string{"User", "Section", "SectionVersion", "Comment"} {
		if err := model.AutoMigrate(db, key); err != nil {
			return nil, fmt.Errorf("auto migrate %s failed: %w", key, err)
		}
	}

	if lg != nil {
		lg.Info("database engine ready", zap.String("type", c.Type), zap.String("path", c.Path))
	}

	return db, nil
}

func userDialector(c DatabaseConfig) gorm.Dialector {
	if c.Type == "sqlite" {
		if c.Path == ":memory:" {
			return sqlite.Open(c.Path)
		}
		dir := filepath.Dir(c.Path)
		if !fileurl.IsExist(dir) {
			fileurl.CreatePath(dir, os.ModePerm)
		}
		return sqlite.Open(c.Path)
	}
	return nil
}
