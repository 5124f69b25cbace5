package database

import (
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cdennis121/Shipyard/internal/config"
	"github.com/cdennis121/Shipyard/internal/models"
)

var DB *gorm.DB

func Connect(dsn string) error {
	if dsn == "" {
		return errors.New("empty DSN")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(60 * time.Minute)

	DB = db
	return nil
}

func AutoMigrateAndSeed() error {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.App{},
		&models.Release{},
		&models.ReleaseFile{},
		&models.ApiKey{},
		&models.RolloutTracking{},
		&models.DownloadStat{},
	); err != nil {
		return err
	}
	return seedAdmin()
}

func seedAdmin() error {
	var count int64
	DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		return nil
	}
	user := models.User{
		Username: config.Current.AdminUsername,
		Role:     models.RoleAdmin,
	}
	if err := user.SetPassword(config.Current.AdminPassword); err != nil {
		return err
	}
	return DB.Create(&user).Error
}
