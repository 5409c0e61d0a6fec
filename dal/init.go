package dal

import (
	"context"
	"fmt"

	"github.com/regolith-labs/ore-cli-sub000/dal/do"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var GlobalDBClient *gorm.DB

func GetDB(ctx context.Context) *gorm.DB {
	if GlobalDBClient == nil {
		return nil
	}
	return GlobalDBClient.WithContext(ctx)
}

type DBConfig struct {
	Username string
	Password string
	// Address including the ip address and port of database (e.g. 127.0.0.1:3306)
	Address      string
	DatabaseName string
}

func (cfg *DBConfig) dsn(withDB bool) string {
	name := ""
	if withDB {
		name = cfg.DatabaseName
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", cfg.Username, cfg.Password,
		cfg.Address, name)
}

func InitDB(cfg *DBConfig, autoCreate bool) error {
	if autoCreate {
		err := CreateDatabase(cfg)
		if err != nil {
			return err
		}
		err = CreateTables(cfg)
		if err != nil {
			return err
		}
	}

	log.Infof("Connecting to database %v at %v...", cfg.DatabaseName, cfg.Address)

	db, err := gorm.Open(mysql.Open(cfg.dsn(true)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	GlobalDBClient = db

	log.Infof("Successfully connect to database")

	return nil
}

func CreateDatabase(cfg *DBConfig) error {
	log.Infof("Creating database %s...", cfg.DatabaseName)

	db, err := gorm.Open(mysql.Open(cfg.dsn(false)), nil)
	if err != nil {
		return err
	}

	createSQL := fmt.Sprintf(
		"CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4;",
		cfg.DatabaseName,
	)

	err = db.Exec(createSQL).Error
	if err != nil {
		log.Infof("Unable to create database %s...", cfg.DatabaseName)
		return err
	}
	return nil
}

func CreateTables(cfg *DBConfig) error {
	db, err := gorm.Open(mysql.Open(cfg.dsn(true)), nil)
	if err != nil {
		return err
	}

	log.Infof("Creating table mining_records...")
	err = db.AutoMigrate(&do.MiningRecord{})
	if err != nil {
		log.Infof("Fail to create table mining_records")
		return err
	}

	log.Infof("Creating table transaction_records...")
	err = db.AutoMigrate(&do.TransactionRecord{})
	if err != nil {
		log.Infof("Fail to create table transaction_records")
		return err
	}
	return nil
}
