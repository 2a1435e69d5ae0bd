package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/forumlabs/moot/internal/config"
	"github.com/forumlabs/moot/internal/db"
)

func openDB() (*sql.DB, string, func(), error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, "", func() {}, err
	}
	storeDB, err := db.Open(db.DefaultPath(root))
	if err != nil {
		return nil, "", func() {}, err
	}
	return storeDB, root, func() { _ = storeDB.Close() }, nil
}

func loadConfig(root string) (config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = filepath.Join(".moot", "config.json")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("json")
	if err := viper.ReadInConfig(); err != nil {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := config.ValidateSettings(viper.AllSettings()); err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
