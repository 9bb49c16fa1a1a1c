package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIBaseURL  string `yaml:"api_base_url" json:"api_base_url"`
	LedgerDir   string `yaml:"ledger_dir" json:"ledger_dir"`
	PartRetries int    `yaml:"part_retries" json:"part_retries"`
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает
// актуальную структуру. Отсутствующий файл не ошибка: берутся дефолты.
func Load() (*Config, error) {
	c := defaults()

	path := getenv("CONFIG_PATH", "./config.yaml")
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, err
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	// ENV override
	if v := os.Getenv("API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("LEDGER_DIR"); v != "" {
		c.LedgerDir = v
	}
	if v := os.Getenv("PART_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.PartRetries = n
		}
	}

	return c, nil
}

func defaults() *Config {
	return &Config{
		APIBaseURL:  "http://localhost:8080",
		LedgerDir:   defaultLedgerDir(),
		PartRetries: 3,
	}
}

// defaultLedgerDir кладёт реестр загрузок в пользовательский кеш-каталог,
// иначе — рядом с рабочей директорией.
func defaultLedgerDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "upload_lite")
	}
	return "./.upload_lite"
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
