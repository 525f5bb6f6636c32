// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/domain"
)

type Config struct {
	Router       RouterConfig
	Portal       PortalConfig
	ChromeDriver ChromeDriverConfig
	Rotation     RotationConfig
	History      HistoryConfig
}

type RouterConfig struct {
	Addr          string
	AdminPassword string
}

type PortalConfig struct {
	LoginURL string
}

type ChromeDriverConfig struct {
	Path string
	Port int
}

type RotationConfig struct {
	Candidates domain.CandidateSet
	Thresholds domain.Thresholds
}

type HistoryConfig struct {
	Backend string
	Limit   int
	Redis   RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	router, err := buildRouterConfig()
	if err != nil {
		return Config{}, err
	}

	portal := PortalConfig{
		LoginURL: getEnv("USAGE_PORTAL_URL", "http://10.220.20.12/index.php/home/login"),
	}

	chromeDriver, err := buildChromeDriverConfig()
	if err != nil {
		return Config{}, err
	}

	thresholds, err := buildThresholds()
	if err != nil {
		return Config{}, err
	}

	candidates, err := buildCandidates(os.Getenv("PPPOE_CREDENTIALS"))
	if err != nil {
		return Config{}, err
	}

	history, err := buildHistoryConfig()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Router:       router,
		Portal:       portal,
		ChromeDriver: chromeDriver,
		Rotation: RotationConfig{
			Candidates: candidates,
			Thresholds: thresholds,
		},
		History: history,
	}, nil
}

func buildRouterConfig() (RouterConfig, error) {
	addr := getEnv("ROUTER_ADDR", "")
	if addr == "" {
		return RouterConfig{}, fmt.Errorf("ROUTER_ADDR is required")
	}

	adminPassword := os.Getenv("ROUTER_ADMIN_PASSWORD")
	if adminPassword == "" {
		return RouterConfig{}, fmt.Errorf("ROUTER_ADMIN_PASSWORD is required")
	}

	return RouterConfig{Addr: addr, AdminPassword: adminPassword}, nil
}

func buildChromeDriverConfig() (ChromeDriverConfig, error) {
	port, err := strconv.Atoi(getEnv("CHROMEDRIVER_PORT", "9515"))
	if err != nil {
		return ChromeDriverConfig{}, fmt.Errorf("invalid CHROMEDRIVER_PORT: %w", err)
	}

	return ChromeDriverConfig{
		Path: getEnv("CHROMEDRIVER_PATH", "chromedriver"),
		Port: port,
	}, nil
}

func buildThresholds() (domain.Thresholds, error) {
	switchMinutes, err := strconv.Atoi(getEnv("SWITCH_THRESHOLD_MINUTES", "10000"))
	if err != nil {
		return domain.Thresholds{}, fmt.Errorf("invalid SWITCH_THRESHOLD_MINUTES: %w", err)
	}
	availableMinutes, err := strconv.Atoi(getEnv("AVAILABLE_THRESHOLD_MINUTES", "10000"))
	if err != nil {
		return domain.Thresholds{}, fmt.Errorf("invalid AVAILABLE_THRESHOLD_MINUTES: %w", err)
	}
	disableMinutes, err := strconv.Atoi(getEnv("DISABLE_THRESHOLD_MINUTES", "11000"))
	if err != nil {
		return domain.Thresholds{}, fmt.Errorf("invalid DISABLE_THRESHOLD_MINUTES: %w", err)
	}

	return domain.Thresholds{
		Switch:    switchMinutes,
		Available: availableMinutes,
		Disable:   disableMinutes,
	}, nil
}

// buildCandidates interpreta pares NAME:SECRET separados por vírgula. Qualquer
// par malformado ou nome duplicado rejeita a configuração inteira.
func buildCandidates(raw string) (domain.CandidateSet, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("PPPOE_CREDENTIALS is required")
	}

	pool := make(map[string]string)
	for _, item := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(item), ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("credential pair must follow NAME:SECRET: %s", item)
		}

		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, fmt.Errorf("credential pair has an empty name: %s", item)
		}
		if _, exists := pool[name]; exists {
			return nil, fmt.Errorf("duplicate identity name in PPPOE_CREDENTIALS: %s", name)
		}

		pool[name] = parts[1]
	}

	return domain.NewCandidateSet(pool), nil
}

func buildHistoryConfig() (HistoryConfig, error) {
	backend := getEnv("HISTORY_BACKEND", "none")

	switch backend {
	case "none":
		return HistoryConfig{Backend: backend}, nil
	case "redis":
		redisConfig, err := buildRedisConfig()
		if err != nil {
			return HistoryConfig{}, err
		}

		limit, err := strconv.Atoi(getEnv("HISTORY_LIMIT", "100"))
		if err != nil {
			return HistoryConfig{}, fmt.Errorf("invalid HISTORY_LIMIT: %w", err)
		}
		if limit <= 0 {
			return HistoryConfig{}, fmt.Errorf("HISTORY_LIMIT must be positive")
		}

		return HistoryConfig{Backend: backend, Limit: limit, Redis: redisConfig}, nil
	default:
		return HistoryConfig{}, fmt.Errorf("unsupported history backend: %s", backend)
	}
}

func buildRedisConfig() (RedisConfig, error) {
	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
