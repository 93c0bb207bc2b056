package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
// Governance identities and the exchange rate are read once at startup and
// handed to modules as immutable values.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	AdminAccount   string
	ReserveAccount string
	ExchangeRate   uint64

	EnableOutboxRelay    bool
	EnablePurchaseEvents bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "agora"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	admin := strings.TrimSpace(os.Getenv("GOV_ADMIN_ACCOUNT"))
	reserve := strings.TrimSpace(os.Getenv("GOV_RESERVE_ACCOUNT"))
	if reserve == "" {
		// The reserve is the administrator's balance unless split explicitly.
		reserve = admin
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		AdminAccount:   admin,
		ReserveAccount: reserve,
		ExchangeRate:   envUint("EXCHANGE_RATE", 100),

		EnableOutboxRelay:    envBool("ENABLE_OUTBOX_RELAY", true),
		EnablePurchaseEvents: envBool("ENABLE_PURCHASE_EVENTS", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envUint(name string, fallback uint64) uint64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return fallback
	}
	return value
}
