package config

import (
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
)

// Config is passed into components explicitly; nothing reads ambient process
// state after Load.
type Config struct {
	Port        string
	DatabaseURL string

	// Store PIX settings used by the payload builder.
	PixKey       string
	MerchantName string
	MerchantCity string

	// Shared secrets presented by the gateways on their webhook calls.
	CardWebhookToken string
	BankWebhookToken string

	// Order-alert channel and event fan-out.
	AlertWebhookURL string
	SNSTopicARN     string

	// Checkout refuses totals above this bound (cents).
	MaxOrderAmountCents int64
}

const defaultMaxOrderAmountCents = 100_000_000 // R$ 1.000.000,00

func Load() Config {
	return Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		PixKey:              os.Getenv("STORE_PIX_KEY"),
		MerchantName:        os.Getenv("STORE_MERCHANT_NAME"),
		MerchantCity:        os.Getenv("STORE_MERCHANT_CITY"),
		CardWebhookToken:    os.Getenv("CARD_WEBHOOK_TOKEN"),
		BankWebhookToken:    os.Getenv("BANK_WEBHOOK_TOKEN"),
		AlertWebhookURL:     os.Getenv("ORDER_ALERT_WEBHOOK_URL"),
		SNSTopicARN:         os.Getenv("AWS_SNS_TOPIC_ARN"),
		MaxOrderAmountCents: getEnvInt64("MAX_ORDER_AMOUNT_CENTS", defaultMaxOrderAmountCents),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
