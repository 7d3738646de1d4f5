package model

import "github.com/shopspring/decimal"

// ================ Config ================

type BillingConfig struct {
	ShopName       string  `envconfig:"SHOP_NAME" default:"VIJAY LAXMI FLOUR MILL"`
	TaxRate        float64 `envconfig:"TAX_RATE" default:"0.05"`
	TaxLabel       string  `envconfig:"TAX_LABEL" default:"GST"`
	CurrencySymbol string  `envconfig:"CURRENCY_SYMBOL" default:"₹"`
	Width          int     `envconfig:"BILL_WIDTH" default:"50"`
}

// Rate returns the configured tax rate as a decimal.
func (c BillingConfig) Rate() decimal.Decimal {
	return decimal.NewFromFloat(c.TaxRate)
}

type CatalogConfig struct {
	Source   string `envconfig:"CATALOG_SOURCE" default:"builtin"`
	File     string `envconfig:"CATALOG_FILE" default:"catalog.yaml"`
	RedisKey string `envconfig:"CATALOG_REDIS_KEY" default:"flourmill:catalog"`
}

type RecordConfig struct {
	Enabled bool   `envconfig:"RECORD_ENABLED" default:"true"`
	File    string `envconfig:"RECORD_FILE" default:"bill_data.csv"`
}

type PDFConfig struct {
	Dir string `envconfig:"PDF_DIR" default:"."`
}

type NotifyConfig struct {
	CountryCode string `envconfig:"WHATSAPP_COUNTRY_CODE" default:"+91"`
	OpenBrowser bool   `envconfig:"WHATSAPP_OPEN_BROWSER" default:"true"`
}

type VoiceConfig struct {
	APIKey        string  `envconfig:"GEMINI_API_KEY"`
	BaseURL       string  `envconfig:"GEMINI_BASE_URL"`
	Model         string  `envconfig:"VOICE_MODEL" default:"gemini-2.5-flash"`
	Language      string  `envconfig:"VOICE_LANGUAGE" default:"en-IN"`
	RecordCommand string  `envconfig:"VOICE_RECORD_COMMAND" default:"arecord -d 5 -f cd -t wav -q -"`
	MaxAttempts   int     `envconfig:"VOICE_MAX_ATTEMPTS" default:"3"`
	MaxTokens     int     `envconfig:"VOICE_MAX_TOKENS" default:"1000"`
	Temperature   float32 `envconfig:"VOICE_TEMPERATURE" default:"0.1"`
}

// Enabled reports whether voice input can be used at all.
func (c VoiceConfig) Enabled() bool {
	return c.APIKey != ""
}

type WebConfig struct {
	Addr string `envconfig:"WEB_ADDR" default:":8080"`
}
