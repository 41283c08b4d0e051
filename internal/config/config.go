// Package config holds the environment-driven service configuration and the
// WhatsApp template catalog.
package config

import (
	"fmt"

	"mitrabot/backend/internal/models"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration, populated from environment
// variables (a .env file is loaded first by the cmd binaries).
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"host=localhost user=user password=password dbname=mitrabot port=5432 sslmode=disable"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Gateway endpoints for outbound messages.
	WhatsAppTextURL     string `env:"WHATSAPP_TEXT_URL"`
	WhatsAppTemplateURL string `env:"WHATSAPP_TEMPLATE_URL"`

	// Media re-hosting gateway and the public base its keys resolve under.
	MediaUploadURL     string `env:"MEDIA_UPLOAD_URL"`
	MediaPublicBaseURL string `env:"MEDIA_PUBLIC_BASE_URL"`

	// PublicBaseURL is the citizen-facing site; status-lookup links are
	// built as PublicBaseURL?user=<slug>.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"https://better-gondia-bot.vercel.app"`

	LocalizationDir string `env:"LOCALIZATION_DIR" envDefault:"internal/localization"`

	Templates Templates
}

// Parse loads the configuration from the environment.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Template catalog keys. Each names one pre-approved WhatsApp template; the
// per-language template ids come from the environment.
const (
	TemplateLanguage     = "LANGUAGE"
	TemplateCompType     = "COMP_TYPE"
	TemplateTaluka       = "TALUKA"
	TemplateConfirmation = "CONFIRMATION"
	TemplateSuggestEnd   = "SUGGEST_END"
	TemplateInvalid      = "INVALID"
)

// Templates maps (language, key) pairs to WhatsApp template ids. The
// language picker is sent before a language is known, so it has a single id.
type Templates struct {
	Language string `env:"TEMPLATE_LANGUAGE"`

	CompTypeEN string `env:"TEMPLATE_COMP_TYPE_EN"`
	CompTypeHI string `env:"TEMPLATE_COMP_TYPE_HI"`
	CompTypeMR string `env:"TEMPLATE_COMP_TYPE_MR"`

	TalukaEN string `env:"TEMPLATE_TALUKA_EN"`
	TalukaHI string `env:"TEMPLATE_TALUKA_HI"`
	TalukaMR string `env:"TEMPLATE_TALUKA_MR"`

	ConfirmationEN string `env:"TEMPLATE_CONFIRMATION_EN"`
	ConfirmationHI string `env:"TEMPLATE_CONFIRMATION_HI"`
	ConfirmationMR string `env:"TEMPLATE_CONFIRMATION_MR"`

	SuggestEndEN string `env:"TEMPLATE_SUGGEST_END_EN"`
	SuggestEndHI string `env:"TEMPLATE_SUGGEST_END_HI"`
	SuggestEndMR string `env:"TEMPLATE_SUGGEST_END_MR"`

	InvalidEN string `env:"TEMPLATE_INVALID_EN"`
	InvalidHI string `env:"TEMPLATE_INVALID_HI"`
	InvalidMR string `env:"TEMPLATE_INVALID_MR"`
}

// Resolve returns the template id for a language and catalog key, falling
// back to the English id when the localized one is not configured. Unknown
// keys resolve to the empty string.
func (t Templates) Resolve(lang, key string) string {
	pick := func(en, hi, mr string) string {
		switch lang {
		case models.LanguageHindi:
			if hi != "" {
				return hi
			}
		case models.LanguageMarathi:
			if mr != "" {
				return mr
			}
		}
		return en
	}

	switch key {
	case TemplateLanguage:
		return t.Language
	case TemplateCompType:
		return pick(t.CompTypeEN, t.CompTypeHI, t.CompTypeMR)
	case TemplateTaluka:
		return pick(t.TalukaEN, t.TalukaHI, t.TalukaMR)
	case TemplateConfirmation:
		return pick(t.ConfirmationEN, t.ConfirmationHI, t.ConfirmationMR)
	case TemplateSuggestEnd:
		return pick(t.SuggestEndEN, t.SuggestEndHI, t.SuggestEndMR)
	case TemplateInvalid:
		return pick(t.InvalidEN, t.InvalidHI, t.InvalidMR)
	}
	return ""
}
