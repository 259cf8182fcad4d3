package course

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/widya-lms/widya-core/internal/sites"
	"github.com/widya-lms/widya-core/internal/vfs"
)

// SettingsPath is the well-known location of the course settings document.
const SettingsPath = "/course.yaml"

// ErrSettingsMalformed indicates the course settings document failed to
// parse or validate.
var ErrSettingsMalformed = errors.New("malformed course settings")

// Settings is the structured course document: title, locale, availability
// window and registration policy. Every field the core reads round-trips
// through Parse and Serialize without loss.
type Settings struct {
	Course  CourseInfo `yaml:"course"`
	RegForm RegForm    `yaml:"reg_form"`
}

// CourseInfo holds course-level presentation and availability fields.
type CourseInfo struct {
	Title        string `yaml:"title" validate:"required"`
	Locale       string `yaml:"locale"`
	NowAvailable bool   `yaml:"now_available"`
	Browsable    bool   `yaml:"browsable"`
	StartDate    string `yaml:"start_date,omitempty"`
	EndDate      string `yaml:"end_date,omitempty"`
}

// RegForm holds the registration policy.
type RegForm struct {
	CanRegister bool   `yaml:"can_register"`
	Whitelist   string `yaml:"whitelist,omitempty"`
}

// DefaultSettings mirrors the settings a brand-new course starts with.
func DefaultSettings() Settings {
	return Settings{
		Course: CourseInfo{
			Title:  "UNTITLED COURSE",
			Locale: "en_US",
		},
		RegForm: RegForm{CanRegister: true},
	}
}

// ParseSettings decodes and validates a course settings document.
func ParseSettings(data []byte) (Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrSettingsMalformed, err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(settings); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrSettingsMalformed, err)
	}
	return settings, nil
}

// SerializeSettings encodes settings back into the document form.
func SerializeSettings(settings Settings) ([]byte, error) {
	return yaml.Marshal(settings)
}

// LoadSettings reads the course settings for a context, falling back to the
// defaults when the document is absent.
func LoadSettings(ctx context.Context, appContext *sites.Context) (Settings, error) {
	entity, err := appContext.FS().Open(ctx, SettingsPath)
	if err != nil {
		return Settings{}, err
	}
	if entity == nil {
		return DefaultSettings(), nil
	}
	return ParseSettings(entity.Data)
}

// SaveSettings persists the course settings document.
func SaveSettings(ctx context.Context, appContext *sites.Context, settings Settings) error {
	data, err := SerializeSettings(settings)
	if err != nil {
		return err
	}
	return appContext.FS().Put(ctx, SettingsPath, data, vfs.PutOptions{})
}
