// pkg/configloader/configloader.go
package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Options описывает источник конфигурации одного сервиса.
type Options struct {
	// Path — путь к YAML/JSON-файлу; пустой → только ENV и defaults.
	Path string
	// EnvPrefix — префикс ENV-переменных, например "REDDIT_COLLECTOR".
	EnvPrefix string
	// EnvFiles — .env-файлы, подгружаемые до чтения окружения.
	// Отсутствующие файлы пропускаются.
	EnvFiles []string
	// Defaults — значения по ключам viper ("kafka.topic" → "reddit-posts").
	Defaults map[string]interface{}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load загружает конфиг в cfgPtr: defaults → файл → ENV, затем
// проверяет теги `validate` и, если есть, метод Validate().
func Load(opts Options, cfgPtr interface{}) error {
	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return err
	}

	v := viper.New()

	// Шаг 1: defaults
	for key, val := range opts.Defaults {
		v.SetDefault(key, val)
	}

	// Шаг 2: environment override
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Шаг 3: read file (if provided)
	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("configloader: read config %q: %w", opts.Path, err)
		}
	}

	// Шаг 4: decode
	if err := decode(v.AllSettings(), cfgPtr); err != nil {
		return fmt.Errorf("configloader: decode failed: %w", err)
	}

	// Шаг 5: validate
	if err := validate.Struct(cfgPtr); err != nil {
		return fmt.Errorf("configloader: validation failed: %w", err)
	}
	if vv, ok := cfgPtr.(interface{ Validate() error }); ok {
		if err := vv.Validate(); err != nil {
			return fmt.Errorf("configloader: validation failed: %w", err)
		}
	}
	return nil
}

func loadEnvFiles(files []string) error {
	for _, f := range files {
		// godotenv не перезаписывает уже выставленные переменные
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("configloader: load env file %q: %w", f, err)
		}
	}
	return nil
}
