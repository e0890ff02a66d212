// =============================================================================
// Bulk Poster - Configuration Module
// =============================================================================
//
// This module loads the application configuration: remote endpoints, account
// credentials, HTTP and logging settings, and the options used when reading
// batch files and writing archives.
//
// SOURCES (later wins):
//   1. Built-in defaults
//   2. config.yaml (or the file named by --config)
//   3. BULKPOSTER_* environment variables, e.g. BULKPOSTER_ACCOUNT_PASSWORD
//      for account.password
//
// PASSWORD RESOLUTION:
//   account.password is used when set. Otherwise the password is looked up
//   in the OS keyring under the "bulkposter" service, keyed by
//   account.keyring_account or, when that is empty, account.username.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"

	"github.com/ginjaninja78/cl-bulk-poster/internal/types"
)

// KeyringService is the OS keyring service holding account passwords.
const KeyringService = "bulkposter"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BULKPOSTER"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// REMOTE SETTINGS
	// =========================================================================

	// Endpoints are the validate and post URLs of the bulk interface.
	Endpoints EndpointConfig `mapstructure:"endpoints"`

	// Account holds the credentials rendered into every submission.
	Account AccountConfig `mapstructure:"account"`

	// HTTP controls the transport.
	HTTP HTTPConfig `mapstructure:"http"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: any logrus level ("debug", "info", "warn", "error", ...)
	// Default: "info"
	LogLevel string `mapstructure:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir receives archived submission documents, error logs and the
	// lock file used by the post command.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir"`

	// OutputNameFormat defines archive file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {kind}      - "validate" or "post"
	//   {batch}     - Base name of the batch file
	// Default: "{batch}_{kind}_{timestamp}_{uuid}.xml"
	OutputNameFormat string `mapstructure:"output_name_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of batch files validated at once.
	// Default: 4
	MaxConcurrency int `mapstructure:"max_concurrency"`

	// CSVSettings applies to CSV batch files.
	CSVSettings CSVSettings `mapstructure:"csv_settings"`
}

// EndpointConfig holds the two remote URLs.
type EndpointConfig struct {
	Validate string `mapstructure:"validate"`
	Post     string `mapstructure:"post"`
}

// AccountConfig holds the account credentials.
type AccountConfig struct {
	Username  string `mapstructure:"username"`
	AccountID string `mapstructure:"account_id"`

	// Password is best supplied through BULKPOSTER_ACCOUNT_PASSWORD or the
	// keyring rather than written to the config file.
	Password string `mapstructure:"password"`

	// KeyringAccount overrides the keyring user name.
	KeyringAccount string `mapstructure:"keyring_account"`
}

// HTTPConfig controls the transport.
type HTTPConfig struct {
	// Timeout bounds a single submission.
	// Default: 60s
	Timeout time.Duration `mapstructure:"timeout"`
}

// CSVSettings contains settings for parsing CSV batch files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), "|" (pipe), "\t" (tab)
	// Default: ","
	Delimiter string `mapstructure:"delimiter"`

	// Comment marks lines to skip. Empty disables comments.
	Comment string `mapstructure:"comment"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// defaults lists every key with its default value. Registering every key is
// what lets viper apply environment overrides during Unmarshal.
var defaults = map[string]interface{}{
	"endpoints.validate":      "https://post.craigslist.org/bulk-rss/validate",
	"endpoints.post":          "https://post.craigslist.org/bulk-rss/post",
	"account.username":        "",
	"account.account_id":      "",
	"account.password":        "",
	"account.keyring_account": "",
	"http.timeout":            60 * time.Second,
	"log_level":               "info",
	"output_dir":              "./output",
	"output_name_format":      "{batch}_{kind}_{timestamp}_{uuid}.xml",
	"max_concurrency":         4,
	"csv_settings.delimiter":  ",",
	"csv_settings.comment":    "",
}

// applyMainConfigDefaults registers defaults and environment overrides.
func applyMainConfigDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// NewViper prepares a viper instance for configPath. A missing file is not
// an error when allowMissing is set; defaults and the environment still
// apply.
func NewViper(configPath string, allowMissing bool) (*viper.Viper, error) {
	v := viper.New()
	applyMainConfigDefaults(v)

	if configPath == "" {
		return v, nil
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return v, nil
}

// LoadMainConfig reads and validates the configuration held by v.
func LoadMainConfig(v *viper.Viper) (*MainConfig, error) {
	var config MainConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	for name, raw := range map[string]string{
		"endpoints.validate": config.Endpoints.Validate,
		"endpoints.post":     config.Endpoints.Post,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if _, err := logrus.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if config.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", config.HTTP.Timeout)
	}
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if len([]rune(config.CSVSettings.Delimiter)) != 1 {
		return fmt.Errorf("csv_settings.delimiter must be a single character, got %q", config.CSVSettings.Delimiter)
	}
	if len([]rune(config.CSVSettings.Comment)) > 1 {
		return fmt.Errorf("csv_settings.comment must be at most one character, got %q", config.CSVSettings.Comment)
	}

	return nil
}

// =============================================================================
// ACCOUNT RESOLUTION
// =============================================================================

// ResolveAccount builds the account, fetching the password from the OS
// keyring when it is not configured directly.
func (c *MainConfig) ResolveAccount() (types.Account, error) {
	account := types.Account{
		Username:  c.Account.Username,
		Password:  c.Account.Password,
		AccountID: c.Account.AccountID,
	}
	if account.Username == "" {
		return account, fmt.Errorf("account.username is not set")
	}
	if account.Password != "" {
		return account, nil
	}

	user := c.Account.KeyringAccount
	if user == "" {
		user = account.Username
	}

	password, err := keyring.Get(KeyringService, user)
	if err != nil {
		return account, fmt.Errorf("no password configured and keyring lookup for %q failed: %w", user, err)
	}
	account.Password = password

	return account, nil
}

// NewLogger builds a logger at the configured level.
func (c *MainConfig) NewLogger() (*logrus.Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	l.SetLevel(level)

	return l, nil
}
