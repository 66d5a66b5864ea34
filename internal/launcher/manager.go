package launcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// DefaultManifest is the manifest file name looked up when none is configured.
const DefaultManifest = "spa.proxy.json"

// Manifest mirrors the launch manifest file.
type Manifest struct {
	ClientURL           string `mapstructure:"clienturl"`
	LaunchCommand       string `mapstructure:"launchcommand"`
	WorkingDirectory    string `mapstructure:"workingdirectory"`
	MaxTimeoutInSeconds int    `mapstructure:"maxtimeoutinseconds"`
}

// Manager is the resolved launch manager. A nil *Manager means no manifest
// was found and proxying stays disabled.
type Manager struct {
	manifestPath     string
	clientURL        *url.URL
	launchCommand    string
	workingDirectory string
	startupTimeout   time.Duration
}

// Detect looks for the manifest at path. It returns (nil, nil) when the file
// does not exist. A non-empty clientURL overrides the manifest's ClientUrl.
func Detect(path, clientURL string) (*Manager, error) {
	if path == "" {
		path = DefaultManifest
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat launch manifest %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read launch manifest %s: %w", path, err)
	}

	var manifest Manifest
	if err := v.Unmarshal(&manifest); err != nil {
		return nil, fmt.Errorf("decode launch manifest %s: %w", path, err)
	}

	if clientURL != "" {
		manifest.ClientURL = clientURL
	}

	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid launch manifest %s: %w", path, err)
	}

	parsed, err := url.Parse(manifest.ClientURL)
	if err != nil {
		return nil, err
	}

	return &Manager{
		manifestPath:     path,
		clientURL:        parsed,
		launchCommand:    manifest.LaunchCommand,
		workingDirectory: manifest.WorkingDirectory,
		startupTimeout:   time.Duration(manifest.MaxTimeoutInSeconds) * time.Second,
	}, nil
}

func (m Manifest) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ClientURL,
			validation.Required,
			validation.By(validateClientURL),
		),
		validation.Field(&m.MaxTimeoutInSeconds, validation.Min(0)),
	)
}

func validateClientURL(value interface{}) error {
	clientURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	parsedURL, err := url.Parse(clientURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

// Enabled reports whether proxying should be installed.
func (m *Manager) Enabled() bool {
	return m != nil
}

// ClientURL is the SPA development server origin.
func (m *Manager) ClientURL() *url.URL {
	return m.clientURL
}

func (m *Manager) ManifestPath() string {
	return m.manifestPath
}

func (m *Manager) LaunchCommand() string {
	return m.launchCommand
}

func (m *Manager) WorkingDirectory() string {
	return m.workingDirectory
}

// StartupTimeout is how long the development server is expected to take to
// come up. Zero when the manifest does not say.
func (m *Manager) StartupTimeout() time.Duration {
	return m.startupTimeout
}

func (m *Manager) LogValue() slog.Value {
	if m == nil {
		return slog.StringValue("disabled")
	}
	return slog.GroupValue(
		slog.String("manifest", m.manifestPath),
		slog.String("client_url", m.clientURL.String()),
		slog.String("launch_command", m.launchCommand),
		slog.String("working_directory", m.workingDirectory),
	)
}
