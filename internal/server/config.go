package server

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/iwvelando/franchise-forecast/internal/config"
	"github.com/iwvelando/franchise-forecast/pkg/constants"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address         string
	MaxUploadSize   string
	RateLimit       float64
	RateBurst       int
	uploadSizeBytes int64
}

// NewConfig normalizes the server section of the application configuration.
// Empty or non-positive values fall back to defaults.
func NewConfig(sc config.ServerConfig) (*Config, error) {
	cfg := &Config{
		Address:       sc.Address,
		MaxUploadSize: sc.MaxUploadSize,
		RateLimit:     sc.RateLimit,
		RateBurst:     sc.RateBurst,
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UploadSizeBytes returns the configured request body limit in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured request body limit.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size > 0 {
		c.uploadSizeBytes = size
		c.MaxUploadSize = strconv.FormatInt(size, 10)
	}
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.RateLimit <= 0 {
		c.RateLimit = constants.DefaultRateLimit
	}
	if c.RateBurst <= 0 {
		c.RateBurst = constants.DefaultRateBurst
	}

	sizeStr := strings.TrimSpace(c.MaxUploadSize)
	if sizeStr == "" {
		c.uploadSizeBytes = constants.DefaultMaxUploadSizeBytes
		c.MaxUploadSize = strconv.FormatInt(constants.DefaultMaxUploadSizeBytes, 10)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, eris.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid size value %q", value)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, eris.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 || (n != 0 && result/multiplier != n) {
		return 0, eris.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
