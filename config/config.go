package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

type Config struct {
	GRPCPort        int
	MetricsPort     int
	LogLevel        string
	LogDir          string
	GGPPath         string
	SrcDir          string
	Provisioner     string
	InstanceIP      string
	InstancePort    int
	TargetNamespace string
	EventTopic      string
	Subscription    string
	EventQueueSize  int
	GoogleProjectID string
	CredentialsFile string

	flagsRead  []string
	readErrors map[string]string
}

func Load() *Config {
	cfg := &Config{
		GRPCPort:        getEnvPort("ASSET_STREAM_GRPC_PORT", 44432),
		MetricsPort:     getEnvPort("ASSET_STREAM_METRICS_PORT", 8080),
		LogLevel:        strings.TrimSpace(getEnv("ASSET_STREAM_LOG_LEVEL", "info")),
		LogDir:          strings.TrimSpace(getEnv("ASSET_STREAM_LOG_DIR", "")),
		GGPPath:         toolPath(),
		SrcDir:          strings.TrimSpace(getEnv("ASSET_STREAM_SRC_DIR", "")),
		Provisioner:     strings.ToLower(strings.TrimSpace(getEnv("ASSET_STREAM_PROVISIONER", "ssh"))),
		InstanceIP:      strings.TrimSpace(getEnv("ASSET_STREAM_INSTANCE_IP", "")),
		InstancePort:    getEnvPort("ASSET_STREAM_INSTANCE_PORT", 44722),
		TargetNamespace: strings.TrimSpace(getEnv("TARGET_NAMESPACE", "default")),
		EventTopic:      strings.TrimSpace(getEnv("ASSET_STREAM_EVENT_TOPIC", "")),
		Subscription:    strings.TrimSpace(getEnv("ASSET_STREAM_REQUEST_SUBSCRIPTION", "")),
		EventQueueSize:  getEnvInt("ASSET_STREAM_EVENT_QUEUE_SIZE", 256),
		CredentialsFile: strings.TrimSpace(firstNonEmpty(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), os.Getenv("ASSET_STREAM_GSA_CREDENTIALS"))),
	}
	if os.Getenv("DEBUG") != "" {
		cfg.LogLevel = "debug"
	}

	if cfg.EventTopic != "" || cfg.Subscription != "" {
		cfg.GoogleProjectID = getGoogleProjectID(cfg.CredentialsFile, strings.TrimSpace(getEnv("ASSET_STREAM_PUBSUB_PROJECT_ID", "")))
		if cfg.GoogleProjectID == "" {
			log.Warn().Msg("Google project ID not resolved; set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_PROJECT_ID or ASSET_STREAM_PUBSUB_PROJECT_ID")
		}
	}
	if cfg.EventTopic == "" {
		log.Info().Msg("Pub/Sub event topic not set; developer log events are only logged")
	}
	return cfg
}

// toolPath resolves the provisioning tool: an explicit path, then the SDK
// install, then whatever is on PATH.
func toolPath() string {
	if p := strings.TrimSpace(os.Getenv("ASSET_STREAM_GGP_PATH")); p != "" {
		return p
	}
	if sdk := strings.TrimSpace(os.Getenv("GGP_SDK_PATH")); sdk != "" {
		return filepath.Join(sdk, "dev", "bin", "ggp")
	}
	return "ggp"
}

// fileOverrides mirrors the keys accepted in the JSON override file.
type fileOverrides struct {
	SrcDir       *string         `json:"src_dir"`
	InstanceIP   *string         `json:"instance_ip"`
	InstancePort json.RawMessage `json:"instance_port"`
	LogToStdout  *bool           `json:"log_to_stdout"`
	Verbosity    json.RawMessage `json:"verbosity"`
	GRPCPort     json.RawMessage `json:"grpc_port"`
	MetricsPort  json.RawMessage `json:"metrics_port"`
	GGPPath      *string         `json:"ggp_path"`
}

// LoadFromFile applies the overrides found in the JSON file at path. A missing
// file yields an error wrapping os.ErrNotExist. Keys with a value of the wrong
// type are skipped and reported by FlagReadErrors.
func (c *Config) LoadFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file '%s': %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read config file '%s': %w", path, err)
	}
	var o fileOverrides
	if err := json.Unmarshal(b, &o); err != nil {
		return fmt.Errorf("parse config file '%s': %w", path, err)
	}

	c.flagsRead = nil
	c.readErrors = make(map[string]string)
	if o.SrcDir != nil {
		c.SrcDir = *o.SrcDir
		c.flagsRead = append(c.flagsRead, "src_dir")
	}
	if o.InstanceIP != nil {
		c.InstanceIP = *o.InstanceIP
		c.flagsRead = append(c.flagsRead, "instance_ip")
	}
	if o.GGPPath != nil {
		c.GGPPath = *o.GGPPath
		c.flagsRead = append(c.flagsRead, "ggp_path")
	}
	if o.LogToStdout != nil {
		if *o.LogToStdout {
			c.LogDir = ""
		} else if c.LogDir == "" {
			c.LogDir = filepath.Join(os.TempDir(), "asset-stream-manager")
		}
		c.flagsRead = append(c.flagsRead, "log_to_stdout")
	}
	c.readPort("instance_port", o.InstancePort, &c.InstancePort)
	c.readPort("grpc_port", o.GRPCPort, &c.GRPCPort)
	c.readPort("metrics_port", o.MetricsPort, &c.MetricsPort)
	var verbosity int
	if c.readInt("verbosity", o.Verbosity, &verbosity) {
		c.LogLevel = levelForVerbosity(verbosity)
	}
	sort.Strings(c.flagsRead)
	return nil
}

func (c *Config) readInt(key string, raw json.RawMessage, dst *int) bool {
	if len(raw) == 0 {
		return false
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		c.readErrors[key] = fmt.Sprintf("%s: expected an integer, got %s", key, string(raw))
		return false
	}
	*dst = v
	c.flagsRead = append(c.flagsRead, key)
	return true
}

// readPort is readInt restricted to [1, 65535]. Out of range values are
// reported and leave dst unchanged.
func (c *Config) readPort(key string, raw json.RawMessage, dst *int) {
	if len(raw) == 0 {
		return
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		c.readErrors[key] = fmt.Sprintf("%s: expected an integer, got %s", key, string(raw))
		return
	}
	if !validPort(v) {
		c.readErrors[key] = fmt.Sprintf("%s: port %d out of range [1, 65535]", key, v)
		return
	}
	*dst = v
	c.flagsRead = append(c.flagsRead, key)
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

// levelForVerbosity maps the numeric verbosity of the override file to a log
// level; 1 is the usual value.
func levelForVerbosity(v int) string {
	switch {
	case v <= 0:
		return "warn"
	case v == 1:
		return "info"
	case v == 2:
		return "debug"
	default:
		return "trace"
	}
}

// FlagsReadFromFile returns the sorted keys applied by the last LoadFromFile.
func (c *Config) FlagsReadFromFile() []string {
	return append([]string(nil), c.flagsRead...)
}

// FlagReadErrors returns the per-key errors of the last LoadFromFile.
func (c *Config) FlagReadErrors() map[string]string {
	out := make(map[string]string, len(c.readErrors))
	for k, v := range c.readErrors {
		out[k] = v
	}
	return out
}

func (c *Config) HTTPAddr() string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(c.MetricsPort))
}

// GRPCAddr is loopback only; the service is for the local workstation.
func (c *Config) GRPCAddr() string {
	return net.JoinHostPort("localhost", strconv.Itoa(c.GRPCPort))
}

// Redacted returns a view safe for logging
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"grpcPort":            c.GRPCPort,
		"metricsPort":         c.MetricsPort,
		"logLevel":            c.LogLevel,
		"logDir":              c.LogDir,
		"ggpPath":             c.GGPPath,
		"srcDir":              c.SrcDir,
		"provisioner":         c.Provisioner,
		"instanceIP":          c.InstanceIP,
		"instancePort":        c.InstancePort,
		"targetNamespace":     c.TargetNamespace,
		"projectID":           c.GoogleProjectID,
		"eventTopic":          c.EventTopic,
		"requestSubscription": c.Subscription,
		"credentialsProvided": c.CredentialsFile != "",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		iv, err := strconv.Atoi(v)
		if err == nil {
			return iv
		}
		log.Warn().Str("key", key).Str("value", v).Msg("invalid int in environment; using default")
	}
	return def
}

func getEnvPort(key string, def int) int {
	p := getEnvInt(key, def)
	if !validPort(p) {
		log.Warn().Str("key", key).Int("value", p).Msg("port out of range [1, 65535]; using default")
		return def
	}
	return p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func projectIDFromCredentials(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var x struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(b, &x); err != nil {
		return "", err
	}
	return x.ProjectID, nil
}

func getGoogleProjectID(credsFile string, explicit string) string {
	// 1) Prefer GOOGLE_APPLICATION_CREDENTIALS if set
	if p := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); p != "" {
		if pid, err := projectIDFromCredentials(p); err == nil && pid != "" {
			log.Info().Str("credsFile", p).Msg("using project_id from GOOGLE_APPLICATION_CREDENTIALS")
			return strings.TrimSpace(pid)
		}
		log.Warn().Str("credsFile", p).Msg("project_id not found in credentials file or unreadable")
	}

	// 2) Explicit override
	if explicit := strings.TrimSpace(explicit); explicit != "" {
		log.Info().Str("projectID", explicit).Msg("using ASSET_STREAM_PUBSUB_PROJECT_ID for Google project")
		return explicit
	}

	// 3) Common Google envs
	if v := strings.TrimSpace(firstNonEmpty(os.Getenv("GOOGLE_PROJECT_ID"), os.Getenv("GOOGLE_CLOUD_PROJECT"), os.Getenv("GCLOUD_PROJECT"), os.Getenv("GCP_PROJECT"))); v != "" {
		log.Info().Str("projectID", v).Msg("using Google project from environment")
		return v
	}

	// 4) Fallback to provided credentials file path (ASSET_STREAM_GSA_CREDENTIALS)
	if p := strings.TrimSpace(credsFile); p != "" {
		if pid, err := projectIDFromCredentials(p); err == nil && pid != "" {
			log.Info().Str("credsFile", p).Msg("using project_id from provided credentials file")
			return strings.TrimSpace(pid)
		}
	}
	return ""
}
