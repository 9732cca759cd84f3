package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// RuntimeEnvironment represents the execution environment
type RuntimeEnvironment string

const (
	RuntimeKubernetes RuntimeEnvironment = "kubernetes"
	RuntimeContainer  RuntimeEnvironment = "container"
	RuntimeVM         RuntimeEnvironment = "vm"
)

// DiscoveryMode represents the source discovery strategy
type DiscoveryMode string

const (
	DiscoveryKubernetes DiscoveryMode = "kubernetes"
	DiscoveryStatic     DiscoveryMode = "static"
)

// Config holds all application configuration
type Config struct {
	// Core
	Debug bool

	// Listener clients connect to for the relayed stream
	LocalHost string
	LocalPort string

	// Upstream source the relay pulls data from (static discovery)
	RemoteHost string
	RemotePort string

	// Runtime
	Runtime   RuntimeEnvironment
	Namespace string // Only for Kubernetes runtime

	// Server
	HealthServerPort string

	// Source Discovery
	DiscoveryMode  DiscoveryMode
	StreamID       string // Selects the source service in kubernetes discovery
	KubeConfigPath string
	KubeContext    string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Core
		Debug: getEnvBool("DEBUG", false),

		// Listener
		LocalHost: getEnv("LOCAL_HOST", "localhost"),
		LocalPort: getEnv("LOCAL_PORT", "8080"),

		// Source
		RemoteHost: getEnv("REMOTE_HOST", ""),
		RemotePort: getEnv("REMOTE_PORT", ""),

		// Runtime - Auto-detect or explicit
		Runtime:   determineRuntime(),
		Namespace: determineNamespace(),

		// Server
		HealthServerPort: getEnv("HEALTH_SERVER_PORT", "8081"),

		// Source Discovery
		DiscoveryMode:  determineDiscoveryMode(),
		StreamID:       getEnv("STREAM_ID", ""),
		KubeConfigPath: getEnv("KUBECONFIG", ""),
		KubeContext:    getEnv("KUBE_CONTEXT", ""),
	}

	// Legacy support
	cfg.applyLegacySupport()

	// Validation
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ListenAddr returns the host:port clients connect to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.LocalHost, c.LocalPort)
}

// SourceAddr returns the host:port of the statically configured source.
func (c *Config) SourceAddr() string {
	return net.JoinHostPort(c.RemoteHost, c.RemotePort)
}

// validate ensures configuration is coherent
func (c *Config) validate() error {
	if _, err := strconv.ParseUint(c.LocalPort, 10, 16); err != nil {
		return fmt.Errorf("invalid LOCAL_PORT: %s", c.LocalPort)
	}

	switch c.DiscoveryMode {
	case DiscoveryStatic:
		if c.RemoteHost == "" || c.RemotePort == "" {
			return fmt.Errorf("REMOTE_HOST and REMOTE_PORT must be set when using static discovery")
		}
		if _, err := strconv.ParseUint(c.RemotePort, 10, 16); err != nil {
			return fmt.Errorf("invalid REMOTE_PORT: %s", c.RemotePort)
		}
	case DiscoveryKubernetes:
		if c.StreamID == "" {
			return fmt.Errorf("STREAM_ID must be set when using kubernetes discovery")
		}
		if c.Runtime == RuntimeContainer && c.KubeConfigPath == "" {
			return fmt.Errorf("kubernetes discovery in container runtime requires KUBECONFIG path")
		}
	default:
		return fmt.Errorf("unknown discovery mode: %s", c.DiscoveryMode)
	}

	return nil
}

// applyLegacySupport handles backward compatibility
func (c *Config) applyLegacySupport() {
	// Legacy: HOST/PORT were the original names for the local listener binding
	if legacyHost := getEnv("HOST", ""); legacyHost != "" && os.Getenv("LOCAL_HOST") == "" {
		c.LocalHost = legacyHost
	}
	if legacyPort := getEnv("PORT", ""); legacyPort != "" && os.Getenv("LOCAL_PORT") == "" {
		c.LocalPort = legacyPort
	}

	// Legacy: POD_NAMESPACE
	if podNS := getEnv("POD_NAMESPACE", ""); podNS != "" && c.Namespace == "" {
		c.Namespace = podNS
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func determineRuntime() RuntimeEnvironment {
	// Explicit runtime setting
	if runtime := os.Getenv("RUNTIME"); runtime != "" {
		switch strings.ToLower(runtime) {
		case "kubernetes", "k8s":
			return RuntimeKubernetes
		case "container", "docker":
			return RuntimeContainer
		case "vm", "virtual-machine", "bare-metal":
			return RuntimeVM
		}
	}

	// Auto-detect: Check if running in Kubernetes
	if _, err := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount"); err == nil {
		return RuntimeKubernetes
	}

	// Auto-detect: Check if running in container
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return RuntimeContainer
	}

	// Default to VM
	return RuntimeVM
}

func determineNamespace() string {
	// Explicit namespace
	if ns := os.Getenv("NAMESPACE"); ns != "" {
		return ns
	}

	// Kubernetes downward API
	if ns := os.Getenv("POD_NAMESPACE"); ns != "" {
		return ns
	}

	// Read from service account (in-cluster)
	if data, err := os.ReadFile("/var/run/secrets/kubernetes.io/serviceaccount/namespace"); err == nil {
		return strings.TrimSpace(string(data))
	}

	return "default"
}

func determineDiscoveryMode() DiscoveryMode {
	// Explicit mode
	if mode := os.Getenv("DISCOVERY_MODE"); mode != "" {
		if strings.ToLower(mode) == "kubernetes" {
			return DiscoveryKubernetes
		}
		return DiscoveryStatic
	}

	// Auto-detect: Kubernetes if a stream id is set and no static source is given
	if os.Getenv("STREAM_ID") != "" && os.Getenv("REMOTE_HOST") == "" {
		return DiscoveryKubernetes
	}

	return DiscoveryStatic
}
