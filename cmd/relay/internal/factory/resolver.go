package factory

import (
	"context"
	"fmt"
	"os"

	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/config"
	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/core"
	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/discovery/kubernetes"
	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/discovery/memory"
	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/logger"

	k8s "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ResolverFactory creates source resolvers based on configuration
type ResolverFactory struct {
	cfg *config.Config
}

// NewResolverFactory creates a new resolver factory
func NewResolverFactory(cfg *config.Config) *ResolverFactory {
	return &ResolverFactory{cfg: cfg}
}

// Create creates a source resolver based on configuration
func (f *ResolverFactory) Create(ctx context.Context) (core.SourceResolver, error) {
	switch f.cfg.DiscoveryMode {
	case config.DiscoveryStatic:
		return f.createStaticResolver()
	case config.DiscoveryKubernetes:
		return f.createKubernetesResolver()
	default:
		return nil, fmt.Errorf("unknown discovery mode: %s", f.cfg.DiscoveryMode)
	}
}

func (f *ResolverFactory) createStaticResolver() (core.SourceResolver, error) {
	logger.Info("Creating Static Source Resolver", "source", f.cfg.SourceAddr())

	resolver, err := memory.NewResolver(f.cfg.RemoteHost, f.cfg.RemotePort)
	if err != nil {
		return nil, fmt.Errorf("failed to create static resolver: %w", err)
	}

	return resolver, nil
}

func (f *ResolverFactory) createKubernetesResolver() (core.SourceResolver, error) {
	logger.Info("Creating Kubernetes Source Resolver",
		"runtime", f.cfg.Runtime,
		"stream_id", f.cfg.StreamID,
		"kubeconfig", f.cfg.KubeConfigPath,
		"context", f.cfg.KubeContext)

	kubeconfig := f.cfg.KubeConfigPath

	// For non-Kubernetes runtime, kubeconfig is required
	if f.cfg.Runtime != config.RuntimeKubernetes && kubeconfig == "" {
		if home := os.Getenv("HOME"); home != "" {
			kubeconfig = home + "/.kube/config"
		}
	}

	configOverrides := &clientcmd.ConfigOverrides{}
	if f.cfg.KubeContext != "" {
		configOverrides.CurrentContext = f.cfg.KubeContext
		logger.Info("Using specific Kubernetes context", "context", f.cfg.KubeContext)
	}

	var restConfig *rest.Config
	var err error

	// Try kubeconfig first (for VM/Container runtime or explicit config)
	if kubeconfig != "" {
		restConfig, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfig},
			configOverrides,
		).ClientConfig()

		if err != nil {
			logger.Warn("Failed to load kubeconfig, will try in-cluster config", "error", err)
		}
	}

	// Fallback to in-cluster config (for Kubernetes runtime)
	if restConfig == nil {
		logger.Info("Attempting in-cluster Kubernetes configuration")
		restConfig, err = clientcmd.BuildConfigFromFlags("", "")
		if err != nil {
			return nil, fmt.Errorf("failed to build kubernetes config (tried kubeconfig and in-cluster): %w", err)
		}
	}

	clientset, err := k8s.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	resolver := kubernetes.NewK8sResolver(clientset, f.cfg.StreamID)
	logger.Info("Kubernetes resolver created successfully")
	return resolver, nil
}
