package app

import (
	"fmt"
	"net/http"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrl "sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/giantswarm/connauth/internal/config"
	"github.com/giantswarm/connauth/internal/connection"
	"github.com/giantswarm/connauth/internal/headers"
	"github.com/giantswarm/connauth/internal/metrics"
	"github.com/giantswarm/connauth/internal/oauth"
	"github.com/giantswarm/connauth/internal/secret"
	"github.com/giantswarm/connauth/pkg/logging"
)

// Services holds the wired components.
type Services struct {
	Protector secret.Protector
	Source    connection.Source
	Resolver  *connection.Resolver
	Metrics   *metrics.Metrics
	Acquirer  *oauth.Acquirer
	Builder   *headers.Builder
}

// newKubernetesClient is replaced in tests.
var newKubernetesClient = func() (client.Client, error) {
	restConfig, err := ctrl.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get Kubernetes config: %w", err)
	}

	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))

	k8sClient, err := client.New(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}
	return k8sClient, nil
}

// InitializeServices wires the components described by cfg.
func InitializeServices(cfg *config.Config) (*Services, error) {
	protectorType, protectorOpts, err := cfg.ProtectorOptions()
	if err != nil {
		return nil, err
	}
	protector, err := secret.New(protectorType, protectorOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s protector: %w", protectorType, err)
	}
	logging.Debug("Bootstrap", "Using %s secret protector", protectorType)

	var source connection.Source
	if cfg.UsesKubernetes() {
		k8sClient, err := newKubernetesClient()
		if err != nil {
			return nil, err
		}
		source = connection.NewKubernetesSource(k8sClient, cfg.Kubernetes.Namespace, cfg.Kubernetes.SecretName, cfg.Kubernetes.Key)
	} else {
		source = connection.NewFileSource(cfg.ConnectionsFile)
	}
	logging.Debug("Bootstrap", "Reading connections from %s", source.Describe())

	m := metrics.NewMetrics(cfg.Metrics.Namespace)
	cache := oauth.NewTokenCache(oauth.WithExpirySkew(cfg.TokenExpirySkew))
	acquirer := oauth.NewAcquirer(
		oauth.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		oauth.WithCache(cache),
		oauth.WithMetrics(m),
		oauth.WithAssertionLifetime(cfg.AssertionLifetime),
		oauth.WithDefaultTokenLifetime(cfg.DefaultTokenLifetime),
	)
	resolver := connection.NewResolver(protector)

	return &Services{
		Protector: protector,
		Source:    source,
		Resolver:  resolver,
		Metrics:   m,
		Acquirer:  acquirer,
		Builder:   headers.NewBuilder(acquirer, headers.WithResolver(resolver), headers.WithMetrics(m)),
	}, nil
}
