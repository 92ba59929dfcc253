package connection

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/giantswarm/connauth/pkg/logging"
)

// DefaultSecretKey is the data key read from the Kubernetes Secret.
const DefaultSecretKey = "connections.yaml"

// KubernetesSource loads records from one key of a Kubernetes Secret. The
// document has the same layout as a connections file; secret fields inside
// it are still ciphertext.
type KubernetesSource struct {
	client    client.Client
	namespace string
	name      string
	key       string
}

// NewKubernetesSource creates a source reading namespace/name[key].
func NewKubernetesSource(k8sClient client.Client, namespace, name, key string) *KubernetesSource {
	if namespace == "" {
		namespace = "default"
	}
	if key == "" {
		key = DefaultSecretKey
	}
	return &KubernetesSource{
		client:    k8sClient,
		namespace: namespace,
		name:      name,
		key:       key,
	}
}

// Describe implements Source.
func (k *KubernetesSource) Describe() string {
	return fmt.Sprintf("secret %s/%s[%s]", k.namespace, k.name, k.key)
}

// Load implements Source.
func (k *KubernetesSource) Load(ctx context.Context) (*Snapshot, error) {
	if k.name == "" {
		return nil, fmt.Errorf("secret name is required")
	}

	secret := &corev1.Secret{}
	if err := k.client.Get(ctx, client.ObjectKey{Namespace: k.namespace, Name: k.name}, secret); err != nil {
		return nil, fmt.Errorf("failed to get secret %s/%s: %w", k.namespace, k.name, err)
	}

	data, ok := secret.Data[k.key]
	if !ok {
		return nil, fmt.Errorf("secret %s/%s missing required key '%s'", k.namespace, k.name, k.key)
	}

	records, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("secret %s/%s: %w", k.namespace, k.name, err)
	}
	snapshot, err := NewSnapshot(records)
	if err != nil {
		return nil, fmt.Errorf("secret %s/%s: %w", k.namespace, k.name, err)
	}

	logging.Debug("Connection", "Loaded %d connections from %s", snapshot.Len(), k.Describe())
	return snapshot, nil
}
