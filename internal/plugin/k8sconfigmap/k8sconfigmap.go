// Package k8sconfigmap implements the plugin contract (spec.md §6) over a
// Kubernetes v1.ConfigMap instead of a local file: the cluster-native
// analogue of internal/plugin/jsonplugin and the archive backends, for
// configs that live as Kubernetes objects. Adapted from the teacher's
// internal/infrastructure/k8s/client.go (DefaultK8sClient), which did the
// same in-cluster-config + clientset + retry dance for Secrets; this
// plugin does it for ConfigMaps and serializes through
// internal/plugin/jsonplugin's Marshal/Unmarshal helpers instead of
// storing raw Secret data.
package k8sconfigmap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/vitaliisemenov/moldctl/internal/plugin/jsonplugin"
	"github.com/vitaliisemenov/moldctl/pkg/moldapi"
)

// dataKey is the ConfigMap data field the serialized document is stored
// under.
const dataKey = "config.json"

// Config configures retry/backoff around the Kubernetes API, mirroring
// K8sClientConfig's fields.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryBackoff:    100 * time.Millisecond,
		MaxRetryBackoff: 5 * time.Second,
	}
}

// Plugin reads/writes moldapi Config handles as ConfigMap data.
type Plugin struct {
	clientset kubernetes.Interface
	config    Config
	log       *slog.Logger
}

// New builds a Plugin using in-cluster Kubernetes configuration.
func New(cfg Config, log *slog.Logger) (*Plugin, error) {
	if log == nil {
		log = slog.Default()
	}
	k8sConfig, err := rest.InClusterConfig()
	if err != nil {
		return nil, &Error{Op: "connect", Message: "failed to load in-cluster config", Err: err}
	}
	k8sConfig.Timeout = cfg.Timeout

	clientset, err := kubernetes.NewForConfig(k8sConfig)
	if err != nil {
		return nil, &Error{Op: "connect", Message: "failed to create clientset", Err: err}
	}
	return &Plugin{clientset: clientset, config: cfg, log: log}, nil
}

// NewFromClientset wires a Plugin around an already-constructed clientset
// instead of in-cluster auto-discovery; this package's tests use it with a
// fake clientset.
func NewFromClientset(clientset kubernetes.Interface, cfg Config, log *slog.Logger) *Plugin {
	if log == nil {
		log = slog.Default()
	}
	return &Plugin{clientset: clientset, config: cfg, log: log}
}

// ConfigRead reads the ConfigMap namespace/name and decodes its data as a
// Config bound to mold.
func (p *Plugin) ConfigRead(ctx context.Context, namespace, name string, mold *moldapi.Context) (*moldapi.Context, error) {
	var cm *corev1.ConfigMap
	err := p.retry(ctx, func() error {
		got, err := p.clientset.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		cm = got
		return nil
	})
	if err != nil {
		return nil, p.wrap("config_read", err)
	}

	raw, ok := cm.Data[dataKey]
	if !ok {
		return nil, &Error{Op: "config_read", Message: fmt.Sprintf("configmap %s/%s missing key %s", namespace, name, dataKey)}
	}
	return jsonplugin.UnmarshalConfig([]byte(raw), mold)
}

// ConfigWrite serializes cfg and creates or updates the ConfigMap
// namespace/name with it.
func (p *Plugin) ConfigWrite(ctx context.Context, namespace, name string, cfg *moldapi.Context) error {
	data, err := jsonplugin.MarshalConfig(cfg)
	if err != nil {
		return err
	}

	return p.retry(ctx, func() error {
		cm, getErr := p.clientset.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
		if k8serrors.IsNotFound(getErr) {
			_, createErr := p.clientset.CoreV1().ConfigMaps(namespace).Create(ctx, &corev1.ConfigMap{
				ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
				Data:       map[string]string{dataKey: string(data)},
			}, metav1.CreateOptions{})
			return createErr
		}
		if getErr != nil {
			return getErr
		}
		if cm.Data == nil {
			cm.Data = map[string]string{}
		}
		cm.Data[dataKey] = string(data)
		_, updateErr := p.clientset.CoreV1().ConfigMaps(namespace).Update(ctx, cm, metav1.UpdateOptions{})
		return updateErr
	})
}

// Health checks that the Kubernetes API is reachable.
func (p *Plugin) Health(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := p.clientset.Discovery().ServerVersion()
	if err != nil {
		return &Error{Op: "health", Message: "k8s API unavailable", Err: err}
	}
	if healthCtx.Err() != nil {
		return &Error{Op: "health", Message: "health check timed out", Err: healthCtx.Err()}
	}
	return nil
}

func (p *Plugin) retry(ctx context.Context, op func() error) error {
	backoff := p.config.RetryBackoff
	maxRetries := p.config.MaxRetries
	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := op()
		if err == nil {
			return nil
		}
		if !isRetryable(err) || attempt == maxRetries {
			return err
		}

		p.log.Warn("k8sconfigmap: retrying", "attempt", attempt+1, "max_retries", maxRetries, "error", err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > p.config.MaxRetryBackoff {
			backoff = p.config.MaxRetryBackoff
		}
	}
	return fmt.Errorf("k8sconfigmap: operation failed after %d retries", maxRetries)
}

func (p *Plugin) wrap(op string, err error) error {
	if k8serrors.IsNotFound(err) {
		return &Error{Op: op, Message: "not found", Err: err}
	}
	return &Error{Op: op, Message: "operation failed", Err: err}
}
