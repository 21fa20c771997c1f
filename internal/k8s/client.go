package k8s

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	autoscalingv1 "k8s.io/api/autoscaling/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/opsforge/opsforge-ai/internal/errdefs"
)

// PodStatus is the health snapshot for a single pod.
type PodStatus struct {
	Name     string `json:"name"`
	Phase    string `json:"phase"`
	Restarts int    `json:"restarts"`
	Ready    bool   `json:"ready"`
}

// ClusterClient is the cluster backend contract consumed by the incident
// agent. Read operations may degrade when the cluster is unreachable; write
// operations must fail hard.
type ClusterClient interface {
	ListPodStatus(ctx context.Context, namespace string) ([]PodStatus, error)
	ReadLogs(ctx context.Context, podName, namespace string, tailLines int64) (string, error)
	DeletePod(ctx context.Context, podName, namespace string) error
	ScaleDeployment(ctx context.Context, name, namespace string, replicas int32) error
}

// Client wraps Kubernetes client-go for the operations the platform needs.
type Client struct {
	Clientset kubernetes.Interface
	// Timeout for outbound K8s API calls; 0 means no timeout (use request context only).
	Timeout time.Duration
	// limiter optionally rate-limits outbound API calls. Nil = no limit.
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a Kubernetes client: in-cluster config first, then the
// given (or default) kubeconfig.
func NewClient(kubeconfigPath string, logger *zap.Logger) (*Client, error) {
	var cfg *rest.Config
	var err error

	if kubeconfigPath == "" {
		cfg, err = rest.InClusterConfig()
		if err != nil {
			homeDir, _ := os.UserHomeDir()
			if homeDir != "" {
				kubeconfigPath = filepath.Join(homeDir, ".kube", "config")
			}
		}
	}
	if cfg == nil {
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to build kube config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{Clientset: clientset, logger: logger}, nil
}

// NewClientFromClientset wraps an existing clientset (tests use the fake).
func NewClientFromClientset(clientset kubernetes.Interface, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{Clientset: clientset, logger: logger}
}

// SetTimeout sets the timeout for outbound K8s API calls.
func (c *Client) SetTimeout(d time.Duration) {
	c.Timeout = d
}

// SetLimiter sets a token-bucket rate limiter for outbound K8s API calls.
func (c *Client) SetLimiter(l *rate.Limiter) {
	c.limiter = l
}

func (c *Client) waitRateLimit(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// withTimeout returns ctx with timeout applied if c.Timeout > 0; otherwise returns ctx and a no-op cancel.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(ctx, c.Timeout)
	}
	return ctx, func() {}
}

// ListPodStatus returns the health snapshot for every pod in the namespace.
func (c *Client) ListPodStatus(ctx context.Context, namespace string) ([]PodStatus, error) {
	if err := c.waitRateLimit(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	pods, err := c.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errdefs.Wrap(errdefs.CategoryCollaboratorUnavailable, "failed to list pods", err)
	}

	statuses := make([]PodStatus, 0, len(pods.Items))
	for _, pod := range pods.Items {
		restarts := 0
		ready := len(pod.Status.ContainerStatuses) > 0
		for _, cs := range pod.Status.ContainerStatuses {
			restarts += int(cs.RestartCount)
			if !cs.Ready {
				ready = false
			}
		}
		statuses = append(statuses, PodStatus{
			Name:     pod.Name,
			Phase:    string(pod.Status.Phase),
			Restarts: restarts,
			Ready:    ready,
		})
	}
	return statuses, nil
}

// ReadLogs fetches the most recent log lines from a pod.
func (c *Client) ReadLogs(ctx context.Context, podName, namespace string, tailLines int64) (string, error) {
	if err := c.waitRateLimit(ctx); err != nil {
		return "", err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	opts := &corev1.PodLogOptions{TailLines: &tailLines}
	raw, err := c.Clientset.CoreV1().Pods(namespace).GetLogs(podName, opts).Do(ctx).Raw()
	if err != nil {
		return "", errdefs.Wrap(errdefs.CategoryCollaboratorUnavailable, fmt.Sprintf("failed to fetch logs for pod %s", podName), err)
	}
	return string(raw), nil
}

// DeletePod deletes a pod so its controller recreates it.
func (c *Client) DeletePod(ctx context.Context, podName, namespace string) error {
	if err := c.waitRateLimit(ctx); err != nil {
		return err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.Clientset.CoreV1().Pods(namespace).Delete(ctx, podName, metav1.DeleteOptions{}); err != nil {
		return errdefs.Wrap(errdefs.CategoryCollaboratorUnavailable, fmt.Sprintf("failed to delete pod %s", podName), err)
	}
	c.logger.Info("pod deleted", zap.String("pod", podName), zap.String("namespace", namespace))
	return nil
}

// ScaleDeployment sets the replica count of a deployment.
func (c *Client) ScaleDeployment(ctx context.Context, name, namespace string, replicas int32) error {
	if err := c.waitRateLimit(ctx); err != nil {
		return err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	scale := &autoscalingv1.Scale{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec:       autoscalingv1.ScaleSpec{Replicas: replicas},
	}
	if _, err := c.Clientset.AppsV1().Deployments(namespace).UpdateScale(ctx, name, scale, metav1.UpdateOptions{}); err != nil {
		return errdefs.Wrap(errdefs.CategoryCollaboratorUnavailable, fmt.Sprintf("failed to scale deployment %s", name), err)
	}
	c.logger.Info("deployment scaled", zap.String("deployment", name), zap.Int32("replicas", replicas))
	return nil
}
