package secretreader

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"deploykit/reconciler-service/pkg/model"
)

// KubernetesReader reads secret parameters from Kubernetes secrets in one
// namespace. A secret path like team/shop/api maps to the secret name
// team.shop.api; the field selects one data key. Kubernetes secrets are
// unversioned, so a requested version is ignored.
type KubernetesReader struct {
	client    kubernetes.Interface
	namespace string
}

func NewKubernetesReader(client kubernetes.Interface, namespace string) *KubernetesReader {
	return &KubernetesReader{client: client, namespace: namespace}
}

func (r *KubernetesReader) Read(ctx context.Context, path, field string, version *int) (string, error) {
	data, err := r.ReadAll(ctx, path, version)
	if err != nil {
		return "", err
	}
	value, ok := data[field]
	if !ok {
		return "", errors.Wrapf(model.ErrSecretNotFound, "secret %s has no field %s", path, field)
	}
	return value, nil
}

func (r *KubernetesReader) ReadAll(ctx context.Context, path string, version *int) (map[string]string, error) {
	if version != nil {
		logger.WithField("func", "ReadAll").Debugf("ignoring version %d for secret %s, kubernetes secrets are unversioned", *version, path)
	}
	secret, err := r.client.CoreV1().Secrets(r.namespace).Get(ctx, secretName(path), metav1.GetOptions{})
	if err != nil {
		switch {
		case k8serrors.IsNotFound(err):
			return nil, errors.Wrapf(model.ErrSecretNotFound, "secret %s not found in namespace %s", path, r.namespace)
		case k8serrors.IsForbidden(err):
			return nil, errors.Wrapf(model.ErrSecretForbidden, "secret %s in namespace %s: %v", path, r.namespace, err)
		default:
			return nil, errors.Wrapf(model.ErrSecretBackend, "secret %s in namespace %s: %v", path, r.namespace, err)
		}
	}
	data := make(map[string]string, len(secret.Data))
	for k, v := range secret.Data {
		data[k] = string(v)
	}
	return data, nil
}

func secretName(path string) string {
	return strings.ReplaceAll(strings.Trim(path, "/"), "/", ".")
}
