package statestore

import (
	"context"

	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const stateDocumentKey = "state.yaml"

// ConfigMapStore persists trigger state in one ConfigMap. State keys contain
// slashes, which are not legal ConfigMap data keys, so the whole key/value
// map lives in a single yaml document under state.yaml. Updates are
// read-modify-write with a retry on conflict; concurrent writers to the same
// key across overlapping runs are last-writer-wins.
type ConfigMapStore struct {
	client    kubernetes.Interface
	namespace string
	name      string
}

func NewConfigMapStore(client kubernetes.Interface, namespace, name string) *ConfigMapStore {
	return &ConfigMapStore{client: client, namespace: namespace, name: name}
}

func (s *ConfigMapStore) Get(ctx context.Context, key string) (string, bool, error) {
	state, _, err := s.load(ctx)
	if err != nil {
		return "", false, err
	}
	value, ok := state[key]
	return value, ok, nil
}

func (s *ConfigMapStore) Set(ctx context.Context, key, value string) error {
	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		state, configMap, err := s.load(ctx)
		if err != nil {
			return err
		}
		state[key] = value
		if err := s.save(ctx, configMap, state); err != nil {
			if k8serrors.IsConflict(err) {
				logger.WithField("func", "Set").Warnf("conflict writing state configmap %s/%s, retrying", s.namespace, s.name)
				lastErr = err
				continue
			}
			return errors.Wrapf(err, "failed to write state configmap %s/%s", s.namespace, s.name)
		}
		return nil
	}
	return errors.Wrapf(lastErr, "gave up writing state configmap %s/%s after %d conflicts", s.namespace, s.name, attempts)
}

func (s *ConfigMapStore) load(ctx context.Context) (map[string]string, *corev1.ConfigMap, error) {
	configMap, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
	if k8serrors.IsNotFound(err) {
		return make(map[string]string), nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read state configmap %s/%s", s.namespace, s.name)
	}
	state := make(map[string]string)
	if doc, ok := configMap.Data[stateDocumentKey]; ok {
		if err := yaml.Unmarshal([]byte(doc), &state); err != nil {
			return nil, nil, errors.Wrapf(err, "corrupt state document in configmap %s/%s", s.namespace, s.name)
		}
	}
	return state, configMap, nil
}

func (s *ConfigMapStore) save(ctx context.Context, configMap *corev1.ConfigMap, state map[string]string) error {
	doc, err := yaml.Marshal(state)
	if err != nil {
		return err
	}
	if configMap == nil {
		_, err := s.client.CoreV1().ConfigMaps(s.namespace).Create(ctx, &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: s.name, Namespace: s.namespace},
			Data:       map[string]string{stateDocumentKey: string(doc)},
		}, metav1.CreateOptions{})
		return err
	}
	if configMap.Data == nil {
		configMap.Data = make(map[string]string)
	}
	configMap.Data[stateDocumentKey] = string(doc)
	_, err = s.client.CoreV1().ConfigMaps(s.namespace).Update(ctx, configMap, metav1.UpdateOptions{})
	return err
}
