package kubernetes

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/cache"
)

// Labels a source service must carry to be picked up by the relay.
const (
	labelEnabled  = "xbroadcast-relay-enabled"
	labelStreamID = "xbroadcast-relay-stream-id"
)

// K8sResolver resolves the upstream source address by scanning cluster
// services labelled for the relay.
type K8sResolver struct {
	store    cache.Store
	streamID string
}

// NewK8sResolver starts a shared service informer and resolves against its
// cache. streamID selects which labelled service feeds this relay.
func NewK8sResolver(clientset kubernetes.Interface, streamID string) *K8sResolver {
	factory := informers.NewSharedInformerFactory(clientset, 10*time.Minute)
	serviceInformer := factory.Core().V1().Services().Informer()

	// Start the informer in the background
	stopCh := make(chan struct{})
	go factory.Start(stopCh)
	factory.WaitForCacheSync(stopCh)

	return &K8sResolver{
		store:    serviceInformer.GetStore(),
		streamID: streamID,
	}
}

func (r *K8sResolver) Resolve(ctx context.Context) (string, error) {
	for _, obj := range r.store.List() {
		svc, ok := obj.(*corev1.Service)
		if !ok {
			continue
		}

		labels := svc.Labels
		if labels[labelEnabled] != "true" {
			continue
		}
		if labels[labelStreamID] != r.streamID {
			continue
		}

		if len(svc.Spec.Ports) == 0 {
			continue
		}
		port := svc.Spec.Ports[0].Port
		if port == 0 {
			continue
		}

		return fmt.Sprintf("%s.%s.svc.cluster.local:%d", svc.Name, svc.Namespace, port), nil
	}

	return "", fmt.Errorf("no source service found for stream_id='%s'", r.streamID)
}
