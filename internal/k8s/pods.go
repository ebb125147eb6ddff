package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PodsReady reports whether at least one pod matches the selector and all
// matching pods are running and Ready.
func (c *Client) PodsReady(ctx context.Context, namespace, labelSelector string) (bool, error) {
	pods, err := c.GetPods(ctx, namespace, labelSelector)
	if err != nil {
		return false, err
	}
	if len(pods) == 0 {
		return false, nil
	}
	for i := range pods {
		if !isPodReady(&pods[i]) {
			return false, nil
		}
	}
	return true, nil
}

// GetPods returns pods matching a label selector in a namespace.
func (c *Client) GetPods(ctx context.Context, namespace, labelSelector string) ([]corev1.Pod, error) {
	podList, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err = classify("list pods", err); err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	return podList.Items, nil
}

// isPodReady checks if a pod is ready.
func isPodReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}

	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady &&
			condition.Status == corev1.ConditionTrue {
			return true
		}
	}

	return false
}
