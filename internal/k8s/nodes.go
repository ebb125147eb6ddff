package k8s

import (
	"context"
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/imamik/oxide/internal/fault"
)

// NodeState is what the scaling protocol needs to know about a node.
// A missing node has the zero value.
type NodeState struct {
	Exists        bool
	Unschedulable bool
	Ready         bool
}

// NodeInfo summarizes a node for status output.
type NodeInfo struct {
	Name       string
	Ready      bool
	Roles      []string
	InternalIP string
	ExternalIP string
	Version    string
}

// GetNodeState returns the state of the named node.
func (c *Client) GetNodeState(ctx context.Context, name string) (NodeState, error) {
	node, err := c.clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		err = classify("get node", err)
		if fault.IsNotFound(err) {
			return NodeState{}, nil
		}
		return NodeState{}, fmt.Errorf("failed to get node %s: %w", name, err)
	}

	return NodeState{
		Exists:        true,
		Unschedulable: node.Spec.Unschedulable,
		Ready:         isNodeReady(node),
	}, nil
}

// DeleteNode removes the node object. A missing node is fault.NotFound.
func (c *Client) DeleteNode(ctx context.Context, name string) error {
	err := c.clientset.CoreV1().Nodes().Delete(ctx, name, metav1.DeleteOptions{})
	if err = classify("delete node", err); err != nil {
		return fmt.Errorf("failed to delete node %s: %w", name, err)
	}
	return nil
}

// ListNodes returns all nodes sorted by name.
func (c *Client) ListNodes(ctx context.Context) ([]NodeInfo, error) {
	list, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err = classify("list nodes", err); err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	nodes := make([]NodeInfo, 0, len(list.Items))
	for i := range list.Items {
		n := &list.Items[i]
		info := NodeInfo{
			Name:    n.Name,
			Ready:   isNodeReady(n),
			Roles:   nodeRoles(n),
			Version: n.Status.NodeInfo.KubeletVersion,
		}
		for _, addr := range n.Status.Addresses {
			switch addr.Type {
			case corev1.NodeInternalIP:
				if info.InternalIP == "" {
					info.InternalIP = addr.Address
				}
			case corev1.NodeExternalIP:
				if info.ExternalIP == "" {
					info.ExternalIP = addr.Address
				}
			}
		}
		nodes = append(nodes, info)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes, nil
}

// AllNodesReady reports whether at least one node exists and every node is Ready.
func (c *Client) AllNodesReady(ctx context.Context) (bool, error) {
	list, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err = classify("list nodes", err); err != nil {
		return false, fmt.Errorf("failed to list nodes: %w", err)
	}
	if len(list.Items) == 0 {
		return false, nil
	}
	for i := range list.Items {
		if !isNodeReady(&list.Items[i]) {
			return false, nil
		}
	}
	return true, nil
}

func isNodeReady(node *corev1.Node) bool {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

const rolePrefix = "node-role.kubernetes.io/"

func nodeRoles(node *corev1.Node) []string {
	var roles []string
	for k := range node.Labels {
		if len(k) > len(rolePrefix) && k[:len(rolePrefix)] == rolePrefix {
			roles = append(roles, k[len(rolePrefix):])
		}
	}
	sort.Strings(roles)
	return roles
}
