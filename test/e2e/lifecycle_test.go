//go:build e2e

package e2e

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/k8s"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/provisioning/cluster"
	"github.com/imamik/oxide/internal/provisioning/cni"
	"github.com/imamik/oxide/internal/provisioning/compute"
	"github.com/imamik/oxide/internal/provisioning/destroy"
	"github.com/imamik/oxide/internal/provisioning/infrastructure"
	"github.com/imamik/oxide/internal/provisioning/scale"
	"github.com/imamik/oxide/internal/util/labels"
)

func serverNames() []string {
	servers, err := infra.GetServersByLabel(ctx, labels.ClusterSelector(cfg.ClusterName))
	Expect(err).NotTo(HaveOccurred())
	names := make([]string, 0, len(servers))
	for _, s := range servers {
		names = append(names, s.Name)
	}
	return names
}

var _ = Describe("Cluster lifecycle", Ordered, func() {
	AfterAll(func() {
		By("destroying the cluster")
		Expect(destroy.NewProvisioner().Provision(newContext())).To(Succeed())
		Expect(serverNames()).To(BeEmpty())
	})

	It("creates a cluster with all nodes ready", func() {
		pCtx := newContext()
		err := provisioning.RunPhases(pCtx, []provisioning.Phase{
			infrastructure.NewProvisioner(),
			cluster.NewConfigProvisioner(),
			compute.NewProvisioner(),
			cluster.NewProvisioner(),
			cni.NewProvisioner(nil),
		})
		Expect(err).NotTo(HaveOccurred())

		for _, name := range []string{artifacts.Kubeconfig, artifacts.Talosconfig, artifacts.ControlPlaneYAML, artifacts.WorkerYAML} {
			Expect(repo.Exists(name)).To(BeTrue(), name)
		}
		Expect(serverNames()).To(HaveLen(4))
	})

	It("adds a worker", func() {
		Expect(scale.NewScaler().Run(newContext(), scale.Request{Role: provisioning.RoleWorker, Count: 2})).To(Succeed())
		Expect(serverNames()).To(ContainElement(cfg.ClusterName + "-worker-2"))
	})

	It("refuses to break etcd quorum", func() {
		err := scale.NewScaler().Run(newContext(), scale.Request{Role: provisioning.RoleControlPlane, Count: 1})
		var qerr *scale.QuorumError
		Expect(err).To(BeAssignableToTypeOf(qerr))
		Expect(serverNames()).To(HaveLen(5))
	})

	It("removes the newest worker", func() {
		Expect(scale.NewScaler().Run(newContext(), scale.Request{Role: provisioning.RoleWorker, Count: 1})).To(Succeed())
		Expect(serverNames()).NotTo(ContainElement(cfg.ClusterName + "-worker-2"))

		kubeconfig, err := repo.Read(artifacts.Kubeconfig)
		Expect(err).NotTo(HaveOccurred())
		kube, err := k8s.NewFromKubeconfig(kubeconfig)
		Expect(err).NotTo(HaveOccurred())
		nodes, err := kube.ListNodes(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(4))
	})
})
