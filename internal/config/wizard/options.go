package wizard

import "github.com/charmbracelet/huh"

// Option is a selectable value with a human description.
type Option struct {
	Value       string
	Description string
}

// Locations contains the Hetzner Cloud locations offered by the wizard.
var Locations = []Option{
	{Value: "nbg1", Description: "Nuremberg, Germany"},
	{Value: "fsn1", Description: "Falkenstein, Germany"},
	{Value: "hel1", Description: "Helsinki, Finland"},
	{Value: "ash", Description: "Ashburn, USA"},
	{Value: "hil", Description: "Hillsboro, USA"},
	{Value: "sin", Description: "Singapore"},
}

// NetworkZones maps a location to its private network zone.
var NetworkZones = map[string]string{
	"nbg1": "eu-central",
	"fsn1": "eu-central",
	"hel1": "eu-central",
	"ash":  "us-east",
	"hil":  "us-west",
	"sin":  "ap-southeast",
}

// ControlPlaneServerTypes contains recommended server types for control plane nodes.
var ControlPlaneServerTypes = []Option{
	{Value: "cpx21", Description: "3 vCPU, 4GB RAM (AMD)"},
	{Value: "cpx31", Description: "4 vCPU, 8GB RAM (AMD)"},
	{Value: "cax21", Description: "4 vCPU, 8GB RAM (ARM)"},
	{Value: "ccx13", Description: "2 vCPU, 8GB RAM (Dedicated)"},
}

// WorkerServerTypes contains recommended server types for worker nodes.
var WorkerServerTypes = []Option{
	{Value: "cpx31", Description: "4 vCPU, 8GB RAM (AMD)"},
	{Value: "cpx41", Description: "8 vCPU, 16GB RAM (AMD)"},
	{Value: "cpx51", Description: "16 vCPU, 32GB RAM (AMD)"},
	{Value: "cax31", Description: "8 vCPU, 16GB RAM (ARM)"},
	{Value: "ccx23", Description: "4 vCPU, 16GB RAM (Dedicated)"},
}

// TalosVersions contains selectable Talos versions, default first.
var TalosVersions = []Option{
	{Value: "v1.7.0", Description: "Default"},
	{Value: "v1.7.6", Description: "Latest patch"},
}

// KubernetesVersions contains selectable Kubernetes versions, default first.
var KubernetesVersions = []Option{
	{Value: "1.30.0", Description: "Default"},
	{Value: "1.29.7", Description: "Previous minor"},
}

// ControlPlaneCountOptions contains control plane sizes that keep etcd quorum odd.
var ControlPlaneCountOptions = []huh.Option[int]{
	huh.NewOption("1 (Development only)", 1),
	huh.NewOption("3 (Recommended for HA)", 3),
	huh.NewOption("5 (Large clusters)", 5),
}

// WorkerCountOptions contains common worker node counts.
var WorkerCountOptions = []huh.Option[int]{
	huh.NewOption("1", 1),
	huh.NewOption("2", 2),
	huh.NewOption("3", 3),
	huh.NewOption("5", 5),
	huh.NewOption("10", 10),
}

// ToOptions converts Option values to huh options labelled "value - description".
func ToOptions(opts []Option) []huh.Option[string] {
	out := make([]huh.Option[string], len(opts))
	for i, o := range opts {
		out[i] = huh.NewOption(o.Value+" - "+o.Description, o.Value)
	}
	return out
}
