// Package fault classifies errors returned by external collaborators.
//
// Gateways (Hetzner Cloud, Talos, Kubernetes) wrap their native errors in
// an *Error carrying a Kind, so orchestration code can decide between
// fatal, retryable and idempotent outcomes without inspecting messages.
package fault
