package handlers

import (
	"log"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"k8s.io/klog/v2"
)

// ConfigureLogging routes client-go's klog output. It is shown only with
// --verbose; otherwise client-go warnings would interleave with progress
// output.
func ConfigureLogging(verbose bool) {
	if !verbose {
		klog.SetLogger(logr.Discard())
		return
	}
	klog.SetLogger(funcr.New(func(prefix, args string) {
		if prefix != "" {
			log.Printf("[client-go] %s: %s", prefix, args)
			return
		}
		log.Printf("[client-go] %s", args)
	}, funcr.Options{Verbosity: 2}))
}
