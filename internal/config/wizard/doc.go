// Package wizard provides the interactive form behind "oxide init --interactive".
//
// It uses charmbracelet/huh for form-based input collection. RunWizard
// returns a Result; BuildConfig turns it into a config.ClusterConfig that
// the caller saves with config.Save.
package wizard
