// SPDX-License-Identifier: AGPL-3.0-or-later

// Package options reconciles a provisioning config's persisted options
// against a caller's transient overrides and the set of options every
// discovered install plugin declares it understands, plus the
// plugin-discovery registry those declarations come from.
package options

import (
	"sort"

	"packline/pkg/perr"
)

// OptionSpec is one recognised option: its name, whether it must be set,
// and whether a transient override should be written back into the
// persisted config.
type OptionSpec struct {
	Name       string
	Required   bool
	Persistent bool
}

// BuiltIn is the fixed set of options the engine itself understands,
// independent of any plugin.
var BuiltIn = []OptionSpec{
	{Name: "VERSION_CONVERGENCE", Required: false, Persistent: true},
}

// Input is the three-source reconciliation problem posed as a pure
// function: config options, a caller's transient overrides, and the
// recognised-option set built from BuiltIn plus every discovered
// plugin's declared options.
type Input struct {
	ConfigOptions       map[string]string
	ExtraOptions        map[string]string
	Recognised          []OptionSpec
	CleanupConfigOptions bool
}

// Result is Reconcile's output: the effective options for this run, the
// options that should be written back into the persisted config, and
// any errors (required-but-unset, or unrecognised-and-not-cleaned-up).
type Result struct {
	Effective        map[string]string
	NewConfigOptions map[string]string
	Errors           []error
}

// Reconcile merges the three option sources in five steps, including
// both branches for a non-persistent override: when the override's
// value equals the config's value the config entry is left alone; when
// it differs the config entry is removed so the override applies only
// for this run. Both branches still return a config snapshot (never
// skip building one).
func Reconcile(in Input) Result {
	effective := mergeStrings(in.ConfigOptions, in.ExtraOptions)

	recognisedSet := make(map[string]OptionSpec, len(in.Recognised))
	for _, spec := range in.Recognised {
		recognisedSet[spec.Name] = spec
	}

	var errs []error
	for _, spec := range in.Recognised {
		if spec.Required {
			if _, ok := effective[spec.Name]; !ok {
				errs = append(errs, perr.New(perr.PluginOptionRequired, "required option not set: "+spec.Name, spec.Name))
			}
		}
	}

	newConfig := mergeStrings(in.ConfigOptions, nil)
	var unrecognised []string
	for name := range effective {
		if _, known := recognisedSet[name]; known {
			continue
		}
		if in.CleanupConfigOptions {
			delete(newConfig, name)
			continue
		}
		unrecognised = append(unrecognised, name)
	}
	if len(unrecognised) > 0 {
		sort.Strings(unrecognised)
		errs = append(errs, perr.New(perr.PluginOptionsNotRecognised, "unrecognised options", unrecognised))
	}

	for _, spec := range in.Recognised {
		value, overridden := in.ExtraOptions[spec.Name]
		if !overridden {
			continue
		}
		if spec.Persistent {
			newConfig[spec.Name] = value
			continue
		}
		if configValue, has := in.ConfigOptions[spec.Name]; has && configValue == value {
			continue
		}
		delete(newConfig, spec.Name)
	}

	return Result{Effective: effective, NewConfigOptions: newConfig, Errors: errs}
}

func mergeStrings(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
