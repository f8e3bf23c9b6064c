// SPDX-License-Identifier: AGPL-3.0-or-later

// Package perr defines the single error kind used across the provisioning
// engine: a discriminated reason code plus an opaque details payload.
// One type with a Reason field rather than one sentinel per failure,
// because several reasons carry structured data (conflict maps, orphan
// lists) that callers need to get back out.
package perr

import "fmt"

// Reason discriminates the kind of provisioning failure.
type Reason string

const (
	UnknownFeaturePack            Reason = "unknown_feature_pack"
	UnsatisfiedDependency         Reason = "unsatisfied_feature_pack_dependency"
	PatchAlreadyApplied           Reason = "patch_already_applied"
	PatchNotApplicable            Reason = "patch_not_applicable"
	PatchAlreadyLoaded            Reason = "patch_already_loaded"
	VersionConflict               Reason = "version_conflict"
	TransitiveDependencyNotFound  Reason = "transitive_dependency_not_found"
	PluginOptionRequired          Reason = "plugin_option_required"
	PluginOptionIllegalValue      Reason = "plugin_option_illegal_value"
	PluginOptionsNotRecognised    Reason = "plugin_options_not_recognised"
	ArtifactResolverMissing       Reason = "artifact_resolver_missing"
	InvalidConvergenceOption      Reason = "invalid_convergence_option"
	UpdateNotInstalled            Reason = "update_not_installed"
	CopyFailed                    Reason = "copy_failed"
	MkdirFailed                   Reason = "mkdir_failed"
	ReadDirFailed                 Reason = "read_dir_failed"
)

// Error is the provisioning engine's single error type. Details carries
// reason-specific structured data (e.g. a VersionConflict carries
// map[location.ProducerSpec][]location.FeaturePackID); callers that need
// it type-assert on the concrete type the raising code passed to New.
type Error struct {
	Reason  Reason
	Message string
	Details any
	Wrapped error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// New builds an Error with no wrapped cause.
func New(reason Reason, message string, details any) *Error {
	return &Error{Reason: reason, Message: message, Details: details}
}

// Wrap builds an Error that wraps cause, appending its message.
func Wrap(reason Reason, cause error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Reason: reason, Message: fmt.Sprintf("%s: %v", msg, cause), Wrapped: cause}
}

// HasReason reports whether err is a *Error with the given reason, so callers
// can write `errors.Is`-style checks without importing reflect-heavy
// comparisons: perr.HasReason(err, perr.VersionConflict).
func HasReason(err error, reason Reason) bool {
	pe, ok := err.(*Error)
	return ok && pe.Reason == reason
}
