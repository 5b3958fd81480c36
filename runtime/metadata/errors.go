package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, one per failure kind. Every error returned by this
// package matches one of them with errors.Is.
var (
	ErrRegistrationConflict = errors.New("registration conflict")
	ErrInvalidDefinition    = errors.New("invalid type definition")
	ErrUnknownType          = errors.New("unknown type")
	ErrMissingDependency    = errors.New("missing provider dependency")
	ErrCircularDependency   = errors.New("circular provider dependency")
	ErrProviderFailed       = errors.New("provider failed")
	ErrPlacementViolation   = errors.New("placement violation")
	ErrInstanceConstruction = errors.New("instance construction failure")
)

// ErrorCode is a stable identifier for a registry error.
type ErrorCode string

const (
	CodeRegistrationConflict ErrorCode = "REG100"
	CodeInvalidDefinition    ErrorCode = "REG101"
	CodeUnknownType          ErrorCode = "TYP200"
	CodeMissingDependency    ErrorCode = "PRV300"
	CodeCircularDependency   ErrorCode = "PRV301"
	CodeProviderFailed       ErrorCode = "PRV302"
	CodeDiscoveryFailed      ErrorCode = "PRV303"
	CodePlacementViolation   ErrorCode = "PLC400"
	CodeInstanceConstruction ErrorCode = "INS500"
)

// ErrorCategory groups error codes.
type ErrorCategory string

const (
	CategoryRegistration ErrorCategory = "registration"
	CategoryLookup       ErrorCategory = "lookup"
	CategoryProvider     ErrorCategory = "provider"
	CategoryPlacement    ErrorCategory = "placement"
	CategoryInstance     ErrorCategory = "instance"
)

// ErrorSeverity tells callers whether the failure is fatal to startup.
type ErrorSeverity string

const (
	// SeverityFatal errors abort registry population.
	SeverityFatal ErrorSeverity = "fatal"
	// SeverityRecoverable errors reject one operation; the caller may continue.
	SeverityRecoverable ErrorSeverity = "recoverable"
)

// RegistryError is the structured error returned by registry operations.
type RegistryError struct {
	Code       ErrorCode     `json:"code"`
	Category   ErrorCategory `json:"category"`
	Severity   ErrorSeverity `json:"severity"`
	Message    string        `json:"message"`
	Type       string        `json:"type,omitempty"`
	Expected   string        `json:"expected,omitempty"`
	Actual     string        `json:"actual,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	Available  []string      `json:"available,omitempty"`

	sentinel error
	cause    error
}

func (e *RegistryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&b, " (expected %s, got %s)", e.Expected, e.Actual)
	}
	if len(e.Available) > 0 {
		fmt.Fprintf(&b, ". Available types: %s", strings.Join(e.Available, ", "))
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *RegistryError) Unwrap() error { return e.cause }

// Is matches the sentinel for the error's kind.
func (e *RegistryError) Is(target error) bool {
	return e.sentinel != nil && target == e.sentinel
}

// ToJSON returns the error as indented JSON.
func (e *RegistryError) ToJSON() (string, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WithType sets the qualified type the error is about.
func (e *RegistryError) WithType(qualified string) *RegistryError {
	e.Type = qualified
	return e
}

// WithExpected sets what was expected.
func (e *RegistryError) WithExpected(expected string) *RegistryError {
	e.Expected = expected
	return e
}

// WithActual sets what was found instead.
func (e *RegistryError) WithActual(actual string) *RegistryError {
	e.Actual = actual
	return e
}

// WithSuggestion sets a hint for fixing the error.
func (e *RegistryError) WithSuggestion(suggestion string) *RegistryError {
	e.Suggestion = suggestion
	return e
}

// WithAvailable sets the list of known alternatives.
func (e *RegistryError) WithAvailable(names []string) *RegistryError {
	e.Available = names
	return e
}

// WithCause sets the underlying error.
func (e *RegistryError) WithCause(err error) *RegistryError {
	e.cause = err
	return e
}

func newRegistryError(code ErrorCode, sentinel error, message string) *RegistryError {
	e := &RegistryError{
		Code:     code,
		Message:  message,
		Severity: SeverityFatal,
		sentinel: sentinel,
	}
	switch code {
	case CodeRegistrationConflict, CodeInvalidDefinition:
		e.Category = CategoryRegistration
	case CodeUnknownType:
		e.Category = CategoryLookup
		e.Severity = SeverityRecoverable
	case CodePlacementViolation:
		e.Category = CategoryPlacement
		e.Severity = SeverityRecoverable
	case CodeInstanceConstruction:
		e.Category = CategoryInstance
		e.Severity = SeverityRecoverable
	default:
		e.Category = CategoryProvider
	}
	return e
}

func newRegistrationConflict(id TypeIdentifier, existing, incoming Implementation) *RegistryError {
	return newRegistryError(CodeRegistrationConflict, ErrRegistrationConflict,
		"type already registered with a different implementation: "+id.QualifiedName()).
		WithType(id.QualifiedName()).
		WithExpected(existing.Name).
		WithActual(incoming.Name)
}

func newInvalidDefinition(id TypeIdentifier, reason string) *RegistryError {
	name := "undefined"
	if !id.IsZero() {
		name = id.QualifiedName()
	}
	return newRegistryError(CodeInvalidDefinition, ErrInvalidDefinition,
		fmt.Sprintf("invalid definition for %s: %s", name, reason)).WithType(name)
}

func newUnknownType(what string, available []string) *RegistryError {
	return newRegistryError(CodeUnknownType, ErrUnknownType, "no type registered for: "+what).
		WithType(what).
		WithAvailable(available)
}

func newInstanceError(id TypeIdentifier, message string) *RegistryError {
	return newRegistryError(CodeInstanceConstruction, ErrInstanceConstruction, message).
		WithType(id.QualifiedName())
}

// ProviderPhase is the discovery phase a provider failure happened in.
type ProviderPhase string

const (
	PhaseDiscovery            ProviderPhase = "DISCOVERY"
	PhaseDependencyResolution ProviderPhase = "DEPENDENCY_RESOLUTION"
	PhaseTypeRegistration     ProviderPhase = "TYPE_REGISTRATION"
)

// Description returns the human name of the phase.
func (p ProviderPhase) Description() string {
	switch p {
	case PhaseDiscovery:
		return "Provider discovery"
	case PhaseDependencyResolution:
		return "Dependency resolution"
	case PhaseTypeRegistration:
		return "Type registration"
	default:
		return string(p)
	}
}

// ProviderError reports a failed discovery run. It is always fatal: no
// registration made during the failed run is visible afterwards.
type ProviderError struct {
	Provider     string
	Dependencies []string
	Missing      []string
	Cycle        []string
	Phase        ProviderPhase
	Err          error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", e.Phase.Description())
	switch {
	case len(e.Cycle) > 0:
		fmt.Fprintf(&b, "circular dependency detected: %s", strings.Join(e.Cycle, " -> "))
	case len(e.Missing) > 0:
		fmt.Fprintf(&b, "provider %q depends on unknown provider: %s", e.Provider, strings.Join(e.Missing, ", "))
	case e.Phase == PhaseTypeRegistration:
		fmt.Fprintf(&b, "failed to load provider %q", e.Provider)
	default:
		b.WriteString("provider discovery failed")
	}
	if e.Provider != "" && len(e.Missing) == 0 && e.Phase != PhaseTypeRegistration {
		fmt.Fprintf(&b, " (provider: %s)", e.Provider)
	}
	if len(e.Dependencies) > 0 {
		fmt.Fprintf(&b, " (dependencies: %s)", strings.Join(e.Dependencies, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the provider's own error.
func (e *ProviderError) Unwrap() error { return e.Err }

// Is matches ErrMissingDependency, ErrCircularDependency or ErrProviderFailed.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrMissingDependency:
		return len(e.Missing) > 0
	case ErrCircularDependency:
		return len(e.Cycle) > 0
	case ErrProviderFailed:
		return true
	}
	return false
}

// Code returns the registry error code for the failure.
func (e *ProviderError) Code() ErrorCode {
	switch {
	case len(e.Cycle) > 0:
		return CodeCircularDependency
	case len(e.Missing) > 0:
		return CodeMissingDependency
	case e.Phase == PhaseTypeRegistration:
		return CodeProviderFailed
	default:
		return CodeDiscoveryFailed
	}
}

// Diagnostic returns a multi-line description for startup logs.
func (e *ProviderError) Diagnostic() string {
	var b strings.Builder
	b.WriteString("Provider failure diagnostics:\n")
	fmt.Fprintf(&b, "  Provider: %s\n", e.Provider)
	fmt.Fprintf(&b, "  Phase: %s\n", e.Phase.Description())
	if len(e.Dependencies) > 0 {
		fmt.Fprintf(&b, "  Dependencies: %s\n", strings.Join(e.Dependencies, ", "))
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "  Missing dependencies: %s\n", strings.Join(e.Missing, ", "))
	}
	if len(e.Cycle) > 0 {
		fmt.Fprintf(&b, "  Cycle: %s\n", strings.Join(e.Cycle, " -> "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, "  Root cause: %v\n", e.Err)
	}
	return b.String()
}

// PlacementViolation reports a child that may not be placed under a parent.
// It is recoverable: callers reject the one node and keep going.
type PlacementViolation struct {
	Parent string
	Child  string
	Reason string
}

func (e *PlacementViolation) Error() string {
	return fmt.Sprintf("[%s] %s cannot be placed under %s: %s", CodePlacementViolation, e.Child, e.Parent, e.Reason)
}

// Is matches ErrPlacementViolation.
func (e *PlacementViolation) Is(target error) bool {
	return target == ErrPlacementViolation
}
