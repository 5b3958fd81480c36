package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Detail       string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ UNKNOWN TYPE: field.strng
//	   No type field.strng is registered.
//
//	   Did you mean: field.string?
//
//	   → List types: metareg types --family field
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var head, body *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		head, body, symbol = paint(opts.NoColor, color.FgYellow, color.Bold), paint(opts.NoColor, color.FgYellow), "⚠️"
	case ErrorLevelInfo:
		head, body, symbol = paint(opts.NoColor, color.FgCyan, color.Bold), paint(opts.NoColor, color.FgCyan), "ℹ️"
	default:
		head, body, symbol = paint(opts.NoColor, color.FgRed, color.Bold), paint(opts.NoColor, color.FgRed), "❌"
	}

	if opts.Context != "" {
		head.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		head.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Detail != "" {
		body.Fprintf(&b, "   %s\n", opts.Detail)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		paint(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := paint(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return paint(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// UnknownTypeError reports a type name that is not registered, suggesting
// close registered names.
func UnknownTypeError(name string, registered []string, noColor bool) string {
	family := name
	if i := strings.IndexByte(name, '.'); i > 0 {
		family = name[:i]
	}
	return FormatError(ErrorOptions{
		Context:     "UNKNOWN TYPE",
		Problem:     name,
		Detail:      fmt.Sprintf("No type %s is registered.", name),
		Suggestions: FindSimilar(name, registered, nil),
		HelpCommands: []string{
			"List types: metareg types --family " + family,
		},
		NoColor: noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"View config: cat metareg.yml",
			"Create a config: metareg init",
		},
		NoColor: noColor,
	})
}

// DiscoveryError formats a failed discovery run. Provider errors carry the
// phase and provider name in the header.
func DiscoveryError(err error, noColor bool) string {
	opts := ErrorOptions{
		Context: "DISCOVERY FAILED",
		Problem: err.Error(),
		HelpCommands: []string{
			"Check catalogs: metareg validate",
		},
		NoColor: noColor,
	}
	var provErr *metadata.ProviderError
	if errors.As(err, &provErr) {
		opts.Problem = fmt.Sprintf("provider %s failed during %s", provErr.Provider, strings.ToLower(provErr.Phase.Description()))
		switch {
		case len(provErr.Cycle) > 0:
			opts.Detail = "Cycle: " + strings.Join(provErr.Cycle, " -> ")
		case len(provErr.Missing) > 0:
			opts.Detail = "Missing dependencies: " + strings.Join(provErr.Missing, ", ")
		case provErr.Err != nil:
			opts.Detail = provErr.Err.Error()
		}
	}
	if errors.Is(err, metadata.ErrCircularDependency) || errors.Is(err, metadata.ErrMissingDependency) {
		opts.HelpCommands = append(opts.HelpCommands, "Show providers: metareg providers")
	}
	return FormatError(opts)
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: message, NoColor: noColor})
}

// Info creates a standardized info message
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelInfo, Problem: message, NoColor: noColor})
}
