package app

import (
	"github.com/Abdul-Halim01/mini-RAG/pkg/app/cliflag"
)

// CliOptions is the interface for CLI options.
// Any options struct implementing this interface can be used with App.
type CliOptions interface {
	// Flags returns the flags grouped into named flag sets.
	Flags() cliflag.NamedFlagSets
	// Validate validates the options.
	Validate() error
	// Complete completes the options with defaults.
	Complete() error
}

// PrintableOptions is an optional interface for options that can print themselves.
type PrintableOptions interface {
	String() string
}
