// Package http provides HTTP server configuration options.
package http

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/Abdul-Halim01/mini-RAG/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains HTTP server configuration.
type Options struct {
	// Addr is the address to listen on.
	Addr string `json:"addr" mapstructure:"addr"`
	// Mode is the gin mode (debug, release, test).
	Mode string `json:"mode" mapstructure:"mode"`
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `json:"read-timeout" mapstructure:"read-timeout"`
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`
	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `json:"idle-timeout" mapstructure:"idle-timeout"`
	// MaxMultipartMemoryMB limits in-memory buffering for multipart forms.
	MaxMultipartMemoryMB int64 `json:"max-multipart-memory-mb" mapstructure:"max-multipart-memory-mb"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		Addr:                 ":8080",
		Mode:                 "release",
		ReadTimeout:          30 * time.Second,
		WriteTimeout:         120 * time.Second,
		IdleTimeout:          60 * time.Second,
		MaxMultipartMemoryMB: 32,
	}
}

// AddFlags adds flags for HTTP options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Addr, options.Join(prefixes...)+"http.addr", o.Addr, "HTTP server listen address.")
	fs.StringVar(&o.Mode, options.Join(prefixes...)+"http.mode", o.Mode, "HTTP server mode (debug, release, test).")
	fs.DurationVar(&o.ReadTimeout, options.Join(prefixes...)+"http.read-timeout", o.ReadTimeout, "HTTP server read timeout.")
	fs.DurationVar(&o.WriteTimeout, options.Join(prefixes...)+"http.write-timeout", o.WriteTimeout, "HTTP server write timeout.")
	fs.DurationVar(&o.IdleTimeout, options.Join(prefixes...)+"http.idle-timeout", o.IdleTimeout, "HTTP server idle timeout.")
	fs.Int64Var(&o.MaxMultipartMemoryMB, options.Join(prefixes...)+"http.max-multipart-memory-mb", o.MaxMultipartMemoryMB, "Maximum in-memory size for multipart forms in megabytes.")
}

// Validate validates the HTTP options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Addr == "" {
		errs = append(errs, fmt.Errorf("http.addr cannot be empty"))
	}
	if o.Mode != "debug" && o.Mode != "release" && o.Mode != "test" {
		errs = append(errs, fmt.Errorf("http.mode must be one of debug, release, test"))
	}
	if o.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http.read-timeout must be positive"))
	}
	if o.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http.write-timeout must be positive"))
	}
	return errs
}

// Complete completes the HTTP options with defaults.
func (o *Options) Complete() error {
	if o.MaxMultipartMemoryMB <= 0 {
		o.MaxMultipartMemoryMB = 32
	}
	return nil
}
