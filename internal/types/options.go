package types

// Option is a functional option for a single backend call.
type Option func(*AccessOptions)

// AccessOptions holds the per-call switches of the backends.
type AccessOptions struct {
	// Raw uses the key as the stored name, skipping the prefix and generation.
	Raw bool
	// Autoload is the eagerness hint passed to the option store.
	Autoload bool
}

// DefaultAccessOptions returns options with autoload enabled.
func DefaultAccessOptions() *AccessOptions {
	return &AccessOptions{Autoload: true}
}

// ApplyOptions applies functional options on top of DefaultAccessOptions.
func ApplyOptions(opts ...Option) *AccessOptions {
	options := DefaultAccessOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Raw makes the call address the exact stored name.
func Raw() Option {
	return func(o *AccessOptions) {
		o.Raw = true
	}
}

// WithAutoload sets the autoload hint of an option write.
func WithAutoload(autoload bool) Option {
	return func(o *AccessOptions) {
		o.Autoload = autoload
	}
}

// WithoutAutoload clears the autoload hint of an option write.
func WithoutAutoload() Option {
	return WithAutoload(false)
}
