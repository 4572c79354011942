package options

// MoneroSeed records the height at which a RandomX seed key was used by a stored header.
type MoneroSeed struct {
	Key    []byte
	Height uint64
}

type InsertHeadersOptions struct {
	// MoneroSeeds are recorded with the headers. A seed keeps its lowest height.
	MoneroSeeds []MoneroSeed

	// SkipTipUpdate stores the headers without moving the chain tip to the last one.
	SkipTipUpdate bool
}

type InsertHeadersOption func(*InsertHeadersOptions)

func WithMoneroSeeds(seeds ...MoneroSeed) InsertHeadersOption {
	return func(opts *InsertHeadersOptions) {
		opts.MoneroSeeds = append(opts.MoneroSeeds, seeds...)
	}
}

func WithSkipTipUpdate(b bool) InsertHeadersOption {
	return func(opts *InsertHeadersOptions) {
		opts.SkipTipUpdate = b
	}
}

func ProcessInsertHeadersOptions(opts ...InsertHeadersOption) *InsertHeadersOptions {
	options := &InsertHeadersOptions{}

	for _, opt := range opts {
		opt(options)
	}

	return options
}
