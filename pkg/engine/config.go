package engine

// Config carries the engine-level settings every backend needs,
// independent of how a particular backend is wired up (its connection
// string, file path, etc. live in that backend's own config type).
type Config struct {
	// MaxReturnNum caps the page size accepted by any listing operation,
	// regardless of what the caller requests. Corresponds to
	// api_configuration.max_returned_num.
	MaxReturnNum int

	// MaxBlockSize caps the size RegisterBlock accepts for a single
	// block, in bytes. Zero means no cap. Corresponds to
	// api_configuration.max_block_size.
	MaxBlockSize int64
}

// EffectiveMaxReturnNum returns c.MaxReturnNum, or DefaultMaxReturnNum if
// it is unset.
func (c Config) EffectiveMaxReturnNum() int {
	if c.MaxReturnNum <= 0 {
		return DefaultMaxReturnNum
	}
	return c.MaxReturnNum
}
