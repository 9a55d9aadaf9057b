package cartridge

import "tapedeck/internal/pngchunk"

// Keyword marks the tEXt chunk holding tape state. It is part of the file
// format: changing it orphans every cartridge already exported.
const Keyword = "tapedeck"

type options struct {
	strictCRC bool
	replace   bool
}

// Option customizes Embed, Extract, and Strip.
type Option func(*options)

// WithStrictCRC verifies the stored CRC of every chunk traversed.
func WithStrictCRC(strict bool) Option {
	return func(o *options) {
		o.strictCRC = strict
	}
}

// WithReplace makes Embed remove existing tape chunks before inserting the
// new one. Without it an older payload earlier in the stream would still be
// the one Extract returns.
func WithReplace(replace bool) Option {
	return func(o *options) {
		o.replace = replace
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) read() []pngchunk.ReadOption {
	return []pngchunk.ReadOption{pngchunk.WithVerifyCRC(o.strictCRC)}
}

// isTapeChunk reports whether c is a tEXt chunk carrying Keyword and returns
// its value bytes.
func isTapeChunk(c pngchunk.Chunk) ([]byte, bool) {
	if c.Type != pngchunk.TEXT {
		return nil, false
	}
	keyword, value, ok := pngchunk.SplitText(c.Data)
	if !ok || string(keyword) != Keyword {
		return nil, false
	}
	return value, true
}
