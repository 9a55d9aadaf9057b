package cartridge

import "tapedeck/internal/pngchunk"

// Strip returns a copy of stream without any tape chunks and the number of
// chunks removed. Bytes after IEND are kept.
func Strip(stream []byte, opts ...Option) ([]byte, int, error) {
	o := buildOptions(opts)
	if !pngchunk.HasSignature(stream) {
		return nil, 0, newError(KindNotAPNG, nil)
	}

	out := make([]byte, 0, len(stream))
	removed := 0
	copied := 0
	for c, err := range pngchunk.Chunks(stream, o.read()...) {
		if err != nil {
			return nil, 0, FromFormat(err)
		}
		if _, ok := isTapeChunk(c); !ok {
			continue
		}
		out = append(out, stream[copied:c.Offset]...)
		copied = c.End()
		removed++
	}
	out = append(out, stream[copied:]...)
	return out, removed, nil
}
