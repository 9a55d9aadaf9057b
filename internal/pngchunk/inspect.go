package pngchunk

// ChunkInfo summarizes one chunk for display.
type ChunkInfo struct {
	Offset       int    `json:"offset"`
	Type         string `json:"type"`
	Length       uint32 `json:"length"`
	StoredCRC    uint32 `json:"stored_crc"`
	ComputedCRC  uint32 `json:"computed_crc"`
	CRCValid     bool   `json:"crc_valid"`
	Ancillary    bool   `json:"ancillary"`
	Keyword      string `json:"keyword,omitempty"`
	// KeywordError explains why Keyword breaks the tEXt keyword rules.
	KeywordError string `json:"keyword_error,omitempty"`
}

// Inspect lists every chunk in stream up to and including IEND.
func Inspect(stream []byte, opts ...ReadOption) ([]ChunkInfo, error) {
	var infos []ChunkInfo
	for c, err := range Chunks(stream, opts...) {
		if err != nil {
			return infos, err
		}
		computed := c.ComputeCRC()
		info := ChunkInfo{
			Offset:      c.Offset,
			Type:        c.Type.String(),
			Length:      c.Length,
			StoredCRC:   c.CRC,
			ComputedCRC: computed,
			CRCValid:    computed == c.CRC,
			Ancillary:   c.Type.Ancillary(),
		}
		if c.Type == TEXT {
			if keyword, _, ok := SplitText(c.Data); ok {
				info.Keyword = string(keyword)
				if err := ValidateKeyword(info.Keyword); err != nil {
					info.KeywordError = err.Error()
				}
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ImageData totals the IDAT chunks in infos.
func ImageData(infos []ChunkInfo) (chunks int, size int64) {
	idat := IDAT.String()
	for _, info := range infos {
		if info.Type == idat {
			chunks++
			size += int64(info.Length)
		}
	}
	return chunks, size
}
