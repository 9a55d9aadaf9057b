package pngchunk

import (
	"bytes"
	"fmt"
)

// MaxKeywordLen is the longest keyword a tEXt chunk may carry.
const MaxKeywordLen = 79

// SplitText splits tEXt chunk data at its first null byte. ok is false when
// the data holds no separator.
func SplitText(data []byte) (keyword, value []byte, ok bool) {
	i := bytes.IndexByte(data, 0)
	if i < 0 {
		return nil, nil, false
	}
	return data[:i], data[i+1:], true
}

// TextData assembles keyword ++ 0x00 ++ value.
func TextData(keyword string, value []byte) []byte {
	out := make([]byte, 0, len(keyword)+1+len(value))
	out = append(out, keyword...)
	out = append(out, 0)
	return append(out, value...)
}

// ValidateKeyword checks the tEXt keyword rules: 1-79 printable Latin-1
// bytes without leading, trailing, or doubled spaces.
func ValidateKeyword(keyword string) error {
	if len(keyword) == 0 || len(keyword) > MaxKeywordLen {
		return fmt.Errorf("keyword length %d outside 1-%d", len(keyword), MaxKeywordLen)
	}
	if keyword[0] == ' ' || keyword[len(keyword)-1] == ' ' {
		return fmt.Errorf("keyword %q has leading or trailing space", keyword)
	}
	for i := 0; i < len(keyword); i++ {
		b := keyword[i]
		if (b < 32 || b > 126) && b < 161 {
			return fmt.Errorf("keyword %q contains invalid byte 0x%02x", keyword, b)
		}
		if b == ' ' && keyword[i-1] == ' ' {
			return fmt.Errorf("keyword %q contains consecutive spaces", keyword)
		}
	}
	return nil
}
