package contents

import (
	"encoding/base64"
	"unicode/utf8"
)

// Decode converts stored bytes to transport content.
//
// FormatText requires valid UTF-8. FormatNone negotiates: text when the
// bytes are valid UTF-8, base64 otherwise. Any other format yields base64.
// The returned format is the one actually used.
func Decode(data []byte, requested Format) (string, Format, error) {
	switch requested {
	case FormatText:
		if !utf8.Valid(data) {
			return "", FormatNone, newError(ErrNotUTF8, "", "File is not UTF-8 encoded")
		}
		return string(data), FormatText, nil
	case FormatNone:
		if utf8.Valid(data) {
			return string(data), FormatText, nil
		}
	}
	return base64.StdEncoding.EncodeToString(data), FormatBase64, nil
}

// Encode converts transport content to bytes. Only text and base64 are
// accepted. Base64 decoding skips line breaks.
func Encode(content string, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		if !utf8.ValidString(content) {
			return nil, newError(ErrEncoding, "", "Text content is not valid UTF-8")
		}
		return []byte(content), nil
	case FormatBase64:
		data, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, &Error{Code: ErrEncoding, Message: "Invalid base64 content", Err: err}
		}
		return data, nil
	}
	return nil, newError(ErrBadFormat, "", "Must specify format of file contents as 'text' or 'base64'")
}
