package mail

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// maxMultipartDepth bounds nested multipart recursion
const maxMultipartDepth = 5

// noTextPlaceholder is returned when a message has no text/plain content
const noTextPlaceholder = "[No text content found in message]"

type headerGetter interface {
	Get(key string) string
}

var headerDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// decodeHeader decodes RFC 2047 encoded words, returning the input when decoding fails
func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// charsetReader converts a body in the named charset to UTF-8
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" || label == "utf-8" || label == "utf8" || label == "us-ascii" {
		return input, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// extractText returns the text/plain content of a message or part.
// Multipart bodies are walked recursively and their text parts joined.
func extractText(h headerGetter, body io.Reader) (string, error) {
	text, err := readText(h, body, 0)
	if err != nil {
		return "", err
	}
	if text == "" {
		return noTextPlaceholder, nil
	}
	return text, nil
}

func readText(h headerGetter, body io.Reader, depth int) (string, error) {
	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		mediaType, params = "text/plain", nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" || depth >= maxMultipartDepth {
			return "", nil
		}

		mr := multipart.NewReader(body, boundary)
		var text strings.Builder
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				if text.Len() > 0 {
					break
				}
				return "", fmt.Errorf("failed to read multipart body: %w", err)
			}

			partText, err := readText(part.Header, part, depth+1)
			if err != nil || partText == "" {
				continue
			}
			if text.Len() > 0 {
				text.WriteString("\n")
			}
			text.WriteString(partText)

			// alternatives carry the same content
			if mediaType == "multipart/alternative" {
				break
			}
		}
		return text.String(), nil
	}

	if mediaType != "text/plain" {
		return "", nil
	}

	reader, err := charsetReader(params["charset"], transferDecoder(h.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read text body: %w", err)
	}
	return strings.TrimSpace(strings.ReplaceAll(string(raw), "\r\n", "\n")), nil
}

func transferDecoder(encoding string, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, body)
	default:
		return body
	}
}
