package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
)

const (
	kindMP3  = "mp3"
	kindFLAC = "flac"

	// maxSourceSize caps how much of a remote source is buffered.
	maxSourceSize = 256 << 20
)

// ErrUnsupportedFormat is returned for sources that are neither MP3 nor FLAC.
var ErrUnsupportedFormat = errors.New("unsupported format")

// opener fetches a source and reports its format kind.
type opener func(ctx context.Context, source string) (*bytes.Reader, string, error)

// decoder turns buffered source bytes into a beep stream.
type decoder func(kind string, r *bytes.Reader) (beep.StreamSeekCloser, beep.Format, error)

// httpOpener buffers http(s) sources in memory so decoders can seek.
// file:// URLs and plain paths are read from disk.
func httpOpener(client *http.Client) opener {
	return func(ctx context.Context, source string) (*bytes.Reader, string, error) {
		u, err := url.Parse(source)
		if err != nil {
			return nil, "", err
		}

		var (
			body        io.ReadCloser
			contentType string
		)
		switch u.Scheme {
		case "http", "https":
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
			if err != nil {
				return nil, "", err
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, "", err
			}
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				return nil, "", fmt.Errorf("fetch source: %s", resp.Status)
			}
			body = resp.Body
			contentType = resp.Header.Get("Content-Type")
		case "file", "":
			f, err := os.Open(u.Path)
			if err != nil {
				return nil, "", err
			}
			body = f
		default:
			return nil, "", fmt.Errorf("unsupported source scheme %q", u.Scheme)
		}
		defer body.Close()

		data, err := io.ReadAll(io.LimitReader(body, maxSourceSize))
		if err != nil {
			return nil, "", err
		}
		kind := sourceKind(contentType, u.Path, data)
		if kind == "" {
			return nil, "", ErrUnsupportedFormat
		}
		return bytes.NewReader(data), kind, nil
	}
}

// sourceKind picks the decoder from the content type, then the path
// extension, then the leading bytes.
func sourceKind(contentType, p string, head []byte) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "audio/mpeg", "audio/mp3", "audio/mpeg3":
			return kindMP3
		case "audio/flac", "audio/x-flac":
			return kindFLAC
		}
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".mp3":
		return kindMP3
	case ".flac":
		return kindFLAC
	}
	switch {
	case bytes.HasPrefix(head, []byte("fLaC")):
		return kindFLAC
	case bytes.HasPrefix(head, []byte("ID3")):
		// FLAC files sometimes carry a prepended ID3v2 tag.
		r := bytes.NewReader(head)
		if skipID3v2(r) == nil {
			rest, _ := io.ReadAll(r)
			if bytes.HasPrefix(rest, []byte("fLaC")) {
				return kindFLAC
			}
		}
		return kindMP3
	case len(head) > 1 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return kindMP3
	}
	return ""
}

func decodeSource(kind string, r *bytes.Reader) (beep.StreamSeekCloser, beep.Format, error) {
	switch kind {
	case kindMP3:
		return decodeGoMP3(bytesSource{r})
	case kindFLAC:
		// Skip ID3v2 tag if present (some taggers add it to FLAC files)
		if err := skipID3v2(r); err != nil {
			return nil, beep.Format{}, err
		}
		return flac.Decode(r)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
}

// bytesSource gives a buffered source the ReadSeekCloser shape decoders
// expect.
type bytesSource struct {
	*bytes.Reader
}

func (bytesSource) Close() error { return nil }

// skipID3v2 skips an ID3v2 tag if present at the beginning of the stream.
func skipID3v2(r io.ReadSeeker) error {
	// Read the first 10 bytes to check for ID3v2 header
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// ID3v2 size is stored as a syncsafe integer in bytes 6-9
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])

	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
