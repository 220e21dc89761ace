package storage_test

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelcast/internal/config"
	"reelcast/internal/storage"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	heads   int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodHead:
		f.heads++
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, err := readObjectBody(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// readObjectBody returns the object payload, unwrapping aws-chunked framing
// (<hex-size>[;chunk-signature=...]\r\n<payload>\r\n ... 0...) when the
// client streams a signed upload.
func readObjectBody(r *http.Request) ([]byte, error) {
	chunked := strings.Contains(r.Header.Get("Content-Encoding"), "aws-chunked") ||
		strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-")
	if !chunked {
		return io.ReadAll(r.Body)
	}
	return decodeAWSChunked(r.Body)
}

func decodeAWSChunked(body io.Reader) ([]byte, error) {
	reader := bufio.NewReader(body)
	var out []byte
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		header := strings.TrimRight(line, "\r\n")
		sizeField, _, _ := strings.Cut(header, ";")
		size, err := strconv.ParseInt(strings.TrimSpace(sizeField), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parse chunk size %q: %w", header, err)
		}
		if size == 0 {
			return out, nil
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(reader, chunk); err != nil {
			return nil, fmt.Errorf("read chunk payload: %w", err)
		}
		out = append(out, chunk...)
		if _, err := reader.Discard(2); err != nil {
			return nil, fmt.Errorf("read chunk terminator: %w", err)
		}
	}
}

func TestDecodeAWSChunked(t *testing.T) {
	framed := "8;chunk-signature=aaaa\r\nID3audio\r\n" +
		"3;chunk-signature=bbbb\r\nmp3\r\n" +
		"0;chunk-signature=cccc\r\n\r\n"
	got, err := decodeAWSChunked(strings.NewReader(framed))
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audiomp3"), got)

	unsigned := "8\r\nID3audio\r\n0\r\nx-amz-checksum-crc32:AAAAAA==\r\n\r\n"
	got, err = decodeAWSChunked(strings.NewReader(unsigned))
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audio"), got)

	_, err = decodeAWSChunked(strings.NewReader("zz;chunk-signature=x\r\n"))
	assert.Error(t, err)
}

func TestPublishUploadsAndPresigns(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	server := httptest.NewServer(fake)
	defer server.Close()

	store, err := storage.New(config.Storage{
		Endpoint:             server.URL,
		AccessKey:            "minio",
		SecretKey:            "minio123",
		Bucket:               "reelcast-audio",
		Region:               "us-east-1",
		PresignExpiryMinutes: 60,
	}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	link, err := store.Publish(ctx, "proj_1", []byte("ID3audio"), "audio/mpeg")
	require.NoError(t, err)
	_, err = store.Publish(ctx, "proj_1", []byte("ID3again"), "audio/mpeg")
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(parsed.Path, "/reelcast-audio/audio/proj_1/"))
	assert.True(t, strings.HasSuffix(parsed.Path, ".mp3"))
	assert.NotEmpty(t, parsed.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "3600", parsed.Query().Get("X-Amz-Expires"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Len(t, fake.objects, 2)
	assert.Equal(t, []byte("ID3audio"), fake.objects[parsed.Path])
	assert.Equal(t, "audio/mpeg", fake.types[parsed.Path])
	assert.Equal(t, 1, fake.heads, "bucket existence is checked once")
}

func TestNewRequiresEndpointAndBucket(t *testing.T) {
	_, err := storage.New(config.Storage{Bucket: "b"}, nil)
	assert.Error(t, err)
	_, err = storage.New(config.Storage{Endpoint: "localhost:9000"}, nil)
	assert.Error(t, err)
}
