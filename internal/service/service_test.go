package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"tickmill/internal/domain"
	"tickmill/internal/port"
)

// memStorage is an in-memory ObjectStorage shared by the service tests.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
}

func (m *memStorage) has(bucket, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[bucket+"/"+key]
	return ok
}

func (m *memStorage) Upload(_ context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.put(input.Bucket, input.Key, data)
	return &port.UploadOutput{Location: input.Key}, nil
}

func (m *memStorage) Download(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *memStorage) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *memStorage) List(_ context.Context, bucket, prefix string, max int) ([]port.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k := range m.objects {
		if len(k) > len(bucket) && k[:len(bucket)+1] == bucket+"/" {
			keys = append(keys, k[len(bucket)+1:])
		}
	}
	sort.Strings(keys)

	var infos []port.ObjectInfo
	for _, k := range keys {
		if max > 0 && len(infos) >= max {
			break
		}
		infos = append(infos, port.ObjectInfo{Key: k, Size: int64(len(m.objects[bucket+"/"+k]))})
	}
	return infos, nil
}

func (m *memStorage) Exists(_ context.Context, bucket, key string) (bool, error) {
	return m.has(bucket, key), nil
}

func (m *memStorage) GetPresignedURL(_ context.Context, bucket, key string, _ int64) (string, error) {
	return "https://signed.example/get/" + key, nil
}

func (m *memStorage) PutPresignedURL(_ context.Context, bucket, key string, _ int64) (string, error) {
	return "https://signed.example/put/" + key, nil
}

// scriptInvoker returns canned completions in order; an empty string entry
// simulates a transport failure.
type scriptInvoker struct {
	responses []string
	calls     int
}

func (s *scriptInvoker) Invoke(_ context.Context, _ port.InvokeInput) (string, error) {
	if s.calls >= len(s.responses) {
		return "", errors.New("unexpected inference call")
	}
	resp := s.responses[s.calls]
	s.calls++
	if resp == "" {
		return "", errors.New("simulated transport failure")
	}
	return resp, nil
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}
