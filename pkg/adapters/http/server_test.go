package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEngine serves a fixed scene.
type MockEngine struct {
	WatchFunc func(ctx context.Context) (<-chan string, error)
}

func (m *MockEngine) NodeExists(ctx context.Context, rootLayer string, path domain.Path) (bool, error) {
	idx, err := m.Inspect(ctx, rootLayer, path)
	return !idx.IsEmpty(), err
}

func (m *MockEngine) AttributeValue(ctx context.Context, rootLayer string, path domain.Path, attr string) (domain.Value, bool, error) {
	if rootLayer != "shot.json" {
		return domain.Value{}, false, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, rootLayer)
	}
	if path == "/world/chair" && attr == "height" {
		return domain.Double(1.25), true, nil
	}
	return domain.Value{}, false, nil
}

func (m *MockEngine) Inspect(ctx context.Context, rootLayer string, path domain.Path) (*domain.PrimIndex, error) {
	if rootLayer != "shot.json" && rootLayer != "set/shot.json" {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, rootLayer)
	}
	idx := &domain.PrimIndex{Root: domain.Site{LayerID: rootLayer, Path: path}}
	if path == "/world/chair" {
		idx.Entries = []domain.IndexEntry{{Site: idx.Root, Transform: domain.IdentityTransform}}
		idx.Errors = []*domain.CompositionError{{
			Kind:      domain.ErrorNoDefaultTarget,
			Site:      idx.Root,
			Reference: domain.NewReference("props.json"),
		}}
	}
	return idx, nil
}

func (m *MockEngine) Watch(ctx context.Context) (<-chan string, error) {
	if m.WatchFunc != nil {
		return m.WatchFunc(ctx)
	}
	ch := make(chan string)
	close(ch)
	return ch, nil
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetPrim(t *testing.T) {
	h := NewHandler(&MockEngine{})

	w := get(t, h, "/stages/shot.json/prims/world/chair")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp PrimResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Exists)
	assert.Equal(t, domain.Path("/world/chair"), resp.Path)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, domain.ErrorNoDefaultTarget, resp.Errors[0].Kind)

	w = get(t, h, "/stages/shot.json/prims/nothing")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Exists)
}

func TestGetPrim_PseudoRootAndEscapedLayer(t *testing.T) {
	h := NewHandler(&MockEngine{})

	w := get(t, h, "/stages/shot.json/prims")
	require.Equal(t, http.StatusOK, w.Code)
	var resp PrimResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Exists)
	assert.Equal(t, domain.AbsoluteRoot, resp.Path)

	w = get(t, h, "/stages/set%2Fshot.json/prims/world/chair")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "set/shot.json", resp.Layer)
}

func TestGetPrim_Errors(t *testing.T) {
	h := NewHandler(&MockEngine{})

	assert.Equal(t, http.StatusNotFound, get(t, h, "/stages/missing.json/prims/a").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/stages/shot.json/prims/1bad").Code)
}

func TestGetAttribute(t *testing.T) {
	h := NewHandler(&MockEngine{})

	w := get(t, h, "/stages/shot.json/attr/height/prims/world/chair")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp AttributeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, "double", resp.Type)
	assert.Equal(t, 1.25, resp.Value)

	w = get(t, h, "/stages/shot.json/attr/width/prims/world/chair")
	require.Equal(t, http.StatusOK, w.Code)
	resp = AttributeResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Found)
	assert.Nil(t, resp.Value)
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("strata_index_builds_total 0\n"))
	})
	h := NewHandler(&MockEngine{}, WithMetricsHandler(metrics), WithVersion("1.2.3\n"))

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Contains(t, get(t, h, "/metrics").Body.String(), "strata_index_builds_total")
	assert.Contains(t, get(t, h, "/info").Body.String(), `"version":"1.2.3"`)
}

func TestSubscribeEvents(t *testing.T) {
	mockEng := &MockEngine{
		WatchFunc: func(ctx context.Context) (<-chan string, error) {
			ch := make(chan string, 1)
			ch <- "props.yaml"
			close(ch)
			return ch, nil
		},
	}
	h := NewHandler(mockEng)

	w := get(t, h, "/events")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "event: ping"), "Expected ping event")
	assert.Contains(t, body, "data: props.yaml")
}

// readEvent returns the data line of the next SSE message.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return data
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestSubscribeEvents_SharesOneWatch(t *testing.T) {
	var calls atomic.Int32
	var once sync.Once
	feed := make(chan string)
	stopped := make(chan struct{})

	mockEng := &MockEngine{
		WatchFunc: func(ctx context.Context) (<-chan string, error) {
			calls.Add(1)
			out := make(chan string)
			go func() {
				defer once.Do(func() { close(stopped) })
				defer close(out)
				for {
					select {
					case <-ctx.Done():
						return
					case id := <-feed:
						select {
						case out <- id:
						case <-ctx.Done():
							return
						}
					}
				}
			}()
			return out, nil
		},
	}
	srv := httptest.NewServer(NewHandler(mockEng))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subscribe := func() *bufio.Reader {
		req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		r := bufio.NewReader(resp.Body)
		require.Equal(t, "connected", readEvent(t, r))
		return r
	}
	first := subscribe()
	second := subscribe()

	feed <- "props.yaml"
	assert.Equal(t, "props.yaml", readEvent(t, first))
	assert.Equal(t, "props.yaml", readEvent(t, second))
	assert.EqualValues(t, 1, calls.Load(), "clients share one engine watch")

	// The watch stops once the last client leaves.
	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("watch still running after every client disconnected")
	}
}
