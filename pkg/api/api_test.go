package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"forkskinny-go/pkg/forkcipher"
	"forkskinny-go/pkg/integral"
	"forkskinny-go/pkg/prng"
)

func testParams() integral.Params {
	return integral.Params{
		Fork:            forkcipher.Fork{Rounds: 6, ForkPoint: 3, Skip: 5},
		ActivePlaintext: []int{14},
		ActiveTweakey:   integral.ActiveTweakey{Index: 15, Words: 1},
		Targets:         []int{3, 15},
	}
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Api.ServeHTTP(rec, req)
	return rec
}

func TestStatusFollowsHarness(t *testing.T) {
	var prog integral.Progress
	s := NewServer("batch-1", testParams(), &prog)

	rec := get(t, s, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.Equal(t, "batch-1", st.Batch)
	require.Nil(t, st.Last)
	require.Zero(t, st.Progress.Encryptions)

	h, err := integral.NewHarness(testParams(), prng.New(prng.Seed{1}), integral.SearchOptions{Progress: &prog})
	require.NoError(t, err)
	trial := 0
	_, err = h.Run(context.Background(), 2, func(res *integral.Result) error {
		trial++
		s.Observe(trial, res)
		return nil
	})
	require.NoError(t, err)

	rec = get(t, s, "/status")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.NotNil(t, st.Last)
	require.Equal(t, 2, st.Last.Trial)
	require.Equal(t, int64(2), st.Progress.Trials)
	require.Equal(t, uint64(256), st.Progress.Encryptions)
	require.Equal(t, float64(100), st.Progress.Percent)
	require.Equal(t, 6, st.Params.Fork.Rounds)
}

func TestStatusWithoutProgress(t *testing.T) {
	s := NewServer("b", testParams(), nil)
	rec := get(t, s, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.Zero(t, st.Progress.Total)
}

func TestShapeEndpoints(t *testing.T) {
	s := NewServer("b", testParams(), &integral.Progress{})
	s.Observe(1, &integral.Result{Control: 7})

	rec := get(t, s, "/shape")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Body.String(), "digraph forkcheck"))
	require.Contains(t, rec.Body.String(), `<td bgcolor="#B0C8FF">7</td>`)

	rec = get(t, s, "/shape.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "<svg")

	require.Equal(t, http.StatusNotFound, get(t, s, "/peers").Code)
}

func TestRunStopsWithContext(t *testing.T) {
	s := NewServer("b", testParams(), &integral.Progress{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
