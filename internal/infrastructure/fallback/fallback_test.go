package fallback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name   string
	result string
	err    error
	calls  int
}

func (f *fakeBackend) run(_ context.Context) (string, error) {
	f.calls++
	return f.result, f.err
}

func runFakes(ctx context.Context, policy Policy, backends []*fakeBackend, opts ...Option) (string, string, error) {
	return Run(ctx, backends,
		func(b *fakeBackend) string { return b.name },
		policy,
		func(ctx context.Context, b *fakeBackend) (string, error) { return b.run(ctx) },
		opts...,
	)
}

func TestRun_FirstSuccessWins(t *testing.T) {
	first := &fakeBackend{name: "pdftoppm", result: "hi-fi"}
	second := &fakeBackend{name: "fitz", result: "fallback"}

	result, backend, err := runFakes(context.Background(), ContinueOnAnyError, []*fakeBackend{first, second})
	require.NoError(t, err)
	assert.Equal(t, "hi-fi", result)
	assert.Equal(t, "pdftoppm", backend)
	assert.Zero(t, second.calls)
}

func TestRun_ContinueOnAnyError(t *testing.T) {
	missing := &fakeBackend{name: "pdftoppm", err: Unavailable("pdftoppm", "executable not found", nil)}
	broken := &fakeBackend{name: "chromedp", err: errors.New("websocket closed")}
	working := &fakeBackend{name: "fitz", result: "bitmap"}

	var observed []string
	result, backend, err := runFakes(context.Background(), ContinueOnAnyError,
		[]*fakeBackend{missing, broken, working},
		WithObserver(func(name string, _ error) { observed = append(observed, name) }),
	)
	require.NoError(t, err)
	assert.Equal(t, "bitmap", result)
	assert.Equal(t, "fitz", backend)
	assert.Equal(t, []string{"pdftoppm", "chromedp"}, observed)
}

func TestRun_ContinueOnUnavailableStopsOnRealFailure(t *testing.T) {
	preferred := &fakeBackend{name: "sumatra", err: errors.New("printer jammed")}
	native := &fakeBackend{name: "lp"}

	_, backend, err := runFakes(context.Background(), ContinueOnUnavailable, []*fakeBackend{preferred, native})
	require.Error(t, err)
	assert.EqualError(t, err, "printer jammed")
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, "sumatra", backend)
	assert.Zero(t, native.calls, "an installed tool's failure must not be masked")
}

func TestRun_ContinueOnUnavailableSkipsMissingTool(t *testing.T) {
	preferred := &fakeBackend{name: "sumatra", err: Unavailable("sumatra", "executable not found", errors.New("exec: not found"))}
	native := &fakeBackend{name: "lp", result: "request id is Zebra-12"}

	result, backend, err := runFakes(context.Background(), ContinueOnUnavailable, []*fakeBackend{preferred, native})
	require.NoError(t, err)
	assert.Equal(t, "lp", backend)
	assert.Equal(t, "request id is Zebra-12", result)
}

func TestRun_Exhausted(t *testing.T) {
	cause := errors.New("corrupt xref table")
	a := &fakeBackend{name: "pdftoppm", err: Unavailable("pdftoppm", "executable not found", nil)}
	b := &fakeBackend{name: "fitz", err: cause}

	_, _, err := runFakes(context.Background(), ContinueOnAnyError, []*fakeBackend{a, b})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "pdftoppm")
	assert.Contains(t, err.Error(), "fitz")
}

func TestRun_NoBackends(t *testing.T) {
	_, _, err := runFakes(context.Background(), ContinueOnAnyError, nil)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &fakeBackend{name: "pdftoppm", result: "x"}

	_, _, err := runFakes(ctx, ContinueOnAnyError, []*fakeBackend{a})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, a.calls)
}

func TestUnavailableError(t *testing.T) {
	cause := errors.New("exec: \"lp\": executable file not found in $PATH")
	err := Unavailable("lp", "executable not found", cause)

	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "lp unavailable: executable not found: "+cause.Error(), err.Error())
	assert.False(t, IsUnavailable(errors.New("other")))
}
