package recognizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestErrorCodeNotices(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrNetworkTimeout, "Error detected network timeout"},
		{ErrNetwork, "Error detected network"},
		{ErrAudio, "Error detected audio"},
		{ErrServer, "Error detected server"},
		{ErrClient, "Error detected client"},
		{ErrSpeechTimeout, "Error detected speech time out"},
		{ErrNoMatch, "Error detected no match"},
		{ErrRecognizerBusy, "Error detected recogniser busy"},
		{ErrInsufficientPermissions, "Error detected insufficient permissions"},
		{ErrorCode(42), "Error detected"},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, tc.code.Notice(), tc.code.String())
	}
}

func TestErrorCodeRetryable(t *testing.T) {
	retryable := map[ErrorCode]bool{ErrNetworkTimeout: true, ErrServer: true, ErrNoMatch: true}
	for code := ErrNetworkTimeout; code <= ErrInsufficientPermissions; code++ {
		require.Equal(t, retryable[code], code.Retryable(), code.String())
	}
}

func TestParseErrorCode(t *testing.T) {
	code, ok := ParseErrorCode("no_match")
	require.True(t, ok)
	require.Equal(t, ErrNoMatch, code)

	code, ok = ParseErrorCode(" Speech-Timeout ")
	require.True(t, ok)
	require.Equal(t, ErrSpeechTimeout, code)

	code, ok = ParseErrorCode("busy")
	require.True(t, ok)
	require.Equal(t, ErrRecognizerBusy, code)

	_, ok = ParseErrorCode("meltdown")
	require.False(t, ok)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "result", KindResult.String())
	require.Equal(t, "kind(99)", Kind(99).String())
}

func TestFakeRecordsCallsAndClosesOnDestroy(t *testing.T) {
	fake := NewFake()
	req := Request{Prompt: "speak", LanguageModel: LanguageModelFreeForm}

	require.NoError(t, fake.Start(context.Background(), req))
	require.NoError(t, fake.Stop())
	got, ok := fake.LastRequest()
	require.True(t, ok)
	require.Equal(t, req, got)
	require.Equal(t, 1, fake.Starts())
	require.Equal(t, 1, fake.Stops())

	fake.Emit(Result("hello"))
	event := <-fake.Events()
	require.Equal(t, KindResult, event.Kind)

	require.NoError(t, fake.Destroy())
	require.ErrorIs(t, fake.Start(context.Background(), req), ErrDestroyed)
	_, open := <-fake.Events()
	require.False(t, open)
	fake.Emit(Result("ignored"))
}

func TestFakeFullStreamDoesNotBlockCalls(t *testing.T) {
	fake := NewFake()
	for i := 0; i < cap(fake.events); i++ {
		fake.Emit(RmsChanged(0.1))
	}

	emitted := make(chan struct{})
	go func() {
		fake.Emit(Result("overflow"))
		close(emitted)
	}()

	calls := make(chan struct{})
	go func() {
		_ = fake.Start(context.Background(), Request{})
		_ = fake.Stop()
		close(calls)
	}()
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("start/stop blocked behind a full event stream")
	}

	require.NoError(t, fake.Destroy())
	select {
	case <-emitted:
	case <-time.After(time.Second):
		t.Fatal("emit did not return after destroy")
	}
}

func TestMockEmitsResultAfterDelay(t *testing.T) {
	mock := NewMock(20 * time.Millisecond)
	t.Cleanup(func() { _ = mock.Destroy() })

	require.NoError(t, mock.Start(context.Background(), Request{}))

	kinds := collectKinds(t, mock.Events(), KindResult)
	require.Equal(t, []Kind{KindReady, KindBeginningOfSpeech, KindEndOfSpeech, KindResult}, kinds)
}

func TestMockStopStillDeliversResult(t *testing.T) {
	mock := NewMock(time.Hour)
	t.Cleanup(func() { _ = mock.Destroy() })

	require.NoError(t, mock.Start(context.Background(), Request{}))
	require.NoError(t, mock.Stop())

	kinds := collectKinds(t, mock.Events(), KindResult)
	require.Equal(t, []Kind{KindReady, KindBeginningOfSpeech, KindResult}, kinds)
}

func TestMockBusyWhileActive(t *testing.T) {
	mock := NewMock(time.Hour)
	t.Cleanup(func() { _ = mock.Destroy() })

	require.NoError(t, mock.Start(context.Background(), Request{}))
	require.NoError(t, mock.Start(context.Background(), Request{}))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-mock.Events():
			if event.Kind == KindError {
				require.Equal(t, ErrRecognizerBusy, event.Code)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for busy error")
		}
	}
}

func TestMockDestroyRejectsStart(t *testing.T) {
	mock := NewMock(time.Hour)
	require.NoError(t, mock.Start(context.Background(), Request{}))
	require.NoError(t, mock.Destroy())
	require.NoError(t, mock.Destroy())
	require.ErrorIs(t, mock.Start(context.Background(), Request{}), ErrDestroyed)
}

func collectKinds(t *testing.T, events <-chan Event, until Kind) []Kind {
	t.Helper()
	var kinds []Kind
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-events:
			kinds = append(kinds, event.Kind)
			if event.Kind == until {
				return kinds
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s (got %v)", until, kinds)
		}
	}
}
