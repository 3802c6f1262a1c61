package advisory

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/errors"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/logger"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/condition"
)

type fakeRemote struct {
	mu          sync.Mutex
	validations []Payload
	issues      []string
	sentence    string
	err         error
}

func (f *fakeRemote) Validate(ctx context.Context, p Payload) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validations = append(f.validations, p)
	if f.err != nil {
		return nil, f.err
	}
	return f.issues, nil
}

func (f *fakeRemote) Sentence(ctx context.Context, p Payload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.sentence, nil
}

func (f *fakeRemote) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.validations)
}

type offlineFlag struct{ offline atomic.Bool }

func (o *offlineFlag) Offline() bool { return o.offline.Load() }

func rsiPayload(t *testing.T, value float64) (condition.Condition, Payload) {
	t.Helper()
	c, ok := condition.NewCondition(catalog.FallbackRSI(), "1h")
	require.True(t, ok)
	c.Comparison = condition.Literal(value)
	return c, FromCondition(c)
}

func TestPayload_KeyIdentifiesContent(t *testing.T) {
	_, a := rsiPayload(t, 30)
	_, b := rsiPayload(t, 30)
	_, c := rsiPayload(t, 31)

	assert.Equal(t, a.Key(), b.Key(), "condition ids are not part of the payload")
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Len(t, a.Key(), 64)
}

func TestPayload_RoundTrip(t *testing.T) {
	c, ok := condition.NewCondition(catalog.FallbackEMA(), "4h")
	require.True(t, ok)
	c.Subject = catalog.PriceSubject{Source: catalog.PriceHLC3}

	p := FromCondition(c)
	assert.Equal(t, catalog.PriceHLC3, p.PriceSource)
	assert.Equal(t, "ema", p.Component)
	assert.Nil(t, p.Value)

	back, err := p.Condition()
	require.NoError(t, err)
	assert.Equal(t, c.Subject, back.Subject)
	assert.Equal(t, c.Target, back.Target)
	assert.Equal(t, c.Comparison, back.Comparison)
	assert.Equal(t, c.Operator, back.Operator)

	p.Subject = &catalog.SubjectJSON{Type: "volume"}
	_, err = p.Condition()
	assert.Error(t, err)
}

type fakePoster struct {
	body interface{}
	err  error
}

func (f *fakePoster) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	if f.err != nil {
		return f.err
	}
	switch v := out.(type) {
	case *ValidateResponse:
		*v = f.body.(ValidateResponse)
	case *SentenceResponse:
		*v = f.body.(SentenceResponse)
	}
	return nil
}

func TestClient_Validate(t *testing.T) {
	_, p := rsiPayload(t, 30)

	client := NewClient(&fakePoster{body: ValidateResponse{OK: true}})
	issues, err := client.Validate(context.Background(), p)
	require.NoError(t, err)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)

	client = NewClient(&fakePoster{body: ValidateResponse{Errors: []string{"RSI period too short for 1m"}}})
	issues, err = client.Validate(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"RSI period too short for 1m"}, issues)

	client = NewClient(&fakePoster{err: stderrors.New("connection reset")})
	_, err = client.Validate(context.Background(), p)
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryAdvisory))
}

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var runs atomic.Int32
	var last atomic.Int32
	done := make(chan struct{}, 10)
	for i := 1; i <= 5; i++ {
		i := i
		d.Trigger(func() {
			runs.Add(1)
			last.Store(int32(i))
			done <- struct{}{}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced function never ran")
	}
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(5), last.Load())
}

func TestDebouncer_FlushAndStop(t *testing.T) {
	d := NewDebouncer(time.Hour)

	ran := false
	d.Trigger(func() { ran = true })
	d.Flush()
	assert.True(t, ran)

	d.Stop()
	d.Trigger(func() { t.Error("triggered after stop") })
	d.Flush()
}

func TestAdvisor_CheckMergesRemote(t *testing.T) {
	remote := &fakeRemote{issues: []string{"RSI below 30 on 1m is noisy"}, sentence: "RSI line drops under 30 on the hourly chart"}
	a := NewAdvisor(remote, nil, time.Millisecond, time.Second, logger.Nop())
	defer a.Close()

	c, p := rsiPayload(t, 30)
	result := a.Check(context.Background(), p)
	require.NoError(t, result.Err)
	assert.Equal(t, p.Key(), result.Key)

	review := ReviewCondition(c, &result)
	assert.True(t, review.Remote)
	assert.Equal(t, "RSI line drops under 30 on the hourly chart", review.Sentence)
	assert.Empty(t, review.Report.Local)
	assert.Equal(t, []string{"RSI below 30 on 1m is noisy"}, review.Report.Issues)
	assert.True(t, review.Report.Savable())
}

func TestAdvisor_RemoteFailureFallsBackToLocal(t *testing.T) {
	remote := &fakeRemote{err: errors.NewAdvisoryError("test", "validate", stderrors.New("timeout"))}
	a := NewAdvisor(remote, nil, time.Millisecond, time.Second, logger.Nop())
	defer a.Close()

	c, p := rsiPayload(t, 150)
	result := a.Check(context.Background(), p)
	assert.Error(t, result.Err)
	assert.Nil(t, result.Issues)

	review := ReviewCondition(c, &result)
	assert.False(t, review.Remote)
	assert.Equal(t, condition.Describe(c), review.Sentence)
	assert.Equal(t, []string{"value 150 is above the maximum of 100"}, review.Report.Issues)
	assert.False(t, review.Report.Savable())
}

func TestAdvisor_SkippedWhileOffline(t *testing.T) {
	remote := &fakeRemote{sentence: "never"}
	status := &offlineFlag{}
	status.offline.Store(true)
	a := NewAdvisor(remote, status, time.Millisecond, time.Second, logger.Nop())

	c, p := rsiPayload(t, 30)
	result := a.Check(context.Background(), p)
	assert.Nil(t, result.Issues)
	assert.Empty(t, result.Sentence)

	a.Submit(p)
	a.Close()
	assert.Equal(t, 0, remote.calls())

	_, open := <-a.Results()
	assert.False(t, open)

	review := ReviewCondition(c, nil)
	assert.Equal(t, "RSI LINE is below 30 on the 1h chart", review.Sentence)
}

func TestAdvisor_SubmitDeliversLatestOnly(t *testing.T) {
	remote := &fakeRemote{issues: []string{}, sentence: "ok"}
	a := NewAdvisor(remote, nil, 30*time.Millisecond, time.Second, logger.Nop())
	defer a.Close()

	var latest Payload
	for _, v := range []float64{20, 25, 30} {
		_, latest = rsiPayload(t, v)
		a.Submit(latest)
	}

	select {
	case result := <-a.Results():
		assert.True(t, a.Accept(result, latest))
	case <-time.After(2 * time.Second):
		t.Fatal("no advisory result delivered")
	}
	assert.Equal(t, 1, remote.calls())
}

func TestAdvisor_AcceptDropsStaleResults(t *testing.T) {
	a := NewAdvisor(&fakeRemote{}, nil, time.Millisecond, time.Second, logger.Nop())
	defer a.Close()

	_, old := rsiPayload(t, 25)
	_, current := rsiPayload(t, 35)

	assert.False(t, a.Accept(Result{Key: old.Key(), Issues: []string{"stale"}}, current))
	assert.True(t, a.Accept(Result{Key: current.Key()}, current))
}

func TestAdvisor_CloseWhileSubmissionsFire(t *testing.T) {
	remote := &fakeRemote{issues: []string{}, sentence: "ok"}
	_, p := rsiPayload(t, 30)

	for i := 0; i < 500; i++ {
		a := NewAdvisor(remote, nil, time.Microsecond, time.Second, logger.Nop())
		a.Submit(p)
		if i%2 == 0 {
			time.Sleep(time.Microsecond)
		}
		a.Close()

		for range a.Results() {
		}
	}

	a := NewAdvisor(remote, nil, time.Hour, time.Second, logger.Nop())
	a.Submit(p)
	a.Close()
	a.Flush()
	_, open := <-a.Results()
	assert.False(t, open)
}
