package advisory

import (
	"context"
	"sync"
	"time"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/logger"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/monitoring"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/condition"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/validation"
)

const resultBuffer = 16

// Result is the outcome of the remote checks for one payload. Issues is nil
// when the validation call failed; Sentence is empty when the sentence call
// failed.
type Result struct {
	Key      string
	Issues   []string
	Sentence string
	Err      error
}

// StatusSource reports whether the catalog service is considered offline
type StatusSource interface {
	Offline() bool
}

// Advisor debounces edits and runs the remote checks in the background
type Advisor struct {
	remote    Remote
	status    StatusSource
	debouncer *Debouncer
	timeout   time.Duration
	logger    *logger.Logger

	results chan Result
	wg      sync.WaitGroup

	// mu orders wg.Add in fired submissions against Close
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewAdvisor creates an advisor. status may be nil, in which case the remote
// checks are always attempted.
func NewAdvisor(remote Remote, status StatusSource, debounce, timeout time.Duration, log *logger.Logger) *Advisor {
	if log == nil {
		log = logger.Nop()
	}
	return &Advisor{
		remote:    remote,
		status:    status,
		debouncer: NewDebouncer(debounce),
		timeout:   timeout,
		logger:    log,
		results:   make(chan Result, resultBuffer),
	}
}

// Results delivers the outcome of every debounced submission
func (a *Advisor) Results() <-chan Result {
	return a.results
}

// Submit schedules the remote checks for p. Rapid submissions collapse into
// the last one. Nothing is sent while the catalog is offline.
func (a *Advisor) Submit(p Payload) {
	if a.offline() {
		monitoring.RecordAdvisory("submit", "skipped")
		return
	}
	a.debouncer.Trigger(func() {
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			return
		}
		a.wg.Add(1)
		a.mu.Unlock()

		go func() {
			defer a.wg.Done()
			result := a.Check(context.Background(), p)
			select {
			case a.results <- result:
			default:
				a.logger.Warnf("advisory result for %s dropped, consumer is behind", shortKey(result.Key))
			}
		}()
	})
}

// Check runs both remote calls for p right away. Failures are logged and
// left out of the result; they are never returned as errors.
func (a *Advisor) Check(ctx context.Context, p Payload) Result {
	result := Result{Key: p.Key()}
	if a.offline() {
		monitoring.RecordAdvisory("check", "skipped")
		return result
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	issues, err := a.remote.Validate(ctx, p)
	if err != nil {
		a.logger.LogWarning("remote validation failed", err)
		monitoring.RecordAdvisory("validate", "error")
		result.Err = err
	} else {
		monitoring.RecordAdvisory("validate", "ok")
		result.Issues = issues
	}

	sentence, err := a.remote.Sentence(ctx, p)
	if err != nil {
		a.logger.LogWarning("remote sentence failed", err)
		monitoring.RecordAdvisory("sentence", "error")
		if result.Err == nil {
			result.Err = err
		}
	} else {
		monitoring.RecordAdvisory("sentence", "ok")
		result.Sentence = sentence
	}

	return result
}

// Accept reports whether r belongs to the payload currently being edited
func (a *Advisor) Accept(r Result, current Payload) bool {
	if r.Key == current.Key() {
		return true
	}
	monitoring.RecordAdvisory("result", "stale")
	a.logger.Debugf("dropping stale advisory result %s", shortKey(r.Key))
	return false
}

// Flush sends any debounced submission immediately
func (a *Advisor) Flush() {
	a.debouncer.Flush()
}

// Close stops pending submissions, waits for in-flight checks and closes
// the results channel.
func (a *Advisor) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()

		a.debouncer.Stop()
		a.wg.Wait()
		close(a.results)
	})
}

func (a *Advisor) offline() bool {
	return a.status != nil && a.status.Offline()
}

// Review is what the wizard shows for one condition
type Review struct {
	Report   validation.Report
	Sentence string
	Remote   bool
}

// ReviewCondition merges local validation with an accepted remote result.
// With no result (offline, failed or stale) the local template provides
// the sentence.
func ReviewCondition(c condition.Condition, r *Result) Review {
	local := validation.ValidateCondition(c)

	var remote []string
	sentence := ""
	if r != nil {
		remote = r.Issues
		sentence = r.Sentence
	}

	review := Review{
		Report:   validation.Merge(local, remote),
		Sentence: sentence,
		Remote:   sentence != "",
	}
	if review.Sentence == "" {
		review.Sentence = condition.Describe(c)
	}
	return review
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
