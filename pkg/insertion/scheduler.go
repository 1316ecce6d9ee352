package insertion

import "time"

// Scheduler runs deferred work on the goroutine that owns the document.
type Scheduler interface {
	// AfterFunc arranges for fn to run after d. The returned stop function
	// prevents fn from running if it has not been started yet.
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// TimerScheduler fires timers and hands their callbacks to post, which must
// run them on the document's goroutine.
type TimerScheduler struct {
	post func(func())
}

// NewTimerScheduler creates a scheduler that delivers callbacks through post.
// A nil post runs callbacks on the timer goroutine.
func NewTimerScheduler(post func(func())) *TimerScheduler {
	return &TimerScheduler{post: post}
}

func (s *TimerScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, func() {
		if s.post == nil {
			fn()
			return
		}
		s.post(fn)
	})
	return t.Stop
}
