package monitor

import (
	"errors"
	"time"

	"github.com/calvinmclean/smartaqua"
)

// Sink receives parsed diagnostic lines
type Sink interface {
	Report(now time.Time, r smartaqua.Report) error
	Feed(now time.Time, source smartaqua.FeedSource) error
	Fault(now time.Time, sensor, msg string) error
}

type noopSink struct{}

var _ Sink = noopSink{}

// Report implements Sink.
func (noopSink) Report(time.Time, smartaqua.Report) error {
	return nil
}

// Feed implements Sink.
func (noopSink) Feed(time.Time, smartaqua.FeedSource) error {
	return nil
}

// Fault implements Sink.
func (noopSink) Fault(time.Time, string, string) error {
	return nil
}

// multiSink sends to every Sink and joins their errors
type multiSink []Sink

var _ Sink = multiSink{}

func (m multiSink) Report(now time.Time, r smartaqua.Report) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Report(now, r))
	}
	return errors.Join(errs...)
}

func (m multiSink) Feed(now time.Time, source smartaqua.FeedSource) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Feed(now, source))
	}
	return errors.Join(errs...)
}

func (m multiSink) Fault(now time.Time, sensor, msg string) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Fault(now, sensor, msg))
	}
	return errors.Join(errs...)
}
