package wpsec

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/andyle182810/wpsec/apierror"
	"github.com/andyle182810/wpsec/httpclient"
)

const (
	pingMarker         = "Ping Pong"
	histogramMaxMicros = int64(10 * time.Minute / time.Microsecond)
	histogramSigFigs   = 3
)

// Ping checks the unauthenticated health endpoint. Failures are reported in
// the result rather than returned.
func (s *Service) Ping(ctx context.Context) PingResult {
	started := time.Now()

	result, err := s.client.Execute(ctx, http.MethodGet, s.path("ping"), nil,
		httpclient.WithoutAuth(), httpclient.WithRawResponse())

	elapsed := time.Since(started)

	if err != nil {
		return PingResult{Status: PingError, ResponseTime: elapsed, Slow: false, Err: err}
	}

	if !bytes.Contains(result.Body, []byte(pingMarker)) {
		return PingResult{Status: PingDown, ResponseTime: elapsed, Slow: false, Err: nil}
	}

	return PingResult{Status: PingUp, ResponseTime: elapsed, Slow: elapsed > s.slowThreshold, Err: nil}
}

// PingN pings count times, waiting interval between pings. It stops early
// only when ctx is done.
func (s *Service) PingN(ctx context.Context, count int, interval time.Duration) ([]PingResult, error) {
	count = max(count, 1)
	results := make([]PingResult, 0, count)

	for i := range count {
		if i > 0 && interval > 0 {
			timer := time.NewTimer(interval)

			select {
			case <-ctx.Done():
				timer.Stop()

				return results, apierror.Wrap(apierror.KindCanceled, ctx.Err(), "")
			case <-timer.C:
			}
		}

		result := s.Ping(ctx)
		results = append(results, result)

		if apierror.KindOf(result.Err) == apierror.KindCanceled {
			return results, result.Err
		}
	}

	return results, nil
}

type LatencySummary struct {
	Count int
	Up    int
	Min   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Loss is the fraction of pings that did not come back up.
func (l LatencySummary) Loss() float64 {
	if l.Count == 0 {
		return 0
	}

	return float64(l.Count-l.Up) / float64(l.Count)
}

// Summarize builds latency percentiles over the successful pings.
func Summarize(results []PingResult) LatencySummary {
	hist := hdrhistogram.New(1, histogramMaxMicros, histogramSigFigs)
	summary := LatencySummary{Count: len(results), Up: 0, Min: 0, Mean: 0, P50: 0, P90: 0, P99: 0, Max: 0}

	for _, result := range results {
		if !result.Up() {
			continue
		}

		summary.Up++

		value := min(max(result.ResponseTime.Microseconds(), 1), histogramMaxMicros)
		_ = hist.RecordValue(value)
	}

	if summary.Up == 0 {
		return summary
	}

	summary.Min = micros(hist.Min())
	summary.Max = micros(hist.Max())
	summary.Mean = time.Duration(hist.Mean() * float64(time.Microsecond))
	summary.P50 = micros(hist.ValueAtQuantile(50)) //nolint:mnd
	summary.P90 = micros(hist.ValueAtQuantile(90)) //nolint:mnd
	summary.P99 = micros(hist.ValueAtQuantile(99)) //nolint:mnd

	return summary
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
