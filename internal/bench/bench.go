// Package bench measures synthesis latency against a running server.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/go-wyoming-silero/internal/audio"
	"github.com/example/go-wyoming-silero/internal/wyoming"
)

// Run holds the timing and audio metadata for a single synthesis request.
type Run struct {
	Index int
	Cold  bool // true for the first run
	// FirstAudio is the time from sending synthesize to the first
	// non-empty audio-chunk. Zero when no audio arrived.
	FirstAudio time.Duration
	Total      time.Duration
	Audio      time.Duration
	RTF        float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// Report aggregates a benchmark.
type Report struct {
	Runs       []Run
	Total      Stats
	FirstAudio Stats
	MeanRTF    float64
}

// ComputeStats calculates min, max and mean over a slice of durations.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		mn = min(mn, d)
		mx = max(mx, d)
		sum += d
	}
	return Stats{Min: mn, Max: mx, Mean: sum / time.Duration(len(durations))}
}

// Summarize computes the aggregate statistics of runs.
func Summarize(runs []Run) Report {
	rep := Report{Runs: runs}
	if len(runs) == 0 {
		return rep
	}
	totals := make([]time.Duration, len(runs))
	firsts := make([]time.Duration, len(runs))
	var rtf float64
	for i, r := range runs {
		totals[i] = r.Total
		firsts[i] = r.FirstAudio
		rtf += r.RTF
	}
	rep.Total = ComputeStats(totals)
	rep.FirstAudio = ComputeStats(firsts)
	rep.MeanRTF = rtf / float64(len(runs))
	return rep
}

// CalcRTF returns synthesis_duration / audio_duration, or 0 without audio.
func CalcRTF(synthDur, audioDur time.Duration) float64 {
	if audioDur <= 0 {
		return 0
	}
	return float64(synthDur) / float64(audioDur)
}

// PCMDuration returns the playback length of n bytes of mono 16-bit PCM.
func PCMDuration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	samples := int64(n / audio.Width)
	return time.Duration(samples * int64(time.Second) / int64(rate))
}

// CheckRTFThreshold returns an error if meanRTF > threshold.
// A threshold of 0 disables the gate.
func CheckRTFThreshold(meanRTF, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if meanRTF > threshold {
		return fmt.Errorf("mean RTF %.3f exceeds threshold %.3f", meanRTF, threshold)
	}
	return nil
}

// Recorder observes one audio stream. Start and Chunk match the callbacks of
// a Wyoming synthesis client.
type Recorder struct {
	sent  time.Time
	first time.Duration
	rate  int
	bytes int
	now   func() time.Time
}

func (r *Recorder) Start(format wyoming.AudioFormat) error {
	r.rate = format.Rate
	return nil
}

func (r *Recorder) Chunk(pcm []byte) error {
	if r.bytes == 0 && len(pcm) > 0 {
		r.first = r.now().Sub(r.sent)
	}
	r.bytes += len(pcm)
	return nil
}

// Request performs one synthesis round trip, streaming audio into rec.
type Request func(ctx context.Context, rec *Recorder) error

// Measure issues runs sequential requests and times each one.
func Measure(ctx context.Context, runs int, req Request) ([]Run, error) {
	return measure(ctx, runs, req, time.Now)
}

func measure(ctx context.Context, runs int, req Request, now func() time.Time) ([]Run, error) {
	if runs < 1 {
		return nil, fmt.Errorf("runs must be at least 1")
	}
	results := make([]Run, 0, runs)
	for i := range runs {
		rec := &Recorder{sent: now(), now: now}
		if err := req(ctx, rec); err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		total := now().Sub(rec.sent)
		audioDur := PCMDuration(rec.bytes, rec.rate)
		results = append(results, Run{
			Index:      i,
			Cold:       i == 0,
			FirstAudio: rec.first,
			Total:      total,
			Audio:      audioDur,
			RTF:        CalcRTF(total, audioDur),
		})
	}
	return results, nil
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// FormatTable writes a human-readable ASCII table of rep to w.
func FormatTable(rep Report, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %10s  %12s  %8s\n", "Run", "Cold", "First(ms)", "Total(ms)", "Audio(ms)", "RTF")
	fmt.Fprintln(sb, strings.Repeat("-", 60))

	for _, r := range rep.Runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %10.1f  %12.1f  %8.3f\n",
			r.Index+1, cold, ms(r.FirstAudio), ms(r.Total), ms(r.Audio), r.RTF)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 60))
	fmt.Fprintf(sb, "%-12s  %10.1f  %10.1f\n", "min", ms(rep.FirstAudio.Min), ms(rep.Total.Min))
	fmt.Fprintf(sb, "%-12s  %10.1f  %10.1f  %12s  %8.3f\n", "mean", ms(rep.FirstAudio.Mean), ms(rep.Total.Mean), "", rep.MeanRTF)
	fmt.Fprintf(sb, "%-12s  %10.1f  %10.1f\n", "max", ms(rep.FirstAudio.Max), ms(rep.Total.Max))

	fmt.Fprint(w, sb.String())
}

type jsonReport struct {
	Runs       []jsonRun `json:"runs"`
	Total      jsonStats `json:"total"`
	FirstAudio jsonStats `json:"first_audio"`
	MeanRTF    float64   `json:"mean_rtf"`
}

type jsonRun struct {
	Index        int     `json:"index"`
	Cold         bool    `json:"cold"`
	FirstAudioMS float64 `json:"first_audio_ms"`
	TotalMS      float64 `json:"total_ms"`
	AudioMS      float64 `json:"audio_ms"`
	RTF          float64 `json:"rtf"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

func toJSONStats(s Stats) jsonStats {
	return jsonStats{MinMS: ms(s.Min), MeanMS: ms(s.Mean), MaxMS: ms(s.Max)}
}

// FormatJSON writes a JSON report of rep to w.
func FormatJSON(rep Report, w io.Writer) error {
	jr := jsonReport{
		Runs:       make([]jsonRun, len(rep.Runs)),
		Total:      toJSONStats(rep.Total),
		FirstAudio: toJSONStats(rep.FirstAudio),
		MeanRTF:    rep.MeanRTF,
	}
	for i, r := range rep.Runs {
		jr.Runs[i] = jsonRun{
			Index:        r.Index,
			Cold:         r.Cold,
			FirstAudioMS: ms(r.FirstAudio),
			TotalMS:      ms(r.Total),
			AudioMS:      ms(r.Audio),
			RTF:          r.RTF,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}
