package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/smazurov/camnode/internal/logging"
	"github.com/spf13/cobra"
)

// frameCapturedMsg is the message the frame logger writes for every accepted frame.
const frameCapturedMsg = "Frame captured"

// TimingReport summarises frame periods found in a session log.
type TimingReport struct {
	Frames     int
	MeanPeriod time.Duration
	StdPeriod  time.Duration
	MeanFPS    float64
}

// AnalyzeTiming reads a session log and measures the spacing of
// "Frame captured" lines. Lines that do not parse are skipped.
func AnalyzeTiming(r io.Reader) (TimingReport, error) {
	var stamps []time.Time
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ts, ok := captureTime(scanner.Text())
		if ok {
			stamps = append(stamps, ts)
		}
	}
	if err := scanner.Err(); err != nil {
		return TimingReport{}, fmt.Errorf("read log: %w", err)
	}
	if len(stamps) < 2 {
		return TimingReport{}, fmt.Errorf("need at least two %q lines, found %d", frameCapturedMsg, len(stamps))
	}

	periods := make([]float64, 0, len(stamps)-1)
	var sum float64
	for i := 1; i < len(stamps); i++ {
		p := stamps[i].Sub(stamps[i-1]).Seconds()
		periods = append(periods, p)
		sum += p
	}
	mean := sum / float64(len(periods))

	var sq float64
	for _, p := range periods {
		sq += (p - mean) * (p - mean)
	}
	std := math.Sqrt(sq / float64(len(periods)))

	if mean <= 0 {
		return TimingReport{}, errors.New("frames share a single timestamp")
	}

	return TimingReport{
		Frames:     len(stamps),
		MeanPeriod: time.Duration(mean * float64(time.Second)),
		StdPeriod:  time.Duration(std * float64(time.Second)),
		MeanFPS:    1 / mean,
	}, nil
}

// captureTime extracts the timestamp of a "[ts - LEVEL] Frame captured ..." line.
func captureTime(line string) (time.Time, bool) {
	if !strings.HasPrefix(line, "[") {
		return time.Time{}, false
	}
	header, msg, ok := strings.Cut(line[1:], "] ")
	if !ok || !strings.HasPrefix(msg, frameCapturedMsg) {
		return time.Time{}, false
	}
	stamp, _, ok := strings.Cut(header, " - ")
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(logging.FileTimeLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// CreateTimingCmd creates the timing command.
func CreateTimingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timing [log-file]",
		Short: "Report frame timing from a session log",
		Long: `Reads a camnode_log.txt written with --timing and reports the mean and standard deviation ` +
			`of the frame period and the mean frame rate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			report, err := AnalyzeTiming(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "frames:          %d\n", report.Frames)
			fmt.Fprintf(out, "mean period:     %.3f ms\n", float64(report.MeanPeriod)/float64(time.Millisecond))
			fmt.Fprintf(out, "std period:      %.3f ms\n", float64(report.StdPeriod)/float64(time.Millisecond))
			fmt.Fprintf(out, "mean frame rate: %.2f fps\n", report.MeanFPS)
			return nil
		},
	}
	cmd.SilenceUsage = true

	return cmd
}
