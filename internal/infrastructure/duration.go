package infrastructure

import (
	"bytes"
	"errors"
	"io"
	"math"
	"time"

	"github.com/tcolgate/mp3"
)

// bytesPerMinuteEstimate approximates a 128 kb/s stream: about 1 MiB per minute
const bytesPerMinuteEstimate = 1024 * 1024

// EstimateDuration returns the track length in whole seconds.
// MP3 data is measured by walking its frame headers; other formats, or MP3
// data without decodable frames, fall back to a file size estimate.
func EstimateDuration(extension string, data []byte) *int {
	if len(data) == 0 {
		return nil
	}

	if extension == ".mp3" {
		if d, ok := mp3Duration(data); ok {
			seconds := int(math.Round(d.Seconds()))
			return &seconds
		}
	}

	seconds := int(math.Round(float64(len(data)) / bytesPerMinuteEstimate * 60))
	return &seconds
}

func mp3Duration(data []byte) (time.Duration, bool) {
	var (
		decoder = mp3.NewDecoder(bytes.NewReader(data))
		frame   mp3.Frame
		skipped int
		total   time.Duration
		frames  int
	)
	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return 0, false
		}
		total += frame.Duration()
		frames++
	}
	return total, frames > 0
}
