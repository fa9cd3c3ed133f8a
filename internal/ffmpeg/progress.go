package ffmpeg

import (
	"strconv"
	"strings"
	"time"
)

// Progress is one decoded progress block from ffmpeg's -progress output.
type Progress struct {
	Frame      int64         `json:"frame"`
	FPS        float64       `json:"fps"`
	Bitrate    string        `json:"bitrate"`
	TotalSize  int64         `json:"total_size"`
	OutTime    time.Duration `json:"out_time"`
	Speed      float64       `json:"speed"`
	DupFrames  int64         `json:"dup_frames"`
	DropFrames int64         `json:"drop_frames"`

	// Finished is true for the terminal block (progress=end).
	Finished bool `json:"finished"`

	// Stats is the latest resource usage sample when a monitor is attached.
	Stats *ProcessStats `json:"stats,omitempty"`
}

// ProgressFunc receives progress updates while the process runs.
type ProgressFunc func(Progress)

// progressParser accumulates -progress key=value lines. ffmpeg writes one
// block of lines per update terminated by a "progress=" line.
type progressParser struct {
	current Progress
}

func newProgressParser() *progressParser {
	return &progressParser{}
}

// Line consumes one line. It returns the completed block and true when the
// line terminates a block.
func (p *progressParser) Line(line string) (Progress, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Progress{}, false
	}
	value = strings.TrimSpace(value)

	switch key {
	case "frame":
		p.current.Frame, _ = strconv.ParseInt(value, 10, 64)
	case "fps":
		p.current.FPS, _ = strconv.ParseFloat(value, 64)
	case "bitrate":
		if value != "N/A" {
			p.current.Bitrate = value
		}
	case "total_size":
		p.current.TotalSize, _ = strconv.ParseInt(value, 10, 64)
	case "out_time_us":
		if us, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.current.OutTime = time.Duration(us) * time.Microsecond
		}
	case "out_time":
		// Fallback for builds without out_time_us: HH:MM:SS.micros
		if d, ok := parseClockTime(value); ok && p.current.OutTime == 0 {
			p.current.OutTime = d
		}
	case "speed":
		p.current.Speed, _ = strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
	case "dup_frames":
		p.current.DupFrames, _ = strconv.ParseInt(value, 10, 64)
	case "drop_frames":
		p.current.DropFrames, _ = strconv.ParseInt(value, 10, 64)
	case "progress":
		block := p.current
		block.Finished = value == "end"
		p.current = Progress{}
		return block, true
	}

	return Progress{}, false
}

// parseClockTime parses an ffmpeg clock string like "00:01:23.456000".
func parseClockTime(s string) (time.Duration, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}

	hours, err1 := strconv.Atoi(parts[0])
	mins, err2 := strconv.Atoi(parts[1])
	secs, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(mins)*time.Minute +
		time.Duration(secs*float64(time.Second)), true
}
