package extractors

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// MediaInfo is what the video extractor needs to know about a container.
type MediaInfo struct {
	DurationSeconds float64
	FPS             float64
}

// MediaTool transcodes and probes audio/video files.
type MediaTool interface {
	// ToWAV writes the first audio stream of src to dst as 16 kHz mono PCM WAV.
	ToWAV(ctx context.Context, src, dst string) error
	Probe(ctx context.Context, path string) (MediaInfo, error)
}

// FFmpeg shells out to the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
}

var _ MediaTool = (*FFmpeg)(nil)

func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath, Timeout: 10 * time.Minute}
}

func (f *FFmpeg) ToWAV(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.FFmpegPath,
		"-y", "-loglevel", "error",
		"-i", src,
		"-vn", "-ac", "1", "-ar", "16000", "-f", "wav",
		dst,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (f *FFmpeg) Probe(ctx context.Context, path string) (MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.FFprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return MediaInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(out)
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

func parseProbe(data []byte) (MediaInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(data, &p); err != nil {
		return MediaInfo{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	var info MediaInfo
	info.DurationSeconds, _ = strconv.ParseFloat(p.Format.Duration, 64)
	for _, s := range p.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.FPS = parseRate(s.AvgFrameRate)
		if info.FPS == 0 {
			info.FPS = parseRate(s.RFrameRate)
		}
		if info.DurationSeconds == 0 {
			info.DurationSeconds, _ = strconv.ParseFloat(s.Duration, 64)
		}
		break
	}
	return info, nil
}

// parseRate turns "30000/1001" or "25" into frames per second.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// wavDuration reads the duration from a WAV header.
func wavDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	dur, err := d.Duration()
	if err != nil {
		return 0, fmt.Errorf("wav duration: %w", err)
	}
	return dur.Seconds(), nil
}

// tempWAV reserves a temp file path; callers remove it.
func tempWAV() (string, error) {
	f, err := os.CreateTemp("", "mosaic-*.wav")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
