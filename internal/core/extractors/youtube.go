package extractors

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/markdave123-py/Mosaic/internal/logger"
	"github.com/markdave123-py/Mosaic/internal/models"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([^&]+)`),
	regexp.MustCompile(`youtu\.be/([^?]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^?]+)`),
}

// ExtractVideoID returns the video ID of a watch, short or embed URL, or "".
func ExtractVideoID(url string) string {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// VideoInfo is the best-effort metadata of a remote video.
type VideoInfo struct {
	Title       string
	Author      string
	Description string
	Duration    time.Duration
}

// CaptionTrack is one published transcript of a video.
type CaptionTrack struct {
	LanguageCode string
	Generated    bool
	URL          string
}

// VideoSource looks up remote video metadata and transcripts.
type VideoSource interface {
	Lookup(ctx context.Context, videoID string) (VideoInfo, []CaptionTrack, error)
	FetchTranscript(ctx context.Context, track CaptionTrack) (string, error)
}

// YouTubeExtractor turns a video URL into exactly one record.
type YouTubeExtractor struct {
	source   VideoSource
	language string
}

func NewYouTubeExtractor(source VideoSource, language string) *YouTubeExtractor {
	if language == "" {
		language = "en"
	}
	return &YouTubeExtractor{source: source, language: language}
}

func (y *YouTubeExtractor) Extract(ctx context.Context, url string) ([]models.Record, error) {
	id := ExtractVideoID(url)
	if id == "" {
		return []models.Record{models.NewRecord("Invalid YouTube URL provided.", map[string]any{
			models.MetaFileName: url,
			models.MetaFileType: models.FileTypeYouTube,
			models.MetaSource:   "youtube",
			models.MetaURL:      url,
			models.MetaError:    "Invalid URL",
		})}, nil
	}

	info := VideoInfo{Title: "Unknown", Author: "Unknown"}
	found, tracks, err := y.source.Lookup(ctx, id)
	if err != nil {
		logger.Warn("youtube metadata lookup failed", "video_id", id, "error", err)
	} else {
		if found.Title != "" {
			info.Title = found.Title
		}
		if found.Author != "" {
			info.Author = found.Author
		}
		info.Description = found.Description
		info.Duration = found.Duration
	}

	transcript := y.transcript(ctx, id, tracks)

	var b strings.Builder
	fmt.Fprintf(&b, "Video Title: %s\nAuthor: %s\nDescription: %s\n", info.Title, info.Author, info.Description)
	if transcript == "" {
		b.WriteString("\n[Note: Transcript not available for this video]")
	} else {
		fmt.Fprintf(&b, "\nTranscript:\n%s", transcript)
	}

	return []models.Record{models.NewRecord(b.String(), map[string]any{
		models.MetaFileName:      "YouTube: " + id,
		models.MetaFileType:      models.FileTypeYouTube,
		models.MetaSource:        url,
		models.MetaURL:           url,
		models.MetaVideoID:       id,
		models.MetaTitle:         info.Title,
		models.MetaAuthor:        info.Author,
		models.MetaDuration:      int(info.Duration.Seconds()),
		models.MetaHasTranscript: transcript != "",
	})}, nil
}

// transcript prefers a manual track in the requested language, then an
// auto-generated one. Any failure yields "".
func (y *YouTubeExtractor) transcript(ctx context.Context, id string, tracks []CaptionTrack) string {
	for _, generated := range []bool{false, true} {
		for _, t := range tracks {
			if t.Generated != generated || !matchesLanguage(t.LanguageCode, y.language) {
				continue
			}
			text, err := y.source.FetchTranscript(ctx, t)
			if err != nil {
				logger.Warn("youtube transcript fetch failed", "video_id", id, "language", t.LanguageCode, "error", err)
				continue
			}
			if text = strings.TrimSpace(text); text != "" {
				return text
			}
		}
	}
	return ""
}

func matchesLanguage(code, want string) bool {
	code, want = strings.ToLower(code), strings.ToLower(want)
	return code == want || strings.HasPrefix(code, want+"-")
}
