package extractors

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
)

// KkdaiSource reads video metadata and caption tracks with kkdai/youtube.
type KkdaiSource struct {
	client     *youtube.Client
	httpClient *http.Client
}

var _ VideoSource = (*KkdaiSource)(nil)

func NewKkdaiSource() *KkdaiSource {
	hc := &http.Client{Timeout: 30 * time.Second}
	return &KkdaiSource{
		client:     &youtube.Client{HTTPClient: hc},
		httpClient: hc,
	}
}

func (s *KkdaiSource) Lookup(ctx context.Context, videoID string) (VideoInfo, []CaptionTrack, error) {
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return VideoInfo{}, nil, fmt.Errorf("youtube lookup: %w", err)
	}

	info := VideoInfo{
		Title:       video.Title,
		Author:      video.Author,
		Description: video.Description,
		Duration:    video.Duration,
	}
	tracks := make([]CaptionTrack, 0, len(video.CaptionTracks))
	for _, t := range video.CaptionTracks {
		tracks = append(tracks, CaptionTrack{
			LanguageCode: t.LanguageCode,
			Generated:    t.Kind == "asr",
			URL:          t.BaseURL,
		})
	}
	return info, tracks, nil
}

func (s *KkdaiSource) FetchTranscript(ctx context.Context, track CaptionTrack) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch captions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch captions: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", fmt.Errorf("read captions: %w", err)
	}
	return parseTimedText(body)
}

type timedText struct {
	Texts []string `xml:"text"`
	// srv3 format
	Body struct {
		Paragraphs []struct {
			Text     string   `xml:",chardata"`
			Segments []string `xml:"s"`
		} `xml:"p"`
	} `xml:"body"`
}

// parseTimedText joins the cues of a YouTube timedtext document with spaces.
func parseTimedText(data []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", fmt.Errorf("decode captions: %w", err)
	}
	cues := tt.Texts
	if len(cues) == 0 {
		for _, p := range tt.Body.Paragraphs {
			cues = append(cues, p.Text+strings.Join(p.Segments, ""))
		}
	}

	parts := make([]string, 0, len(cues))
	for _, c := range cues {
		c = strings.Join(strings.Fields(html.UnescapeString(c)), " ")
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " "), nil
}
