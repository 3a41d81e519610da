package collector

import (
	"context"
	"encoding/xml"
	"net/http"
	"sort"
	"time"

	"github.com/pkg/errors"

	"CryptoSentinel/internal/model"
)

// atomFeed is the subset of the YouTube channel Atom feed we read.
type atomFeed struct {
	Author struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Entries []struct {
		Title     string `xml:"title"`
		Published string `xml:"published"`
		Link      struct {
			Href string `xml:"href,attr"`
		} `xml:"link"`
	} `xml:"entry"`
}

// FetchChannelVideos returns the channel's latest uploads, newest first,
// capped at the configured maximum.
func (f *HTTPFetcher) FetchChannelVideos(ctx context.Context, channelID string) ([]model.Video, error) {
	resp, err := f.youtube.R().
		SetContext(ctx).
		SetQueryParam("channel_id", channelID).
		Get("/feeds/videos.xml")
	if err != nil {
		return nil, errors.Wrapf(err, "youtube feed %s", channelID)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Errorf("youtube feed %s: status %d", channelID, resp.StatusCode())
	}

	var feed atomFeed
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, errors.Wrapf(err, "youtube feed decode %s", channelID)
	}

	videos := make([]model.Video, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		published, err := time.Parse(time.RFC3339, e.Published)
		if err != nil {
			continue
		}
		videos = append(videos, model.Video{
			Channel:   feed.Author.Name,
			Title:     e.Title,
			Link:      e.Link.Href,
			Published: published.UTC(),
		})
	}
	sort.SliceStable(videos, func(i, j int) bool { return videos[i].Published.After(videos[j].Published) })
	if f.maxVideos > 0 && len(videos) > f.maxVideos {
		videos = videos[:f.maxVideos]
	}
	return videos, nil
}
