package nfo

import (
	"encoding/xml"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xtreamsync/xtreamsync/internal/models"
)

const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"

const trailerURL = "plugin://plugin.video.youtube/?action=play_video&videoid="

var genreSeparators = regexp.MustCompile(`[,/]`)

// Metadata is what is known about a movie or a show, already flattened
// from the provider's responses.
type Metadata struct {
	Name         string
	OriginalName string
	TMDBID       string
	IMDBID       string
	Plot         string
	Year         string // a year or a full release date
	Rating       string
	Rating5Based string
	Genre        string
	Director     string
	Cast         string
	Duration     string // "HH:MM[:SS]" or minutes
	Trailer      string // YouTube video id
	Cover        string
	Fanart       string
	MPAA         string
}

// VideoStream and AudioStream feed the episode <streamdetails> block.
type VideoStream struct {
	Codec  string
	Width  int64
	Height int64
	Aspect string
}

type AudioStream struct {
	Codec      string
	Channels   int64
	SampleRate string
	Layout     string
	Language   string
}

// EpisodeMetadata describes one episode file.
type EpisodeMetadata struct {
	Title        string
	DurationSecs int64
	Duration     string
	Bitrate      int64
	Video        VideoStream
	Audio        AudioStream
}

type uniqueID struct {
	Type    string `xml:"type,attr"`
	Default string `xml:"default,attr,omitempty"`
	Value   string `xml:",chardata"`
}

type actor struct {
	Name string `xml:"name"`
}

type fanart struct {
	Thumb string `xml:"thumb"`
}

type movieDoc struct {
	XMLName    xml.Name   `xml:"movie"`
	Title      string     `xml:"title"`
	Plot       string     `xml:"plot,omitempty"`
	Outline    string     `xml:"outline,omitempty"`
	UserRating *int       `xml:"userrating,omitempty"`
	MPAA       string     `xml:"mpaa,omitempty"`
	UniqueIDs  []uniqueID `xml:"uniqueid"`
	Year       string     `xml:"year,omitempty"`
	Genres     []string   `xml:"genre"`
	Director   string     `xml:"director,omitempty"`
	Actors     []actor    `xml:"actor"`
	Runtime    *int       `xml:"runtime,omitempty"`
	Trailer    string     `xml:"trailer,omitempty"`
	Thumb      string     `xml:"thumb,omitempty"`
	Fanart     *fanart    `xml:"fanart,omitempty"`
}

type showDoc struct {
	XMLName    xml.Name   `xml:"tvshow"`
	Title      string     `xml:"title"`
	Plot       string     `xml:"plot,omitempty"`
	UserRating *int       `xml:"userrating,omitempty"`
	MPAA       string     `xml:"mpaa,omitempty"`
	UniqueIDs  []uniqueID `xml:"uniqueid"`
	Year       string     `xml:"year,omitempty"`
	Premiered  string     `xml:"premiered,omitempty"`
	Genres     []string   `xml:"genre"`
	Director   string     `xml:"director,omitempty"`
	Actors     []actor    `xml:"actor"`
	Thumb      string     `xml:"thumb,omitempty"`
	Fanart     *fanart    `xml:"fanart,omitempty"`
}

type videoDoc struct {
	Codec             string `xml:"codec,omitempty"`
	Width             int64  `xml:"width,omitempty"`
	Height            int64  `xml:"height,omitempty"`
	Aspect            string `xml:"aspect,omitempty"`
	DurationInSeconds int64  `xml:"durationinseconds,omitempty"`
	Bitrate           int64  `xml:"bitrate,omitempty"`
}

type audioDoc struct {
	Codec      string `xml:"codec,omitempty"`
	Channels   int64  `xml:"channels,omitempty"`
	SampleRate string `xml:"samplerate,omitempty"`
	Layout     string `xml:"layout,omitempty"`
	Language   string `xml:"language,omitempty"`
}

type fileInfoDoc struct {
	Video *videoDoc `xml:"streamdetails>video,omitempty"`
	Audio *audioDoc `xml:"streamdetails>audio,omitempty"`
}

type episodeDoc struct {
	XMLName   xml.Name     `xml:"episodedetails"`
	Title     string       `xml:"title"`
	ShowTitle string       `xml:"showtitle"`
	Season    int          `xml:"season"`
	Episode   int          `xml:"episode"`
	Runtime   int64        `xml:"runtime,omitempty"`
	FileInfo  *fileInfoDoc `xml:"fileinfo,omitempty"`
}

// Movie renders a <movie> document.
func Movie(m Metadata, opts TitleOptions) (string, error) {
	doc := movieDoc{
		Title:      displayTitle(m, opts),
		Plot:       m.Plot,
		Outline:    truncate(m.Plot, 200),
		UserRating: userRating(m.Rating, m.Rating5Based),
		MPAA:       m.MPAA,
		UniqueIDs:  uniqueIDs(m.TMDBID, m.IMDBID),
		Year:       year(m.Year),
		Genres:     splitGenres(m.Genre),
		Director:   m.Director,
		Actors:     splitCast(m.Cast),
		Runtime:    runtimeMinutes(m.Duration),
		Thumb:      m.Cover,
		Fanart:     fanartFor(m),
	}
	if m.Trailer != "" {
		doc.Trailer = trailerURL + m.Trailer
	}
	return render(doc)
}

// Show renders a <tvshow> document.
func Show(m Metadata, opts TitleOptions) (string, error) {
	y := year(m.Year)
	doc := showDoc{
		Title:      displayTitle(m, opts),
		Plot:       m.Plot,
		UserRating: userRating(m.Rating, m.Rating5Based),
		MPAA:       m.MPAA,
		UniqueIDs:  uniqueIDs(m.TMDBID, m.IMDBID),
		Year:       y,
		Premiered:  y,
		Genres:     splitGenres(m.Genre),
		Director:   m.Director,
		Actors:     splitCast(m.Cast),
		Thumb:      m.Cover,
		Fanart:     fanartFor(m),
	}
	return render(doc)
}

// Episode renders an <episodedetails> document. Titles repeating the show
// name are shortened; empty titles become "Episode N".
func Episode(ep EpisodeMetadata, showTitle string, season, episode int, opts TitleOptions) (string, error) {
	fallback := "Episode " + strconv.Itoa(episode)
	title := ep.Title
	if title == "" {
		title = fallback
	}
	if n := len(showTitle); n > 0 && len(title) >= n && strings.EqualFold(title[:n], showTitle) {
		title = strings.Trim(title[n:], " -:")
	}
	if title == "" {
		title = fallback
	}
	title = CleanTitle(title, opts)

	doc := episodeDoc{
		Title:     title,
		ShowTitle: showTitle,
		Season:    season,
		Episode:   episode,
	}
	if ep.DurationSecs > 0 {
		doc.Runtime = ep.DurationSecs / 60
	}
	if doc.Runtime == 0 {
		if r := runtimeMinutes(ep.Duration); r != nil && *r > 0 {
			doc.Runtime = int64(*r)
		}
	}

	hasVideo := ep.Video != (VideoStream{})
	hasAudio := ep.Audio != (AudioStream{})
	if hasVideo || hasAudio {
		doc.FileInfo = &fileInfoDoc{}
		if hasVideo {
			v := &videoDoc{
				Codec:             ep.Video.Codec,
				Aspect:            ep.Video.Aspect,
				DurationInSeconds: ep.DurationSecs,
				Bitrate:           ep.Bitrate,
			}
			if ep.Video.Width > 0 && ep.Video.Height > 0 {
				v.Width, v.Height = ep.Video.Width, ep.Video.Height
			}
			doc.FileInfo.Video = v
		}
		if hasAudio {
			doc.FileInfo.Audio = &audioDoc{
				Codec:      ep.Audio.Codec,
				Channels:   ep.Audio.Channels,
				SampleRate: ep.Audio.SampleRate,
				Layout:     ep.Audio.Layout,
				Language:   ep.Audio.Language,
			}
		}
	}
	return render(doc)
}

func render(doc any) (string, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return header + string(body), nil
}

func displayTitle(m Metadata, opts TitleOptions) string {
	title := m.OriginalName
	if title == "" {
		title = m.Name
	}
	if title == "" {
		title = "Unknown"
	}
	return CleanTitle(title, opts)
}

func uniqueIDs(tmdbID, imdbID string) []uniqueID {
	var ids []uniqueID
	if id := models.ValidTMDBID(tmdbID); id != "" {
		ids = append(ids, uniqueID{Type: "tmdb", Default: "true", Value: id})
	}
	imdb := strings.TrimSpace(imdbID)
	switch strings.ToLower(imdb) {
	case "", "0", "null", "none":
	default:
		ids = append(ids, uniqueID{Type: "imdb", Value: imdb})
	}
	return ids
}

// userRating converts a 5-based rating to the 10-based scale Kodi expects,
// falling back to the plain rating.
func userRating(rating, rating5 string) *int {
	value := strings.TrimSpace(rating)
	if value == "" {
		value = strings.TrimSpace(rating5)
	}
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if r5, err5 := strconv.ParseFloat(strings.TrimSpace(rating5), 64); err5 == nil {
		f, err = r5*2, nil
	}
	if err != nil {
		return nil
	}
	r := int(math.RoundToEven(f))
	return &r
}

func year(date string) string {
	date = strings.TrimSpace(date)
	if r := []rune(date); len(r) >= 4 {
		return string(r[:4])
	}
	return date
}

func splitGenres(genre string) []string {
	var out []string
	for _, g := range genreSeparators.Split(genre, -1) {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

func splitCast(cast string) []actor {
	var out []actor
	for _, name := range strings.Split(cast, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, actor{Name: name})
		}
	}
	return out
}

// runtimeMinutes parses "HH:MM[:SS]" or a plain number of minutes.
func runtimeMinutes(duration string) *int {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return nil
	}
	if strings.Contains(duration, ":") {
		parts := strings.Split(duration, ":")
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return nil
		}
		total := h*60 + m
		return &total
	}
	total, err := strconv.Atoi(duration)
	if err != nil {
		return nil
	}
	return &total
}

func fanartFor(m Metadata) *fanart {
	switch {
	case m.Fanart != "":
		return &fanart{Thumb: m.Fanart}
	case m.Cover != "":
		return &fanart{Thumb: m.Cover}
	}
	return nil
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
