package xtream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString decodes a JSON string, number or null into a string.
// Providers are inconsistent about quoting ids.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if data[0] == '[' || data[0] == '{' {
		*f = ""
		return nil
	}
	*f = FlexString(string(data))
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexInt decodes a JSON number, numeric string or null into an int64.
// Unparseable values decode to zero.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	str := strings.TrimSpace(string(s))
	if str == "" {
		*f = 0
		return nil
	}
	if n, err := strconv.ParseInt(str, 10, 64); err == nil {
		*f = FlexInt(n)
		return nil
	}
	if fl, err := strconv.ParseFloat(str, 64); err == nil {
		*f = FlexInt(int64(fl))
		return nil
	}
	*f = 0
	return nil
}

// FlexStrings decodes either a list of strings or a single string.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []FlexString
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		out := make([]string, 0, len(list))
		for _, s := range list {
			if s != "" {
				out = append(out, string(s))
			}
		}
		*f = out
		return nil
	}
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*f = nil
	} else {
		*f = FlexStrings{string(s)}
	}
	return nil
}

// First returns the first entry or "".
func (f FlexStrings) First() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// Category is an entry of get_vod_categories / get_series_categories.
type Category struct {
	CategoryID   FlexString `json:"category_id"`
	CategoryName string     `json:"category_name"`
	ParentID     FlexInt    `json:"parent_id"`
}

// VODStream is an entry of get_vod_streams.
type VODStream struct {
	StreamID           FlexInt    `json:"stream_id"`
	Name               string     `json:"name"`
	CategoryID         FlexString `json:"category_id"`
	ContainerExtension string     `json:"container_extension"`
	TMDB               FlexString `json:"tmdb"`
	StreamIcon         string     `json:"stream_icon"`
	Rating             FlexString `json:"rating"`
	Rating5Based       FlexString `json:"rating_5based"`
	Added              FlexString `json:"added"`
}

// MediaStream describes a video or audio track. Providers send [] when
// there is no information, which decodes to the zero value.
type MediaStream struct {
	CodecName          string     `json:"codec_name"`
	Width              FlexInt    `json:"width"`
	Height             FlexInt    `json:"height"`
	DisplayAspectRatio string     `json:"display_aspect_ratio"`
	Channels           FlexInt    `json:"channels"`
	SampleRate         FlexString `json:"sample_rate"`
	ChannelLayout      string     `json:"channel_layout"`
	Tags               struct {
		Language string `json:"language"`
	} `json:"tags"`
}

func (m *MediaStream) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*m = MediaStream{}
		return nil
	}
	type plain MediaStream
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = MediaStream(p)
	return nil
}

// IsZero reports whether the provider sent no details for the track.
func (m MediaStream) IsZero() bool {
	return m == MediaStream{}
}

// VODDetails is the "info" object of get_vod_info.
type VODDetails struct {
	TMDBID         FlexString  `json:"tmdb_id"`
	IMDBID         FlexString  `json:"imdb_id"`
	Name           string      `json:"name"`
	OName          string      `json:"o_name"`
	Plot           string      `json:"plot"`
	Description    string      `json:"description"`
	Cast           string      `json:"cast"`
	Actors         string      `json:"actors"`
	Director       string      `json:"director"`
	Genre          string      `json:"genre"`
	ReleaseDate    string      `json:"releasedate"`
	ReleaseDateAlt string      `json:"release_date"`
	Duration       FlexString  `json:"duration"`
	DurationSecs   FlexInt     `json:"duration_secs"`
	Bitrate        FlexInt     `json:"bitrate"`
	Video          MediaStream `json:"video"`
	Audio          MediaStream `json:"audio"`
	YouTubeTrailer string      `json:"youtube_trailer"`
	MovieImage     string      `json:"movie_image"`
	CoverBig       string      `json:"cover_big"`
	BackdropPath   FlexStrings `json:"backdrop_path"`
	Rating         FlexString  `json:"rating"`
	MPAA           FlexString  `json:"mpaa"`
	Age            FlexString  `json:"age"`
}

// VODInfo is the response of get_vod_info.
type VODInfo struct {
	Info VODDetails `json:"info"`
}

func (v *VODInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		Info json.RawMessage `json:"info"`
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*v = VODInfo{}
		return nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = VODInfo{}
	info := bytes.TrimSpace(raw.Info)
	if len(info) > 0 && info[0] == '{' {
		return json.Unmarshal(info, &v.Info)
	}
	return nil
}

// Series is an entry of get_series.
type Series struct {
	SeriesID       FlexInt     `json:"series_id"`
	Name           string      `json:"name"`
	CategoryID     FlexString  `json:"category_id"`
	TMDB           FlexString  `json:"tmdb"`
	Cover          string      `json:"cover"`
	Plot           string      `json:"plot"`
	Cast           string      `json:"cast"`
	Director       string      `json:"director"`
	Genre          string      `json:"genre"`
	ReleaseDate    string      `json:"releaseDate"`
	Rating         FlexString  `json:"rating"`
	Rating5Based   FlexString  `json:"rating_5based"`
	BackdropPath   FlexStrings `json:"backdrop_path"`
	YouTubeTrailer string      `json:"youtube_trailer"`
	EpisodeRunTime FlexString  `json:"episode_run_time"`
}

// EpisodeDetails is the "info" object of an episode.
type EpisodeDetails struct {
	DurationSecs FlexInt     `json:"duration_secs"`
	Duration     FlexString  `json:"duration"`
	Bitrate      FlexInt     `json:"bitrate"`
	Video        MediaStream `json:"video"`
	Audio        MediaStream `json:"audio"`
	MovieImage   string      `json:"movie_image"`
	Plot         string      `json:"plot"`
}

func (e *EpisodeDetails) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*e = EpisodeDetails{}
		return nil
	}
	type plain EpisodeDetails
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = EpisodeDetails(p)
	return nil
}

// Episode is one entry of the per-season lists in get_series_info.
type Episode struct {
	ID                 FlexString     `json:"id"`
	EpisodeNum         FlexInt        `json:"episode_num"`
	Title              string         `json:"title"`
	ContainerExtension string         `json:"container_extension"`
	Season             FlexInt        `json:"season"`
	Info               EpisodeDetails `json:"info"`
}

// Seasons maps a season number (as sent by the provider) to its episodes.
// Providers send [] instead of {} when a series has no episodes.
type Seasons map[string][]Episode

func (s *Seasons) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*s = Seasons{}
		return nil
	}
	m := map[string][]Episode{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = m
	return nil
}

// SeriesInfo is the response of get_series_info.
type SeriesInfo struct {
	Episodes Seasons `json:"episodes"`
}

func (s *SeriesInfo) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = SeriesInfo{Episodes: Seasons{}}
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var raw struct {
		Episodes Seasons `json:"episodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Episodes != nil {
		s.Episodes = raw.Episodes
	}
	return nil
}
