package syncer

import (
	"github.com/xtreamsync/xtreamsync/internal/nfo"
	"github.com/xtreamsync/xtreamsync/internal/xtream"
)

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// movieMetadata merges a stream list entry with its optional detail record.
// List values win; details fill the gaps.
func movieMetadata(s xtream.VODStream, d *xtream.VODDetails, tmdbID string) nfo.Metadata {
	m := nfo.Metadata{
		Name:         s.Name,
		TMDBID:       tmdbID,
		Rating:       string(s.Rating),
		Rating5Based: string(s.Rating5Based),
		Cover:        s.StreamIcon,
	}
	if d == nil {
		return m
	}
	m.OriginalName = d.OName
	m.IMDBID = string(d.IMDBID)
	m.Plot = firstNonEmpty(d.Plot, d.Description)
	m.Year = firstNonEmpty(d.ReleaseDate, d.ReleaseDateAlt)
	m.Rating = firstNonEmpty(m.Rating, string(d.Rating))
	m.Genre = d.Genre
	m.Director = d.Director
	m.Cast = firstNonEmpty(d.Cast, d.Actors)
	m.Duration = string(d.Duration)
	m.Trailer = d.YouTubeTrailer
	m.Cover = firstNonEmpty(d.MovieImage, d.CoverBig, s.StreamIcon)
	m.Fanart = d.BackdropPath.First()
	m.MPAA = firstNonEmpty(string(d.MPAA), string(d.Age))
	if m.TMDBID == "" {
		m.TMDBID = string(d.TMDBID)
	}
	return m
}

func showMetadata(s xtream.Series) nfo.Metadata {
	return nfo.Metadata{
		Name:         s.Name,
		TMDBID:       string(s.TMDB),
		Plot:         s.Plot,
		Year:         s.ReleaseDate,
		Rating:       string(s.Rating),
		Rating5Based: string(s.Rating5Based),
		Genre:        s.Genre,
		Director:     s.Director,
		Cast:         s.Cast,
		Duration:     string(s.EpisodeRunTime),
		Trailer:      s.YouTubeTrailer,
		Cover:        s.Cover,
		Fanart:       s.BackdropPath.First(),
	}
}

func episodeMetadata(ep xtream.Episode) nfo.EpisodeMetadata {
	info := ep.Info
	return nfo.EpisodeMetadata{
		Title:        ep.Title,
		DurationSecs: int64(info.DurationSecs),
		Duration:     string(info.Duration),
		Bitrate:      int64(info.Bitrate),
		Video: nfo.VideoStream{
			Codec:  info.Video.CodecName,
			Width:  int64(info.Video.Width),
			Height: int64(info.Video.Height),
			Aspect: info.Video.DisplayAspectRatio,
		},
		Audio: nfo.AudioStream{
			Codec:      info.Audio.CodecName,
			Channels:   int64(info.Audio.Channels),
			SampleRate: string(info.Audio.SampleRate),
			Layout:     info.Audio.ChannelLayout,
			Language:   info.Audio.Tags.Language,
		},
	}
}
