package model

// Song mirrors a row of the `songs` table.  Duration and AlbumID are
// optional.
type Song struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Year      int     `json:"year"`
	Performer string  `json:"performer"`
	Genre     string  `json:"genre"`
	Duration  *int    `json:"duration"`
	AlbumID   *string `json:"albumId"`
}

// SongSummary is the short form used in song and playlist listings.
type SongSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Performer string `json:"performer"`
}

// Summary returns the listing form of s.
func (s Song) Summary() SongSummary {
	return SongSummary{ID: s.ID, Title: s.Title, Performer: s.Performer}
}

// SongQuery filters the song listing.  Empty fields do not filter.
type SongQuery struct {
	Title     string
	Performer string
}

// IsZero reports whether q applies no filter.
func (q SongQuery) IsZero() bool { return q.Title == "" && q.Performer == "" }
