package model

// Album mirrors a row of the `albums` table.  CoverURL is nil until a cover
// has been uploaded.
type Album struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Year     int     `json:"year"`
	CoverURL *string `json:"coverUrl"`
}

// AlbumLike records that a user liked an album.  A user likes a given
// album at most once.
type AlbumLike struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	AlbumID string `json:"albumId"`
}

// AlbumDetail is an album with the songs that reference it.
type AlbumDetail struct {
	Album
	Songs []SongSummary `json:"songs"`
}
