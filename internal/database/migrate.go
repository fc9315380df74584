package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// schema is applied in order; every statement is idempotent.  Foreign keys
// cascade so deleting a playlist never leaves collaboration, playlist song
// or activity rows behind.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id        VARCHAR(64)  NOT NULL PRIMARY KEY,
		username  VARCHAR(64)  NOT NULL UNIQUE,
		password  VARCHAR(255) NOT NULL,
		fullname  VARCHAR(255) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS authentications (
		token_hash CHAR(64)    NOT NULL PRIMARY KEY,
		user_id    VARCHAR(64) NOT NULL,
		created_at DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_auth_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS albums (
		id        VARCHAR(64)  NOT NULL PRIMARY KEY,
		name      VARCHAR(255) NOT NULL,
		year      INT          NOT NULL,
		cover_url VARCHAR(512) NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS songs (
		id        VARCHAR(64)  NOT NULL PRIMARY KEY,
		title     VARCHAR(255) NOT NULL,
		year      INT          NOT NULL,
		performer VARCHAR(255) NOT NULL,
		genre     VARCHAR(64)  NOT NULL,
		duration  INT          NULL,
		album_id  VARCHAR(64)  NULL,
		CONSTRAINT fk_song_album FOREIGN KEY (album_id) REFERENCES albums(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS playlists (
		id    VARCHAR(64)  NOT NULL PRIMARY KEY,
		name  VARCHAR(255) NOT NULL,
		owner VARCHAR(64)  NOT NULL,
		CONSTRAINT fk_playlist_owner FOREIGN KEY (owner) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS playlist_songs (
		id          VARCHAR(64) NOT NULL PRIMARY KEY,
		playlist_id VARCHAR(64) NOT NULL,
		song_id     VARCHAR(64) NOT NULL,
		UNIQUE KEY uq_playlist_song (playlist_id, song_id),
		CONSTRAINT fk_ps_playlist FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		CONSTRAINT fk_ps_song FOREIGN KEY (song_id) REFERENCES songs(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS collaborations (
		id          VARCHAR(64) NOT NULL PRIMARY KEY,
		playlist_id VARCHAR(64) NOT NULL,
		user_id     VARCHAR(64) NOT NULL,
		UNIQUE KEY uq_collab (playlist_id, user_id),
		CONSTRAINT fk_collab_playlist FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		CONSTRAINT fk_collab_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS playlist_song_activities (
		id          VARCHAR(64) NOT NULL PRIMARY KEY,
		playlist_id VARCHAR(64) NOT NULL,
		song_id     VARCHAR(64) NOT NULL,
		user_id     VARCHAR(64) NOT NULL,
		action      ENUM('add','delete') NOT NULL,
		time        DATETIME(3) NOT NULL,
		KEY idx_activity_playlist (playlist_id, time),
		CONSTRAINT fk_act_playlist FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		CONSTRAINT fk_act_song FOREIGN KEY (song_id) REFERENCES songs(id) ON DELETE CASCADE,
		CONSTRAINT fk_act_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_album_likes (
		id       VARCHAR(64) NOT NULL PRIMARY KEY,
		user_id  VARCHAR(64) NOT NULL,
		album_id VARCHAR(64) NOT NULL,
		UNIQUE KEY uq_album_like (user_id, album_id),
		CONSTRAINT fk_like_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_like_album FOREIGN KEY (album_id) REFERENCES albums(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates every table the API needs.  The MySQL driver rejects
// multi-statement strings by default, so statements run one at a time.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("migrate: statement %d failed: %v", i, err)
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
