package game

import (
	"strings"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
)

const (
	// MinGameSongs is the smallest playlist a live game accepts.
	MinGameSongs = models.SongsPerCard
	// MaxPlaylistSize bounds playlist ingestion.
	MaxPlaylistSize = 1000
)

// NewSong mints an id for an imported song and validates it.
func NewSong(title, artist, album string, durationSeconds int) (models.Song, error) {
	s := models.Song{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(title),
		Artist:          strings.TrimSpace(artist),
		Album:           strings.TrimSpace(album),
		DurationSeconds: durationSeconds,
	}
	if err := s.Validate(); err != nil {
		return models.Song{}, err
	}
	return s, nil
}

// ValidatePlaylist applies the import rules: MinPoolSize..MaxPlaylistSize songs,
// each valid, with no repeated id and no repeated title+artist.
func ValidatePlaylist(songs []models.Song) error {
	if len(songs) < MinPoolSize {
		return models.Validationf("validate playlist", "playlist too small: %d songs (minimum %d)", len(songs), MinPoolSize)
	}
	if len(songs) > MaxPlaylistSize {
		return models.Validationf("validate playlist", "playlist too large: %d songs (maximum %d)", len(songs), MaxPlaylistSize)
	}
	if err := validateSongs(songs); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(songs))
	var dups []string
	for _, s := range songs {
		k := s.Key()
		if _, ok := seen[k]; ok {
			dups = append(dups, s.String())
		}
		seen[k] = struct{}{}
	}
	if len(dups) > 0 {
		shown := dups
		suffix := ""
		if len(shown) > 3 {
			shown, suffix = shown[:3], "..."
		}
		return models.Validationf("validate playlist", "playlist contains %d duplicate songs: %s%s", len(dups), strings.Join(shown, ", "), suffix)
	}
	return nil
}

func validateSongs(songs []models.Song) error {
	ids := make(map[uuid.UUID]struct{}, len(songs))
	for _, s := range songs {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := ids[s.ID]; dup {
			return models.Validationf("validate playlist", "song %s appears twice", s.ID)
		}
		ids[s.ID] = struct{}{}
	}
	return nil
}
