package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	GridSize     = 5
	SongsPerCard = GridSize*GridSize - 1 // 24, center is free
)

// FreeSpace is the center cell; it is always marked.
var FreeSpace = Position{Row: 2, Col: 2}

type Song struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	Album           string    `json:"album,omitempty"`
	DurationSeconds int       `json:"duration,omitempty"`
}

func (s Song) String() string {
	return fmt.Sprintf("%s - %s", s.Title, s.Artist)
}

// Key is the normalized title+artist pair used to detect duplicate songs.
func (s Song) Key() string {
	return strings.ToLower(strings.TrimSpace(s.Title)) + "\x00" + strings.ToLower(strings.TrimSpace(s.Artist))
}

func (s Song) Validate() error {
	if s.ID == uuid.Nil {
		return Validationf("validate song", "song id is required")
	}
	if strings.TrimSpace(s.Title) == "" {
		return Validationf("validate song", "song %s: title cannot be empty", s.ID)
	}
	if strings.TrimSpace(s.Artist) == "" {
		return Validationf("validate song", "song %s: artist cannot be empty", s.ID)
	}
	if s.DurationSeconds < 0 {
		return Validationf("validate song", "song %s: duration must be positive", s.ID)
	}
	return nil
}

// Position is a grid cell. It marshals as a two element array [row, col].
type Position struct {
	Row int
	Col int
}

func (p Position) InGrid() bool {
	return p.Row >= 0 && p.Row < GridSize && p.Col >= 0 && p.Col < GridSize
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Row, p.Col})
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var rc []int
	if err := json.Unmarshal(data, &rc); err != nil {
		return err
	}
	if len(rc) != 2 {
		return fmt.Errorf("position must have 2 elements, got %d", len(rc))
	}
	p.Row, p.Col = rc[0], rc[1]
	return nil
}

// CardPositions lists the 24 non-center cells in row-major order.
func CardPositions() []Position {
	out := make([]Position, 0, SongsPerCard)
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			p := Position{Row: r, Col: c}
			if p == FreeSpace {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

type Card struct {
	ID        uuid.UUID              `json:"card_id"`
	GameID    uuid.UUID              `json:"game_id"`
	Number    int                    `json:"card_number"`
	Positions map[uuid.UUID]Position `json:"song_positions"`
}

// Validate checks that the card covers every non-center cell exactly once.
func (c Card) Validate() error {
	if c.ID == uuid.Nil {
		return Validationf("validate card", "card id is required")
	}
	if c.Number < 1 {
		return Validationf("validate card", "card %s: card number must be positive", c.ID)
	}
	if len(c.Positions) != SongsPerCard {
		return Validationf("validate card", "card %s: expected %d songs, got %d", c.ID, SongsPerCard, len(c.Positions))
	}
	seen := make(map[Position]uuid.UUID, SongsPerCard)
	for songID, pos := range c.Positions {
		if !pos.InGrid() {
			return Validationf("validate card", "card %s: position (%d,%d) outside grid", c.ID, pos.Row, pos.Col)
		}
		if pos == FreeSpace {
			return Validationf("validate card", "card %s: song %s placed on free space", c.ID, songID)
		}
		if other, dup := seen[pos]; dup {
			return Validationf("validate card", "card %s: songs %s and %s share (%d,%d)", c.ID, other, songID, pos.Row, pos.Col)
		}
		seen[pos] = songID
	}
	return nil
}

// SongAt returns the song placed at pos; ok is false for the free space.
func (c Card) SongAt(pos Position) (uuid.UUID, bool) {
	for id, p := range c.Positions {
		if p == pos {
			return id, true
		}
	}
	return uuid.Nil, false
}

// Grid lays the card out row by row. The free space holds uuid.Nil.
func (c Card) Grid() [GridSize][GridSize]uuid.UUID {
	var g [GridSize][GridSize]uuid.UUID
	for id, p := range c.Positions {
		if p.InGrid() {
			g[p.Row][p.Col] = id
		}
	}
	return g
}

// Marked returns the positions covered by played songs plus the free space.
func (c Card) Marked(played map[uuid.UUID]struct{}) map[Position]struct{} {
	marked := make(map[Position]struct{}, len(c.Positions)+1)
	for id, p := range c.Positions {
		if _, ok := played[id]; ok {
			marked[p] = struct{}{}
		}
	}
	marked[FreeSpace] = struct{}{}
	return marked
}

type PatternType string

const (
	PatternFiveInARow  PatternType = "five_in_a_row"
	PatternRow         PatternType = "row"
	PatternColumn      PatternType = "column"
	PatternDiagonal    PatternType = "diagonal"
	PatternFourCorners PatternType = "four_corners"
	PatternX           PatternType = "x_pattern"
	PatternFullCard    PatternType = "full_card"
)

// PatternTypes lists every pattern, default first.
var PatternTypes = []PatternType{
	PatternFiveInARow,
	PatternRow,
	PatternColumn,
	PatternDiagonal,
	PatternFourCorners,
	PatternX,
	PatternFullCard,
}

func ParsePatternType(s string) (PatternType, error) {
	p := PatternType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range PatternTypes {
		if p == known {
			return p, nil
		}
	}
	return "", Validationf("parse pattern", "unknown pattern %q", s)
}

func (p PatternType) DisplayName() string {
	switch p {
	case PatternFiveInARow:
		return "5 in a Row"
	case PatternRow:
		return "Any Row"
	case PatternColumn:
		return "Any Column"
	case PatternDiagonal:
		return "Diagonal"
	case PatternFourCorners:
		return "Four Corners"
	case PatternX:
		return "X"
	case PatternFullCard:
		return "Blackout"
	}
	return string(p)
}

func (p PatternType) Description() string {
	switch p {
	case PatternFiveInARow:
		return "Complete any row, column, or diagonal (classic bingo)"
	case PatternRow:
		return "Complete any horizontal row"
	case PatternColumn:
		return "Complete any vertical column"
	case PatternDiagonal:
		return "Complete either diagonal"
	case PatternFourCorners:
		return "Mark all four corner squares"
	case PatternX:
		return "Complete both diagonals"
	case PatternFullCard:
		return "Mark all 24 squares"
	}
	return ""
}

type GameStatus string

const (
	GameStatusSetup     GameStatus = "setup"
	GameStatusActive    GameStatus = "active"
	GameStatusPaused    GameStatus = "paused"
	GameStatusCompleted GameStatus = "completed"
)

type Registration struct {
	CardID       uuid.UUID `json:"card_id"`
	CardNumber   int       `json:"card_number"`
	PlayerName   string    `json:"player_name"`
	RegisteredAt time.Time `json:"registered_at"`
}

type Winner struct {
	CardID     uuid.UUID   `json:"card_id"`
	CardNumber int         `json:"card_number"`
	PlayerName string      `json:"player_name"`
	Pattern    PatternType `json:"pattern"`
	SongID     uuid.UUID   `json:"song_id"`
	Round      int         `json:"round"`
	DetectedAt time.Time   `json:"detected_at"`
}

type Verification struct {
	GameID     uuid.UUID    `json:"game_id"`
	CardID     uuid.UUID    `json:"card_id"`
	CardNumber int          `json:"card_number"`
	Winner     bool         `json:"winner"`
	Pattern    *PatternType `json:"pattern"`
	PlayerName string       `json:"player_name,omitempty"`
}

type CardStatus struct {
	CardID        uuid.UUID `json:"card_id"`
	CardNumber    int       `json:"card_number"`
	PlayerName    string    `json:"player_name"`
	MarkedCount   int       `json:"marked_count"`
	MatchesNeeded int       `json:"matches_needed"`
	IsWinner      bool      `json:"is_winner"`
}

// GameView is a read-only copy of a game's state.
type GameView struct {
	ID            uuid.UUID      `json:"game_id"`
	Name          string         `json:"name,omitempty"`
	Status        GameStatus     `json:"status"`
	Pattern       PatternType    `json:"current_pattern"`
	Playlist      []Song         `json:"playlist"`
	PlayedSongs   []uuid.UUID    `json:"played_songs"`
	RevealedSongs []uuid.UUID    `json:"revealed_songs"`
	CardCount     int            `json:"card_count"`
	Registrations []Registration `json:"registrations"`
	Winners       []Winner       `json:"detected_winners"`
	Prize         string         `json:"current_prize,omitempty"`
	Round         int            `json:"round"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// GameSnapshot is the on-disk layout of a game. Runtime progress is not part of it.
type GameSnapshot struct {
	GameID   uuid.UUID   `json:"game_id"`
	Name     string      `json:"name"`
	Pattern  PatternType `json:"pattern"`
	Playlist []Song      `json:"playlist"`
	Cards    []Card      `json:"cards"`
}

type SnapshotInfo struct {
	Filename  string    `json:"filename"`
	GameID    uuid.UUID `json:"game_id"`
	Name      string    `json:"name"`
	SongCount int       `json:"song_count"`
	CardCount int       `json:"card_count"`
}

// CardExport is the exporter payload handed to card printing and game loading.
type CardExport struct {
	GameID uuid.UUID `json:"game_id"`
	Cards  []Card    `json:"cards"`
}

type GameEventType string

const (
	EventSongPlayed     GameEventType = "song_played"
	EventSongUnplayed   GameEventType = "song_unplayed"
	EventSongRevealed   GameEventType = "song_revealed"
	EventWinnerDetected GameEventType = "winner_detected"
	EventPatternChanged GameEventType = "pattern_changed"
	EventStatusChanged  GameEventType = "status_changed"
	EventRoundReset     GameEventType = "round_reset"
	EventPrizeChanged   GameEventType = "prize_changed"
)

type GameEvent struct {
	Type    GameEventType `json:"type"`
	GameID  uuid.UUID     `json:"game_id"`
	SongID  *uuid.UUID    `json:"song_id,omitempty"`
	Status  GameStatus    `json:"status,omitempty"`
	Pattern PatternType   `json:"pattern,omitempty"`
	Prize   string        `json:"prize,omitempty"`
	Winners []Winner      `json:"winners,omitempty"`
	At      time.Time     `json:"at"`
}
