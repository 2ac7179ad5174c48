package game

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Options struct {
	// AppendWinnerOnReplay logs a card again when it loses its win to an
	// unplayed song and then wins again in the same round.
	AppendWinnerOnReplay bool
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Service is the registry of live games. Construct one at startup and hand it
// to whatever serves requests.
type Service struct {
	mu    sync.RWMutex
	games map[uuid.UUID]*Game
	opts  Options
	log   zerolog.Logger
}

func NewService(opts Options, log zerolog.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		games: make(map[uuid.UUID]*Game),
		opts:  opts,
		log:   log.With().Str("component", "game_service").Logger(),
	}
}

// CreateGame registers a new game in SETUP. A nil id draws a fresh one and an
// empty pattern selects five in a row.
func (s *Service) CreateGame(id uuid.UUID, name string, playlist []models.Song, pattern models.PatternType) (models.GameView, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if pattern == "" {
		pattern = models.PatternFiveInARow
	}
	if _, ok := shapesFor(pattern); !ok {
		return models.GameView{}, models.Validationf("create game", "unknown pattern %q", pattern)
	}
	if len(playlist) < MinGameSongs {
		return models.GameView{}, models.Validationf("create game", "playlist must have at least %d songs, got %d", MinGameSongs, len(playlist))
	}
	if err := validateSongs(playlist); err != nil {
		return models.GameView{}, err
	}

	g := newGame(id, strings.TrimSpace(name), playlist, pattern, s.opts)

	s.mu.Lock()
	if _, exists := s.games[id]; exists {
		s.mu.Unlock()
		return models.GameView{}, models.Conflictf("create game", "game %s already exists", id)
	}
	s.games[id] = g
	s.mu.Unlock()

	s.log.Info().Str("game_id", id.String()).Int("songs", len(playlist)).Str("pattern", string(pattern)).Msg("game created")
	return g.View(), nil
}

func (s *Service) lookup(op string, id uuid.UUID) (*Game, error) {
	s.mu.RLock()
	g, ok := s.games[id]
	s.mu.RUnlock()
	if !ok {
		return nil, models.NotFoundf(op, "game %s not found", id)
	}
	return g, nil
}

func (s *Service) Game(id uuid.UUID) (models.GameView, error) {
	g, err := s.lookup("get game", id)
	if err != nil {
		return models.GameView{}, err
	}
	return g.View(), nil
}

// Games lists every live game, oldest first.
func (s *Service) Games() []models.GameView {
	s.mu.RLock()
	games := make([]*Game, 0, len(s.games))
	for _, g := range s.games {
		games = append(games, g)
	}
	s.mu.RUnlock()

	views := make([]models.GameView, len(games))
	for i, g := range games {
		views[i] = g.View()
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID.String() < views[j].ID.String()
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}

func (s *Service) DeleteGame(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return models.NotFoundf("delete game", "game %s not found", id)
	}
	delete(s.games, id)
	s.log.Info().Str("game_id", id.String()).Msg("game deleted")
	return nil
}

func (s *Service) AddCard(id uuid.UUID, card models.Card) error {
	return s.AddCards(id, []models.Card{card})
}

func (s *Service) AddCards(id uuid.UUID, cards []models.Card) error {
	g, err := s.lookup("add card", id)
	if err != nil {
		return err
	}
	if err := g.AddCards(cards); err != nil {
		return err
	}
	s.log.Debug().Str("game_id", id.String()).Int("cards", len(cards)).Msg("cards added")
	return nil
}

func (s *Service) StartGame(id uuid.UUID) (models.GameView, error) {
	return s.changeStatus("start game", id, (*Game).Start)
}

func (s *Service) PauseGame(id uuid.UUID) (models.GameView, error) {
	return s.changeStatus("pause game", id, (*Game).Pause)
}

func (s *Service) ResumeGame(id uuid.UUID) (models.GameView, error) {
	return s.changeStatus("resume game", id, (*Game).Resume)
}

func (s *Service) CompleteGame(id uuid.UUID) (models.GameView, error) {
	return s.changeStatus("complete game", id, (*Game).Complete)
}

func (s *Service) changeStatus(op string, id uuid.UUID, fn func(*Game) error) (models.GameView, error) {
	g, err := s.lookup(op, id)
	if err != nil {
		return models.GameView{}, err
	}
	if err := fn(g); err != nil {
		return models.GameView{}, err
	}
	view := g.View()
	s.log.Info().Str("game_id", id.String()).Str("status", string(view.Status)).Msg("game status changed")
	return view, nil
}

func (s *Service) SetPattern(id uuid.UUID, p models.PatternType) (models.GameView, error) {
	g, err := s.lookup("set pattern", id)
	if err != nil {
		return models.GameView{}, err
	}
	if err := g.SetPattern(p); err != nil {
		return models.GameView{}, err
	}
	return g.View(), nil
}

func (s *Service) SetPrize(id uuid.UUID, prize string) (models.GameView, error) {
	g, err := s.lookup("set prize", id)
	if err != nil {
		return models.GameView{}, err
	}
	if err := g.SetPrize(prize); err != nil {
		return models.GameView{}, err
	}
	return g.View(), nil
}

// PlaySong marks a song played and returns newly detected winners.
func (s *Service) PlaySong(id, songID uuid.UUID) ([]models.Winner, error) {
	return s.MarkSong(id, songID, true)
}

func (s *Service) MarkSong(id, songID uuid.UUID, played bool) ([]models.Winner, error) {
	g, err := s.lookup("mark song", id)
	if err != nil {
		return nil, err
	}
	winners, err := g.MarkSong(songID, played)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("game_id", id.String()).Str("song_id", songID.String()).Bool("played", played).Msg("song marked")
	for _, w := range winners {
		s.log.Info().
			Str("game_id", id.String()).
			Int("card_number", w.CardNumber).
			Str("player", w.PlayerName).
			Str("pattern", string(w.Pattern)).
			Msg("winner detected")
	}
	return winners, nil
}

func (s *Service) RevealSong(id, songID uuid.UUID) error {
	g, err := s.lookup("reveal song", id)
	if err != nil {
		return err
	}
	return g.RevealSong(songID)
}

// ResetRound starts a fresh round and returns the winners of the round just cleared.
func (s *Service) ResetRound(id uuid.UUID) ([]models.Winner, error) {
	g, err := s.lookup("reset round", id)
	if err != nil {
		return nil, err
	}
	cleared := g.ResetRound()
	s.log.Info().Str("game_id", id.String()).Int("cleared_winners", len(cleared)).Msg("round reset")
	return cleared, nil
}

func (s *Service) RegisterCard(id, cardID uuid.UUID, playerName string) (models.Registration, error) {
	g, err := s.lookup("register card", id)
	if err != nil {
		return models.Registration{}, err
	}
	return g.Register(cardID, playerName)
}

func (s *Service) Registrations(id uuid.UUID) ([]models.Registration, error) {
	g, err := s.lookup("list registrations", id)
	if err != nil {
		return nil, err
	}
	return g.Registrations(), nil
}

func (s *Service) VerifyCard(id, cardID uuid.UUID) (models.Verification, error) {
	g, err := s.lookup("verify card", id)
	if err != nil {
		return models.Verification{}, err
	}
	return g.Verify(cardID)
}

// VerifyToken verifies the card named by a scanned QR token. Malformed or
// tampered tokens are validation errors.
func (s *Service) VerifyToken(raw string) (models.Verification, error) {
	t, err := ParseCardToken(strings.TrimSpace(raw))
	if err != nil {
		return models.Verification{}, err
	}
	if !t.Valid() {
		return models.Verification{}, models.Validationf("verify token", "checksum mismatch")
	}
	g, err := s.lookup("verify token", t.GameID)
	if err != nil {
		return models.Verification{}, err
	}
	card, ok := g.Card(t.CardID)
	if !ok || !VerifyCardToken(card, t.String()) {
		return models.Verification{}, models.NotFoundf("verify token", "card %s not found in game %s", t.CardID, t.GameID)
	}
	return g.Verify(card.ID)
}

func (s *Service) CardStatuses(id uuid.UUID) ([]models.CardStatus, error) {
	g, err := s.lookup("card statuses", id)
	if err != nil {
		return nil, err
	}
	return g.CardStatuses(), nil
}

func (s *Service) Snapshot(id uuid.UUID, name string) (models.GameSnapshot, error) {
	g, err := s.lookup("snapshot game", id)
	if err != nil {
		return models.GameSnapshot{}, err
	}
	return g.Snapshot(name), nil
}

// LoadSnapshot rebuilds a game in SETUP from a snapshot. If a game with the same
// id is already live it is returned untouched and loaded is false.
func (s *Service) LoadSnapshot(snap models.GameSnapshot) (view models.GameView, loaded bool, err error) {
	if snap.GameID == uuid.Nil {
		return models.GameView{}, false, models.Validationf("load game", "snapshot has no game_id")
	}
	if existing, err := s.lookup("load game", snap.GameID); err == nil {
		return existing.View(), false, nil
	}

	pattern := snap.Pattern
	if pattern == "" {
		pattern = models.PatternFiveInARow
	}
	if _, ok := shapesFor(pattern); !ok {
		return models.GameView{}, false, models.Validationf("load game", "unknown pattern %q", pattern)
	}
	if len(snap.Playlist) < MinGameSongs {
		return models.GameView{}, false, models.Validationf("load game", "playlist must have at least %d songs, got %d", MinGameSongs, len(snap.Playlist))
	}
	if err := validateSongs(snap.Playlist); err != nil {
		return models.GameView{}, false, err
	}
	g := newGame(snap.GameID, snap.Name, snap.Playlist, pattern, s.opts)
	if len(snap.Cards) > 0 {
		if err := g.AddCards(snap.Cards); err != nil {
			return models.GameView{}, false, err
		}
	}

	s.mu.Lock()
	if existing, ok := s.games[snap.GameID]; ok {
		s.mu.Unlock()
		return existing.View(), false, nil
	}
	s.games[snap.GameID] = g
	s.mu.Unlock()

	s.log.Info().Str("game_id", snap.GameID.String()).Int("cards", len(snap.Cards)).Msg("game loaded")
	return g.View(), true, nil
}
