package game

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
)

type winnerKey struct {
	card    uuid.UUID
	pattern models.PatternType
}

// Game is one live bingo session. All methods are safe for concurrent use; every
// mutation holds the game's lock, so a play, its win check and the winner append
// happen as one step.
type Game struct {
	mu sync.Mutex

	id        uuid.UUID
	name      string
	status    models.GameStatus
	pattern   models.PatternType
	prize     string
	round     int
	createdAt time.Time
	updatedAt time.Time

	playlist []models.Song
	songs    map[uuid.UUID]struct{}

	played      []uuid.UUID
	playedSet   map[uuid.UUID]struct{}
	revealed    []uuid.UUID
	revealedSet map[uuid.UUID]struct{}

	cards         map[uuid.UUID]models.Card
	cardNumbers   map[int]uuid.UUID
	registrations map[uuid.UUID]models.Registration

	winners []models.Winner
	// armed holds the (card, pattern) pairs already logged this round.
	armed map[winnerKey]struct{}

	appendOnReplay bool
	now            func() time.Time
}

func newGame(id uuid.UUID, name string, playlist []models.Song, pattern models.PatternType, opts Options) *Game {
	now := opts.now()
	g := &Game{
		id:             id,
		name:           name,
		status:         models.GameStatusSetup,
		pattern:        pattern,
		round:          1,
		createdAt:      now,
		updatedAt:      now,
		playlist:       append([]models.Song(nil), playlist...),
		songs:          make(map[uuid.UUID]struct{}, len(playlist)),
		playedSet:      make(map[uuid.UUID]struct{}),
		revealedSet:    make(map[uuid.UUID]struct{}),
		cards:          make(map[uuid.UUID]models.Card),
		cardNumbers:    make(map[int]uuid.UUID),
		registrations:  make(map[uuid.UUID]models.Registration),
		armed:          make(map[winnerKey]struct{}),
		appendOnReplay: opts.AppendWinnerOnReplay,
		now:            opts.now,
	}
	for _, s := range playlist {
		g.songs[s.ID] = struct{}{}
	}
	return g
}

func (g *Game) ID() uuid.UUID { return g.id }

func (g *Game) touch() { g.updatedAt = g.now() }

// AddCards registers a batch of cards. Either every card is added or none is.
func (g *Game) AddCards(cards []models.Card) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != models.GameStatusSetup {
		return models.Conflictf("add card", "cannot add cards to game %s in status %s", g.id, g.status)
	}
	batch := make([]models.Card, len(cards))
	batchIDs := make(map[uuid.UUID]struct{}, len(cards))
	batchNumbers := make(map[int]struct{}, len(cards))
	for i, c := range cards {
		if c.GameID == uuid.Nil {
			c.GameID = g.id
		}
		batch[i] = c
		if err := g.checkCard(c); err != nil {
			return err
		}
		if _, dup := batchIDs[c.ID]; dup {
			return models.Conflictf("add card", "card %s appears twice in batch", c.ID)
		}
		if _, dup := batchNumbers[c.Number]; dup {
			return models.Conflictf("add card", "card number %d appears twice in batch", c.Number)
		}
		batchIDs[c.ID] = struct{}{}
		batchNumbers[c.Number] = struct{}{}
	}
	for _, c := range batch {
		c = cloneCard(c)
		g.cards[c.ID] = c
		g.cardNumbers[c.Number] = c.ID
	}
	g.touch()
	return nil
}

func (g *Game) checkCard(c models.Card) error {
	if c.GameID != g.id {
		return models.Validationf("add card", "card %s belongs to game %s, not %s", c.ID, c.GameID, g.id)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	for songID := range c.Positions {
		if _, ok := g.songs[songID]; !ok {
			return models.Validationf("add card", "card %s uses song %s which is not in the playlist", c.ID, songID)
		}
	}
	if _, exists := g.cards[c.ID]; exists {
		return models.Conflictf("add card", "card %s already in game %s", c.ID, g.id)
	}
	if other, taken := g.cardNumbers[c.Number]; taken {
		return models.Conflictf("add card", "card number %d already used by card %s", c.Number, other)
	}
	return nil
}

func (g *Game) transition(op string, to models.GameStatus, from ...models.GameStatus) error {
	for _, s := range from {
		if g.status == s {
			g.status = to
			g.touch()
			return nil
		}
	}
	return models.Conflictf(op, "illegal transition %s -> %s for game %s", g.status, to, g.id)
}

func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status == models.GameStatusSetup && len(g.cards) == 0 {
		return models.Conflictf("start game", "illegal transition setup -> active for game %s: game has no cards", g.id)
	}
	return g.transition("start game", models.GameStatusActive, models.GameStatusSetup)
}

func (g *Game) Pause() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transition("pause game", models.GameStatusPaused, models.GameStatusActive)
}

func (g *Game) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transition("resume game", models.GameStatusActive, models.GameStatusPaused)
}

func (g *Game) Complete() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transition("complete game", models.GameStatusCompleted, models.GameStatusActive, models.GameStatusPaused)
}

func (g *Game) SetPattern(p models.PatternType) error {
	if _, ok := shapesFor(p); !ok {
		return models.Validationf("set pattern", "unknown pattern %q", p)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status == models.GameStatusCompleted {
		return models.Conflictf("set pattern", "game %s is completed", g.id)
	}
	g.pattern = p
	g.touch()
	return nil
}

func (g *Game) SetPrize(prize string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status == models.GameStatusCompleted {
		return models.Conflictf("set prize", "game %s is completed", g.id)
	}
	g.prize = strings.TrimSpace(prize)
	g.touch()
	return nil
}

// PlaySong records a song as played and returns the cards that became winners.
func (g *Game) PlaySong(songID uuid.UUID) ([]models.Winner, error) {
	return g.MarkSong(songID, true)
}

// MarkSong toggles a song's played state. Plays need an active or paused game;
// unplaying works in any state and never revokes logged winners.
func (g *Game) MarkSong(songID uuid.UUID, played bool) ([]models.Winner, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.songs[songID]; !ok {
		return nil, models.NotFoundf("mark song", "song %s not in game %s playlist", songID, g.id)
	}
	if !played {
		if _, ok := g.playedSet[songID]; !ok {
			return nil, nil
		}
		delete(g.playedSet, songID)
		for i, id := range g.played {
			if id == songID {
				g.played = append(g.played[:i], g.played[i+1:]...)
				break
			}
		}
		if g.appendOnReplay {
			g.rearmLocked()
		}
		g.touch()
		return nil, nil
	}

	if g.status != models.GameStatusActive && g.status != models.GameStatusPaused {
		return nil, models.Conflictf("mark song", "cannot play songs in game %s with status %s", g.id, g.status)
	}
	if _, ok := g.playedSet[songID]; ok {
		return nil, nil
	}
	g.played = append(g.played, songID)
	g.playedSet[songID] = struct{}{}
	g.touch()
	return g.detectWinnersLocked(songID), nil
}

// detectWinnersLocked scans registered cards only; unregistered cards are
// checked on explicit verification.
func (g *Game) detectWinnersLocked(trigger uuid.UUID) []models.Winner {
	var found []models.Winner
	for _, reg := range g.registrationsLocked() {
		key := winnerKey{card: reg.CardID, pattern: g.pattern}
		if _, logged := g.armed[key]; logged {
			continue
		}
		card := g.cards[reg.CardID]
		if !CheckWin(g.pattern, card.Marked(g.playedSet)) {
			continue
		}
		w := models.Winner{
			CardID:     card.ID,
			CardNumber: card.Number,
			PlayerName: reg.PlayerName,
			Pattern:    g.pattern,
			SongID:     trigger,
			Round:      g.round,
			DetectedAt: g.now(),
		}
		g.armed[key] = struct{}{}
		g.winners = append(g.winners, w)
		found = append(found, w)
	}
	return found
}

// rearmLocked forgets logged wins that no longer hold, so a later re-win is logged again.
func (g *Game) rearmLocked() {
	for key := range g.armed {
		card, ok := g.cards[key.card]
		if !ok || !CheckWin(key.pattern, card.Marked(g.playedSet)) {
			delete(g.armed, key)
		}
	}
}

func (g *Game) RevealSong(songID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.songs[songID]; !ok {
		return models.NotFoundf("reveal song", "song %s not in game %s playlist", songID, g.id)
	}
	if _, ok := g.revealedSet[songID]; ok {
		return nil
	}
	g.revealed = append(g.revealed, songID)
	g.revealedSet[songID] = struct{}{}
	g.touch()
	return nil
}

// ResetRound clears plays, reveals and winners for a fresh round over the same
// cards and returns the winners that were cleared.
func (g *Game) ResetRound() []models.Winner {
	g.mu.Lock()
	defer g.mu.Unlock()
	cleared := g.winners
	if len(g.played) > 0 || len(g.revealed) > 0 || len(g.winners) > 0 {
		g.round++
	}
	g.played = nil
	g.playedSet = make(map[uuid.UUID]struct{})
	g.revealed = nil
	g.revealedSet = make(map[uuid.UUID]struct{})
	g.winners = nil
	g.armed = make(map[winnerKey]struct{})
	g.touch()
	return cleared
}

func (g *Game) Register(cardID uuid.UUID, playerName string) (models.Registration, error) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return models.Registration{}, models.Validationf("register card", "player name cannot be empty")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	card, ok := g.cards[cardID]
	if !ok {
		return models.Registration{}, models.NotFoundf("register card", "card %s not found in game %s", cardID, g.id)
	}
	if g.status == models.GameStatusCompleted {
		return models.Registration{}, models.Conflictf("register card", "game %s is completed", g.id)
	}
	reg := models.Registration{
		CardID:       cardID,
		CardNumber:   card.Number,
		PlayerName:   name,
		RegisteredAt: g.now(),
	}
	g.registrations[cardID] = reg
	g.touch()
	return reg, nil
}

func (g *Game) Registrations() []models.Registration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registrationsLocked()
}

func (g *Game) registrationsLocked() []models.Registration {
	out := make([]models.Registration, 0, len(g.registrations))
	for _, r := range g.registrations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardNumber < out[j].CardNumber })
	return out
}

// Verify checks a card against the played songs and the current pattern.
func (g *Game) Verify(cardID uuid.UUID) (models.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	card, ok := g.cards[cardID]
	if !ok {
		return models.Verification{}, models.NotFoundf("verify card", "card %s not found in game %s", cardID, g.id)
	}
	v := models.Verification{
		GameID:     g.id,
		CardID:     card.ID,
		CardNumber: card.Number,
		PlayerName: g.registrations[cardID].PlayerName,
	}
	if CheckWin(g.pattern, card.Marked(g.playedSet)) {
		p := g.pattern
		v.Winner = true
		v.Pattern = &p
	}
	return v, nil
}

func (g *Game) Card(cardID uuid.UUID) (models.Card, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.cards[cardID]
	if !ok {
		return models.Card{}, false
	}
	return cloneCard(c), true
}

// CardStatuses reports progress of every registered card towards the current pattern.
func (g *Game) CardStatuses() []models.CardStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	regs := g.registrationsLocked()
	out := make([]models.CardStatus, 0, len(regs))
	for _, reg := range regs {
		card := g.cards[reg.CardID]
		marked := card.Marked(g.playedSet)
		needed := MatchesNeeded(g.pattern, marked)
		out = append(out, models.CardStatus{
			CardID:        card.ID,
			CardNumber:    card.Number,
			PlayerName:    reg.PlayerName,
			MarkedCount:   len(marked) - 1,
			MatchesNeeded: needed,
			IsWinner:      needed == 0,
		})
	}
	return out
}

func (g *Game) View() models.GameView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return models.GameView{
		ID:            g.id,
		Name:          g.name,
		Status:        g.status,
		Pattern:       g.pattern,
		Playlist:      append([]models.Song(nil), g.playlist...),
		PlayedSongs:   append([]uuid.UUID{}, g.played...),
		RevealedSongs: append([]uuid.UUID{}, g.revealed...),
		CardCount:     len(g.cards),
		Registrations: g.registrationsLocked(),
		Winners:       append([]models.Winner{}, g.winners...),
		Prize:         g.prize,
		Round:         g.round,
		CreatedAt:     g.createdAt,
		UpdatedAt:     g.updatedAt,
	}
}

// cloneCard copies the position map so callers never share a live card's map.
func cloneCard(c models.Card) models.Card {
	positions := make(map[uuid.UUID]models.Position, len(c.Positions))
	for id, p := range c.Positions {
		positions[id] = p
	}
	c.Positions = positions
	return c
}

// Snapshot captures the durable part of the game: playlist, pattern and cards.
func (g *Game) Snapshot(name string) models.GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if name == "" {
		name = g.name
	}
	cards := make([]models.Card, 0, len(g.cards))
	for _, c := range g.cards {
		cards = append(cards, cloneCard(c))
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Number < cards[j].Number })
	return models.GameSnapshot{
		GameID:   g.id,
		Name:     name,
		Pattern:  g.pattern,
		Playlist: append([]models.Song(nil), g.playlist...),
		Cards:    cards,
	}
}
