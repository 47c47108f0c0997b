// internal/uno/game.go
package uno

import (
	"log"
	"time"

	"github.com/google/uuid"

	"partyhub/internal/host"
)

// StartGame deals and begins play. Host-only, requires at least two
// seated players, rejected while a game is already running.
func (r *Room) StartGame(userID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State == StatePlaying {
		return ErrGameInProgress
	}
	if r.HostID != userID {
		return ErrNotHost
	}
	if r.seatedCountLocked() < 2 {
		return ErrInsufficientPlayers
	}

	deck := NewDeck()
	Shuffle(deck)

	r.State = StatePlaying
	r.Deck = deck
	r.Discard = nil
	r.Hands = make(map[uuid.UUID][]Card)
	r.Called = make(map[uuid.UUID]bool)
	r.Current = 0
	r.Direction = 1
	r.PendingDraw = 0

	for _, p := range r.Seats {
		if p == nil {
			continue
		}
		hand := make([]Card, 0, initialHandSize)
		for i := 0; i < initialHandSize; i++ {
			card, err := r.drawOneLocked()
			if err != nil {
				// Cannot happen with a full deck; guard anyway.
				log.Printf("uno: room %s: deal interrupted: %v", r.ID, err)
				break
			}
			hand = append(hand, card)
		}
		r.Hands[p.ID] = hand
	}

	// Flip the first discard, redrawing past wild kinds. Skipped wilds go
	// back under the deck so the full-deck multiset stays intact.
	var first Card
	for {
		c := r.Deck[len(r.Deck)-1]
		r.Deck = r.Deck[:len(r.Deck)-1]
		if !c.IsWild() {
			first = c
			break
		}
		r.Deck = append([]Card{c}, r.Deck...)
	}
	r.Discard = append(r.Discard, first)
	r.ActiveColor = first.Color

	// The revealed card acts as if pre-played before the first real turn.
	switch first.Kind {
	case KindSkip:
		r.advanceLocked()
	case KindReverse:
		r.Direction = -1
		r.advanceLocked()
	case KindDrawTwo:
		if p := r.currentPlayerLocked(); p != nil {
			r.drawIntoHandLocked(*p, 2, true)
		}
		r.advanceLocked()
	}

	for _, p := range r.Seats {
		if p == nil {
			continue
		}
		r.fireTo(p.ID, host.Event{Type: EventGameStarted, Data: GameStartedData{
			Room: r.snapshotLocked(),
			Hand: r.Hands[p.ID],
		}})
	}
	for id := range r.Spectators {
		r.fireTo(id, host.Event{Type: EventGameStarted, Data: GameStartedData{
			Room: r.snapshotLocked(),
		}})
	}

	r.scheduleTurnTimerLocked()
	return nil
}

// PlayCard validates and applies a play by the acting player. All
// preconditions are checked before any mutation so a rejection never
// leaves partial state.
func (r *Room) PlayCard(userID uuid.UUID, cardID uuid.UUID, chosenColor Color) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StatePlaying {
		return ErrGameNotInProgress
	}
	cur := r.currentPlayerLocked()
	if cur == nil || cur.ID != userID {
		return ErrNotYourTurn
	}

	hand := r.Hands[userID]
	cardIdx := -1
	for i, c := range hand {
		if c.ID == cardID {
			cardIdx = i
			break
		}
	}
	if cardIdx < 0 {
		return ErrCardNotInHand
	}
	card := hand[cardIdx]

	ok, err := Playable(card, r.topDiscardLocked(), r.ActiveColor, r.PendingDraw)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCardNotPlayable
	}
	if card.IsWild() && !validPlayColor(chosenColor) {
		return ErrColorChoiceRequired
	}

	// Preconditions hold; mutate.
	r.Hands[userID] = append(hand[:cardIdx], hand[cardIdx+1:]...)
	r.Discard = append(r.Discard, card)
	if card.IsWild() {
		r.ActiveColor = chosenColor
	} else {
		r.ActiveColor = card.Color
	}

	r.stopTurnTimerLocked()

	r.fire(host.Event{Type: EventCardPlayed, Data: CardPlayedData{
		User:         *cur,
		Card:         card,
		CurrentColor: r.ActiveColor,
		HandSize:     len(r.Hands[userID]),
	}})

	if len(r.Hands[userID]) == 0 {
		r.endGameLocked(cur)
		return nil
	}
	if len(r.Hands[userID]) > 1 {
		r.Called[userID] = false
	}

	r.applyEffectLocked(card)
	r.startTurnLocked()
	return nil
}

// DrawCard draws for the acting player and ends their turn; there is no
// draw-then-play in the same action. With a penalty pending, drawing
// resolves the whole accumulated penalty instead of a single card.
func (r *Room) DrawCard(userID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StatePlaying {
		return ErrGameNotInProgress
	}
	cur := r.currentPlayerLocked()
	if cur == nil || cur.ID != userID {
		return ErrNotYourTurn
	}

	r.stopTurnTimerLocked()

	if r.PendingDraw > 0 {
		r.forceDrawPendingLocked(*cur)
		r.startTurnLocked()
		return nil
	}

	card, err := r.drawOneLocked()
	if err != nil {
		// Systemic anomaly: under card conservation there is always
		// something to reshuffle. Recover by passing the turn.
		log.Printf("uno: room %s: draw failed: %v", r.ID, err)
		r.advanceLocked()
		r.startTurnLocked()
		return err
	}
	r.Hands[userID] = append(r.Hands[userID], card)
	if len(r.Hands[userID]) > 1 {
		r.Called[userID] = false
	}

	r.fireTo(userID, host.Event{Type: EventCardsDrawn, Data: CardsDrawnData{Cards: []Card{card}}})
	r.fire(host.Event{Type: EventCardDrawn, Data: CardDrawnData{
		User:      *cur,
		CardCount: 1,
		HandSize:  len(r.Hands[userID]),
		UnoCalled: r.Called[userID],
	}})

	r.advanceLocked()
	r.startTurnLocked()
	return nil
}

// CallUno sets the caller's final-card flag. Valid only with exactly one
// card in hand; broadcast-only otherwise.
func (r *Room) CallUno(userID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StatePlaying {
		return ErrGameNotInProgress
	}
	hand, ok := r.Hands[userID]
	if !ok || len(hand) != 1 {
		return ErrCannotCall
	}
	r.Called[userID] = true

	idx := r.seatIndexLocked(userID)
	if idx < 0 {
		return ErrCannotCall
	}
	r.fire(host.Event{Type: EventUnoCalled, Data: UnoCalledData{User: *r.Seats[idx]}})
	return nil
}

// CatchUno accuses target of holding one card without calling. On
// success the target draws a fixed penalty; a failed accusation is
// rejected with no penalty to the accuser.
func (r *Room) CatchUno(accuserID, targetID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StatePlaying {
		return ErrGameNotInProgress
	}
	targetIdx := r.seatIndexLocked(targetID)
	if targetIdx < 0 {
		return ErrNothingToCatch
	}
	target := *r.Seats[targetIdx]
	if len(r.Hands[targetID]) != 1 || r.Called[targetID] {
		return ErrNothingToCatch
	}

	drawn := r.drawIntoHandLocked(target, catchPenalty, false)
	r.Called[targetID] = false

	accuser := Player{ID: accuserID}
	if idx := r.seatIndexLocked(accuserID); idx >= 0 {
		accuser = *r.Seats[idx]
	} else if s, ok := r.Spectators[accuserID]; ok {
		accuser = s
	}
	r.fire(host.Event{Type: EventUnoCaught, Data: UnoCaughtData{
		Accuser:     accuser,
		Target:      target,
		Penalty:     drawn,
		NewHandSize: len(r.Hands[targetID]),
	}})
	return nil
}

// Reset returns a finished room to the waiting state, preserving the
// remaining roster and settings while clearing all game state. Vacated
// seats are compacted; their users rejoin as new players.
func (r *Room) Reset(userID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State == StatePlaying {
		return ErrGameInProgress
	}
	if r.State != StateFinished {
		return ErrGameNotInProgress
	}
	if r.HostID != userID {
		return ErrNotHost
	}

	seats := r.Seats[:0]
	for _, p := range r.Seats {
		if p != nil {
			seats = append(seats, p)
		}
	}
	r.Seats = seats

	r.State = StateWaiting
	r.Deck = nil
	r.Discard = nil
	r.Hands = nil
	r.Called = nil
	r.Current = 0
	r.Direction = 1
	r.ActiveColor = ""
	r.PendingDraw = 0
	r.stopTurnTimerLocked()

	r.fire(host.Event{Type: EventGameReset, Data: GameResetData{Room: r.snapshotLocked()}})
	return nil
}

func validPlayColor(c Color) bool {
	for _, pc := range PlayColors {
		if c == pc {
			return true
		}
	}
	return false
}

// applyEffectLocked resolves a just-played card's effect, moving the
// current-player index as the effect dictates. The caller broadcasts the
// resulting turn once afterwards. Assumes lock is held.
func (r *Room) applyEffectLocked(card Card) {
	switch card.Kind {
	case KindSkip:
		r.advanceLocked()
		r.advanceLocked()
	case KindReverse:
		r.Direction = -r.Direction
		// With two seats a reverse acts as a skip.
		if r.seatedCountLocked() == 2 {
			r.advanceLocked()
		}
		r.advanceLocked()
	case KindDrawTwo:
		r.PendingDraw += 2
		r.advanceLocked()
		r.resolvePendingLocked(KindDrawTwo)
	case KindWildDrawFour:
		r.PendingDraw += 4
		r.advanceLocked()
		r.resolvePendingLocked(KindWildDrawFour)
	default:
		r.advanceLocked()
	}
}

// resolvePendingLocked forces the new current player to draw the
// accumulated penalty unless stacking is enabled and they hold a card of
// the same penalty kind. Assumes lock is held.
func (r *Room) resolvePendingLocked(kind Kind) {
	cur := r.currentPlayerLocked()
	if cur == nil {
		return
	}
	if r.Settings.StackingDraw {
		for _, c := range r.Hands[cur.ID] {
			if c.Kind == kind {
				return // they may answer with their own penalty card
			}
		}
	}
	r.forceDrawPendingLocked(*cur)
}

// forceDrawPendingLocked resolves the entire pending penalty against a
// player and passes their turn. Assumes lock is held.
func (r *Room) forceDrawPendingLocked(p Player) {
	count := r.PendingDraw
	r.PendingDraw = 0
	r.drawIntoHandLocked(p, count, true)
	r.advanceLocked()
}

// drawIntoHandLocked draws up to count cards into p's hand, reshuffling
// the discard pile as needed, and fires the private and public draw
// events. Returns the number actually drawn, which falls short only on
// deck exhaustion. Assumes lock is held.
func (r *Room) drawIntoHandLocked(p Player, count int, penalty bool) int {
	var drawn []Card
	for i := 0; i < count; i++ {
		card, err := r.drawOneLocked()
		if err != nil {
			log.Printf("uno: room %s: penalty draw stopped short: %v", r.ID, err)
			break
		}
		drawn = append(drawn, card)
	}
	if len(drawn) == 0 {
		return 0
	}
	r.Hands[p.ID] = append(r.Hands[p.ID], drawn...)
	if len(r.Hands[p.ID]) > 1 {
		r.Called[p.ID] = false
	}
	r.fireTo(p.ID, host.Event{Type: EventCardsDrawn, Data: CardsDrawnData{Cards: drawn}})
	r.fire(host.Event{Type: EventCardDrawn, Data: CardDrawnData{
		User:      p,
		CardCount: len(drawn),
		HandSize:  len(r.Hands[p.ID]),
		Penalty:   penalty,
		UnoCalled: r.Called[p.ID],
	}})
	return len(drawn)
}

// drawOneLocked pops the top deck card, reshuffling the discard pile
// (minus its top card) into a fresh deck when empty. Returns
// ErrDeckExhausted when no cards exist to draw. Assumes lock is held.
func (r *Room) drawOneLocked() (Card, error) {
	if len(r.Deck) == 0 {
		if len(r.Discard) <= 1 {
			return Card{}, ErrDeckExhausted
		}
		top := r.Discard[len(r.Discard)-1]
		r.Deck = append(r.Deck, r.Discard[:len(r.Discard)-1]...)
		r.Discard = []Card{top}
		Shuffle(r.Deck)
		log.Printf("uno: room %s: reshuffled discard pile into deck (%d cards)", r.ID, len(r.Deck))
	}
	card := r.Deck[len(r.Deck)-1]
	r.Deck = r.Deck[:len(r.Deck)-1]
	return card, nil
}

// advanceLocked moves the current-player index one step in the turn
// direction, wrapping and skipping vacated seats, bounded to one full lap
// so an all-empty seat list cannot loop forever. Assumes lock is held.
func (r *Room) advanceLocked() {
	n := len(r.Seats)
	if n == 0 {
		return
	}
	step := func() {
		r.Current = (r.Current + r.Direction + n) % n
	}
	step()
	for attempts := 0; r.Seats[r.Current] == nil && attempts < n; attempts++ {
		step()
	}
}

// startTurnLocked announces the (already advanced) current turn and arms
// the turn clock. Assumes lock is held.
func (r *Room) startTurnLocked() {
	if r.State != StatePlaying {
		return
	}
	cur := r.currentPlayerLocked()
	if cur == nil {
		return
	}
	r.fire(host.Event{Type: EventTurnChanged, Data: TurnChangedData{
		CurrentPlayer:      cur.ID,
		CurrentPlayerIndex: r.Current,
		TurnDirection:      r.Direction,
		PendingDraw:        r.PendingDraw,
		CurrentColor:       r.ActiveColor,
		TopCard:            r.topDiscardLocked(),
	}})
	r.scheduleTurnTimerLocked()
}

// scheduleTurnTimerLocked arms the turn clock, atomically replacing any
// prior timer. Each schedule bumps the turn serial; a fired callback that
// observes a different serial is stale and must not touch state. Assumes
// lock is held.
func (r *Room) scheduleTurnTimerLocked() {
	if r.Settings.TurnTimer <= 0 {
		return
	}
	r.stopTurnTimerLocked()
	serial := r.turnSerial
	r.turnTimer = time.AfterFunc(time.Duration(r.Settings.TurnTimer)*time.Second, func() {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		if r.turnSerial != serial || r.State != StatePlaying {
			return
		}
		r.handleTurnTimeoutLocked()
	})
}

// stopTurnTimerLocked cancels any armed timer and invalidates callbacks
// already in flight. Assumes lock is held.
func (r *Room) stopTurnTimerLocked() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	r.turnSerial++
}

// handleTurnTimeoutLocked is the liveness guarantee against stalled
// clients: the current player is forced to draw and the turn moves on.
// Assumes lock is held.
func (r *Room) handleTurnTimeoutLocked() {
	cur := r.currentPlayerLocked()
	if cur == nil {
		r.advanceLocked()
		r.startTurnLocked()
		return
	}
	log.Printf("uno: room %s: turn timeout for %s", r.ID, cur.ID)

	r.stopTurnTimerLocked()

	if r.PendingDraw > 0 {
		r.forceDrawPendingLocked(*cur)
		r.startTurnLocked()
		return
	}

	if card, err := r.drawOneLocked(); err != nil {
		log.Printf("uno: room %s: timeout draw failed: %v", r.ID, err)
	} else {
		r.Hands[cur.ID] = append(r.Hands[cur.ID], card)
		if len(r.Hands[cur.ID]) > 1 {
			r.Called[cur.ID] = false
		}
		r.fireTo(cur.ID, host.Event{Type: EventCardsDrawn, Data: CardsDrawnData{Cards: []Card{card}}})
	}
	r.fire(host.Event{Type: EventTurnTimeout, Data: TurnTimeoutData{
		User:      *cur,
		HandSize:  len(r.Hands[cur.ID]),
		UnoCalled: r.Called[cur.ID],
	}})

	r.advanceLocked()
	r.startTurnLocked()
}

// endGameLocked finishes the game, computing the winner's score as the
// sum of every opponent's residual hand. A nil winner (too few players
// remained) scores zero. Assumes lock is held.
func (r *Room) endGameLocked(winner *Player) {
	r.State = StateFinished
	r.stopTurnTimerLocked()

	score := 0
	if winner != nil {
		for id, hand := range r.Hands {
			if id == winner.ID {
				continue
			}
			for _, c := range hand {
				score += c.Score()
			}
		}
	}
	r.fire(host.Event{Type: EventGameWon, Data: GameWonData{Winner: winner, Score: score}})

	if r.OnGameEnd != nil {
		participants := make([]uuid.UUID, 0, len(r.Seats))
		for _, p := range r.Seats {
			if p != nil {
				participants = append(participants, p.ID)
			}
		}
		winnerID := uuid.Nil
		if winner != nil {
			winnerID = winner.ID
		}
		go r.OnGameEnd(participants, winnerID)
	}
}
