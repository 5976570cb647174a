package game

import (
	"fmt"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/board"
	"go.uber.org/zap"
)

const (
	// GoBonus is credited whenever a move wraps past GO.
	GoBonus = 200
	// JailFine releases a jailed player.
	JailFine = 50
	// JailSentence is the number of failed rolls before the fine is forced.
	JailSentence = 3
	// LogLimit caps the number of entries kept in State.Log.
	LogLimit = 5

	utilitySingleMultiplier = 4
	utilityPairMultiplier   = 10
)

type pendingPurchase struct {
	message     string
	squareIndex int
	playerID    string
}

// Engine is the authoritative turn state machine. Only the host runs one.
// It is not safe for concurrent use; the replication layer drives it from a
// single goroutine.
//
// Operations never fail. Calls that do not fit the current phase leave the
// state untouched apart from an explanatory log line.
type Engine struct {
	logger  *zap.Logger
	roller  Roller
	state   *State
	pending *pendingPurchase
}

// NewEngine creates an engine with no game loaded. A nil roller falls back to
// RandomRoller.
func NewEngine(logger *zap.Logger, roller Roller) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if roller == nil {
		roller = RandomRoller{}
	}
	return &Engine{logger: logger, roller: roller}
}

// State returns a copy of the current state, or nil before Initialize.
func (e *Engine) State() *State {
	return e.state.Clone()
}

// Confirmation returns the open purchase prompt, if any.
func (e *Engine) Confirmation() *Confirmation {
	if e.pending == nil {
		return nil
	}
	return &Confirmation{Message: e.pending.message}
}

// Initialize replaces the state and drops any pending confirmation.
func (e *Engine) Initialize(state *State) {
	e.state = state.Clone()
	e.pending = nil
}

// Restore loads a persisted state and re-arms the purchase prompt when the
// saved phase still allows it.
func (e *Engine) Restore(state *State, confirmation *Confirmation) {
	e.Initialize(state)
	if confirmation == nil || e.state == nil || e.state.Phase != PhaseAction {
		return
	}
	player := e.state.CurrentPlayer()
	if player == nil || player.Position < 0 || player.Position >= len(e.state.Board) {
		return
	}
	sq := e.state.Board[player.Position]
	if !sq.Purchasable() || sq.Owned() {
		return
	}
	e.pending = &pendingPurchase{
		message:     confirmation.Message,
		squareIndex: player.Position,
		playerID:    player.ID,
	}
}

// RollDice throws the dice for the current player and moves the game to
// DICE_ROLL. Movement is applied by ResolveMovement.
func (e *Engine) RollDice() {
	if !e.active() {
		return
	}
	if e.state.Phase != PhaseStartTurn {
		e.reject("бросок кубиков возможен только в начале хода")
		return
	}
	player := e.state.CurrentPlayer()
	d1, d2 := e.roller.Roll()
	e.state.Dice = [2]int{d1, d2}
	e.addLog(fmt.Sprintf("%s выбросил %d и %d", player.Name, d1, d2))

	if player.InJail {
		if !e.rollInJail(player, d1 == d2) {
			return
		}
	}
	e.state.Phase = PhaseDiceRoll
}

// rollInJail applies a throw made from jail and reports whether the player
// moves this turn.
func (e *Engine) rollInJail(player *Player, doubles bool) bool {
	if doubles {
		player.InJail = false
		player.JailTurns = 0
		e.addLog(fmt.Sprintf("%s выходит из тюрьмы по дублю", player.Name))
		return true
	}
	player.JailTurns--
	if player.JailTurns > 0 {
		e.addLog(fmt.Sprintf("%s остаётся в тюрьме", player.Name))
		e.nextTurn()
		return false
	}
	player.InJail = false
	player.JailTurns = 0
	player.Money -= JailFine
	e.addLog(fmt.Sprintf("%s платит штраф $%d и выходит из тюрьмы", player.Name, JailFine))
	if e.settleBankruptcy(player) {
		e.nextTurn()
		return false
	}
	return true
}

// ResolveMovement moves the current player by the last roll and resolves the
// square they land on.
func (e *Engine) ResolveMovement() {
	if !e.active() || e.state.Phase != PhaseDiceRoll {
		return
	}
	player := e.state.CurrentPlayer()
	size := len(e.state.Board)
	steps := e.state.Dice[0] + e.state.Dice[1]

	from := player.Position
	to := (from + steps) % size
	if to < from {
		player.Money += GoBonus
		e.addLog(fmt.Sprintf("%s проходит Старт и получает $%d", player.Name, GoBonus))
	}
	player.Position = to
	e.addLog(fmt.Sprintf("%s попадает на «%s»", player.Name, e.state.Board[to].Name))

	e.landOn(player, to)
}

func (e *Engine) landOn(player *Player, index int) {
	sq := &e.state.Board[index]

	switch {
	case sq.Purchasable() && !sq.Owned():
		e.state.Phase = PhaseAction
		return

	case sq.Purchasable() && sq.OwnedBy(player.ID):
		// own square

	case sq.Purchasable():
		owner := e.state.PlayerByID(*sq.OwnerID)
		if owner != nil {
			amount := e.rentFor(sq, owner.ID)
			player.Money -= amount
			owner.Money += amount
			e.addLog(fmt.Sprintf("%s платит $%d игроку %s", player.Name, amount, owner.Name))
			e.settleBankruptcy(player)
		}

	case sq.Kind == board.KindTax:
		player.Money -= sq.Amount
		e.addLog(fmt.Sprintf("%s платит налог $%d", player.Name, sq.Amount))
		e.settleBankruptcy(player)

	case sq.Kind == board.KindGoToJail:
		e.sendToJail(player)
	}

	e.nextTurn()
}

func (e *Engine) sendToJail(player *Player) {
	player.Position = board.JailIndex
	player.InJail = true
	player.JailTurns = JailSentence
	e.addLog(fmt.Sprintf("%s отправляется в тюрьму", player.Name))
}

// BuyProperty opens a purchase prompt for the square the current player
// stands on.
func (e *Engine) BuyProperty() {
	if !e.active() {
		return
	}
	if e.state.Phase != PhaseAction {
		e.reject("покупка возможна только после хода")
		return
	}
	player := e.state.CurrentPlayer()
	sq := e.state.Board[player.Position]
	if !sq.Purchasable() || sq.Owned() {
		e.reject(fmt.Sprintf("«%s» нельзя купить", sq.Name))
		return
	}
	if player.Money < sq.Price {
		e.addLog(fmt.Sprintf("%s не хватает денег на «%s»", player.Name, sq.Name))
		return
	}
	e.pending = &pendingPurchase{
		message:     fmt.Sprintf("Купить \"%s\" за $%d?", sq.Name, sq.Price),
		squareIndex: player.Position,
		playerID:    player.ID,
	}
}

// ConfirmAction answers the open purchase prompt and ends the turn. Without a
// prompt it does nothing.
func (e *Engine) ConfirmAction(confirmed bool) {
	if !e.active() || e.pending == nil {
		return
	}
	offer := e.pending
	e.pending = nil

	player := e.state.PlayerByID(offer.playerID)
	sq := &e.state.Board[offer.squareIndex]
	switch {
	case player == nil:
	case !confirmed:
		e.addLog(fmt.Sprintf("%s отказывается от покупки «%s»", player.Name, sq.Name))
	case sq.Owned() || player.Money < sq.Price:
		e.addLog(fmt.Sprintf("%s не хватает денег на «%s»", player.Name, sq.Name))
	default:
		player.Money -= sq.Price
		sq.SetOwner(player.ID)
		e.addLog(fmt.Sprintf("%s покупает «%s» за $%d", player.Name, sq.Name, sq.Price))
	}
	e.nextTurn()
}

// EndTurn passes the turn from ACTION, discarding any open prompt. In any other
// phase it does nothing.
func (e *Engine) EndTurn() {
	if !e.active() || e.state.Phase != PhaseAction {
		return
	}
	e.pending = nil
	e.nextTurn()
}

// PayJailFine buys a jailed player out before they roll.
func (e *Engine) PayJailFine() {
	if !e.active() {
		return
	}
	player := e.state.CurrentPlayer()
	if e.state.Phase != PhaseStartTurn || !player.InJail {
		e.reject("штраф можно заплатить только из тюрьмы в начале хода")
		return
	}
	if player.Money < JailFine {
		e.addLog(fmt.Sprintf("%s не хватает денег на штраф", player.Name))
		return
	}
	player.Money -= JailFine
	player.InJail = false
	player.JailTurns = 0
	e.addLog(fmt.Sprintf("%s платит штраф $%d и выходит из тюрьмы", player.Name, JailFine))
}

// nextTurn hands the turn to the next solvent player or ends the game.
func (e *Engine) nextTurn() {
	solvent := make([]int, 0, len(e.state.Players))
	for i, p := range e.state.Players {
		if !p.Bankrupt() {
			solvent = append(solvent, i)
		}
	}

	if len(solvent) <= 1 {
		e.state.Phase = PhaseGameOver
		e.pending = nil
		if len(solvent) == 1 {
			winner := e.state.Players[solvent[0]]
			e.state.Winner = &winner
			e.addLog(fmt.Sprintf("%s побеждает!", winner.Name))
		}
		e.logger.Info("game over", zap.Int("solvent_players", len(solvent)))
		return
	}

	n := len(e.state.Players)
	next := e.state.CurrentPlayerIndex
	for i := 0; i < n; i++ {
		next = (next + 1) % n
		if !e.state.Players[next].Bankrupt() {
			break
		}
	}
	e.state.CurrentPlayerIndex = next
	e.state.Phase = PhaseStartTurn
}

// settleBankruptcy returns a player's holdings to the bank once their money
// goes negative. It reports whether the player is bankrupt.
func (e *Engine) settleBankruptcy(player *Player) bool {
	if !player.Bankrupt() {
		return false
	}
	released := 0
	for i := range e.state.Board {
		if e.state.Board[i].OwnedBy(player.ID) {
			e.state.Board[i].Release()
			released++
		}
	}
	e.addLog(fmt.Sprintf("%s обанкротился", player.Name))
	e.logger.Info("player bankrupt",
		zap.String("player_id", player.ID),
		zap.Int("money", player.Money),
		zap.Int("released_squares", released),
	)
	return true
}

func (e *Engine) active() bool {
	return e.state != nil && len(e.state.Players) > 0 && e.state.Phase != PhaseGameOver
}

func (e *Engine) reject(reason string) {
	e.addLog("Действие недоступно: " + reason)
	e.logger.Debug("engine intent rejected",
		zap.String("phase", e.state.Phase.String()),
		zap.String("reason", reason),
	)
}

func (e *Engine) addLog(entry string) {
	e.state.Log = append([]string{entry}, e.state.Log...)
	if len(e.state.Log) > LogLimit {
		e.state.Log = e.state.Log[:LogLimit]
	}
}
