package engine

import (
	"github.com/jwebster45206/faith-chronicle/pkg/board"
	"github.com/jwebster45206/faith-chronicle/pkg/story"
)

// ApplyAbilityModifier adjusts a card's movement delta for the active
// character's ability. The delta is first bounded to one board length each
// way. Only Provisioner changes movement.
func ApplyAbilityModifier(ability story.Ability, baseMove int, squareType board.SquareType) int {
	baseMove = clampDelta(baseMove)
	switch ability {
	case story.AbilityProvisioner:
		if squareType == board.SquareLadder {
			return baseMove * 2
		}
		return baseMove
	case story.AbilityGiantSlayer, story.AbilityRoyalFavor, story.AbilityInterpreterOfDreams:
		// These act on the answer in ApplyCardAnswer, not on movement.
		return baseMove
	default:
		return baseMove
	}
}

// grantsRetry reports whether a wrong answer may be retried once. Giant
// Slayer gets a second chance at a temptation faced on a snake.
func grantsRetry(ability story.Ability, squareType board.SquareType) bool {
	return ability == story.AbilityGiantSlayer && squareType == board.SquareSnake
}

// waivesPenalty reports whether the failure penalty of a temptation faced on
// a snake can be skipped. Royal Favor may do so once per epoch.
func waivesPenalty(ability story.Ability, squareType board.SquareType) bool {
	return ability == story.AbilityRoyalFavor && squareType == board.SquareSnake
}
