package game

import (
	"testing"

	"github.com/corentings/chess/v2"
)

func startPosition() *chess.Position {
	return chess.NewGame().Position()
}

func TestAppendPromotionIfPawnRank8(t *testing.T) {
	if got := AppendPromotionIfPawn(startPosition(), "a7a8"); got != "a7a8q" {
		t.Fatalf("expected a7a8q got %s", got)
	}
}

func TestAppendPromotionIfPawnRank1(t *testing.T) {
	if got := AppendPromotionIfPawn(startPosition(), "a7a1"); got != "a7a1q" {
		t.Fatalf("expected a7a1q got %s", got)
	}
}

func TestNoPromotionForQueen(t *testing.T) {
	if got := AppendPromotionIfPawn(startPosition(), "d1d8"); got != "d1d8" {
		t.Fatalf("queen move modified: %s", got)
	}
}

func TestNoPromotionForRook(t *testing.T) {
	if got := AppendPromotionIfPawn(startPosition(), "a8a1"); got != "a8a1" {
		t.Fatalf("rook move modified: %s", got)
	}
}

func TestNoPromotionWhenPieceNamed(t *testing.T) {
	if got := AppendPromotionIfPawn(startPosition(), "a7a8r"); got != "a7a8r" {
		t.Fatalf("explicit promotion modified: %s", got)
	}
}
