package app

import (
	"context"

	"github.com/hylla/labgantt/internal/domain"
)

// Store is the persistence collaborator: it loads the committed board once
// per session and receives every committed snapshot.
type Store interface {
	LoadBoard(context.Context) (domain.Board, error)
	SaveBoard(context.Context, domain.Board) error
}
