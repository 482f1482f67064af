package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/paircade/couples-tournament/internal/models"
)

// RecordGameResults persists the final outcome of a finished game: the game
// row plus one result row per team. Safe to call more than once; later
// writes upsert.
func RecordGameResults(ctx context.Context, gameID uuid.UUID, roomCode string, roundsPlayed int, teams []*models.Team, playerNames map[uuid.UUID]string) error {
	if !Enabled() {
		return nil
	}

	var winnerID uuid.UUID
	best := -1
	for _, t := range teams {
		if t.Score > best {
			best = t.Score
			winnerID = t.ID
		}
	}

	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, room_code, rounds_played, status)
			VALUES ($1, $2, $3, 'completed')
			ON CONFLICT (id) DO UPDATE SET rounds_played = $3, status = 'completed'
		`
		if _, e := tx.Exec(ctx, upsertGame, gameID, roomCode, roundsPlayed); e != nil {
			return e
		}

		for _, t := range teams {
			q := `
				INSERT INTO team_results (game_id, team_id, player1_name, player2_name, score, did_win)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (game_id, team_id)
				DO UPDATE SET score = $5, did_win = $6
			`
			if _, e := tx.Exec(ctx, q,
				gameID, t.ID,
				playerNames[t.Player1ID], playerNames[t.Player2ID],
				t.Score, t.ID == winnerID,
			); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game or team results: %w", err)
	}
	return nil
}
