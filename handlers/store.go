// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/danielhkuo/hashdraw/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

const drawColumns = `
	id, title, description, creator_name, algorithm, winner_count, status,
	share_slug, seed_commitment, seed_source, seed, seed_digest, closed_at,
	final_snapshot_id, created_at`

func scanDraw(row *sql.Row) (models.Draw, error) {
	var d models.Draw
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.CreatorName, &d.Algorithm, &d.Count, &d.Status,
		&d.ShareSlug, &d.SeedCommitment, &d.SeedSource, &d.Seed, &d.SeedDigest, &d.ClosedAt, &d.FinalSnapshotID, &d.CreatedAt,
	)
	return d, err
}

func getDrawByID(q queryer, id string) (models.Draw, error) {
	return scanDraw(q.QueryRow(`SELECT `+drawColumns+` FROM draw WHERE id = $1`, id))
}

func getDrawBySlug(q queryer, slug string) (models.Draw, error) {
	return scanDraw(q.QueryRow(`SELECT `+drawColumns+` FROM draw WHERE share_slug = $1`, slug))
}

// getParticipants returns every participant of a draw in entry order.
// Rows are fully drained before returning so the connection is free again.
func getParticipants(q queryer, drawID string) ([]models.Participant, error) {
	rows, err := q.Query(`
		SELECT position, name, entry_token, ip_hash, created_at
		FROM draw_participant
		WHERE draw_id = $1
		ORDER BY position
	`, drawID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.Position, &p.Name, &p.EntryToken, &p.IPHash, &p.CreatedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

func participantNames(participants []models.Participant) []string {
	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.Name
	}
	return names
}

func countParticipants(q queryer, drawID string) (int, error) {
	var n int
	err := q.QueryRow(`SELECT COUNT(*) FROM draw_participant WHERE draw_id = $1`, drawID).Scan(&n)
	return n, err
}

func nextPosition(q queryer, drawID string) (int, error) {
	var next int
	err := q.QueryRow(`
		SELECT COALESCE(MAX(position), -1) + 1 FROM draw_participant WHERE draw_id = $1
	`, drawID).Scan(&next)
	return next, err
}

// lockDraw takes a write lock on the draw row if it is still in the given
// status. Concurrent writers touching the same draw queue behind it and see
// the committed status once it is released. Returns false if the draw is
// not (or no longer) in that status.
func lockDraw(tx *sql.Tx, drawID, status string) (bool, error) {
	res, err := tx.Exec(`UPDATE draw SET status = status WHERE id = $1 AND status = $2`, drawID, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// getSnapshot loads a stored result snapshot with its full ranking.
func getSnapshot(q queryer, snapshotID string) (models.ResultSnapshot, error) {
	var snapshot models.ResultSnapshot
	var payload string
	err := q.QueryRow(`
		SELECT id, draw_id, algorithm, computed_at, payload
		FROM result_snapshot
		WHERE id = $1
	`, snapshotID).Scan(&snapshot.ID, &snapshot.DrawID, &snapshot.Algorithm, &snapshot.ComputedAt, &payload)
	if err != nil {
		return models.ResultSnapshot{}, err
	}

	// The row columns are authoritative for identity fields
	id, drawID, algorithm, computedAt := snapshot.ID, snapshot.DrawID, snapshot.Algorithm, snapshot.ComputedAt
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("failed to parse snapshot payload: %w", err)
	}
	snapshot.ID, snapshot.DrawID, snapshot.Algorithm, snapshot.ComputedAt = id, drawID, algorithm, computedAt

	return snapshot, nil
}
