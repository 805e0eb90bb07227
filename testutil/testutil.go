// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package testutil provides an in-memory database and HTTP helpers for
// handler and router tests.
package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/hashdraw/auth"
	"github.com/danielhkuo/hashdraw/cliparse"
	"github.com/danielhkuo/hashdraw/db"
	"github.com/danielhkuo/hashdraw/draw"
)

// SetupTestDB returns a fresh in-memory SQLite database with the full schema.
// It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(cliparse.DatabaseSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseType:    cliparse.DatabaseSQLite,
		DatabaseURL:     ":memory:",
		AdminKeySalt:    "test-admin-salt",
		DrawSlugSalt:    "test-slug-salt",
		Algorithm:       draw.MD5,
		DisplayCap:      draw.DefaultDisplayCap,
		MaxParticipants: 1000,
		BaseURL:         "http://localhost:3318",
	}
}

// CreateTestDraw inserts a draw with the given status and returns its ID,
// admin key and share slug. The slug is empty for drafts.
func CreateTestDraw(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string, count int) (drawID, adminKey, shareSlug string) {
	t.Helper()

	drawID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(drawID, cfg.AdminKeySalt)

	var slug *string
	if status == "open" || status == "closed" {
		s := auth.GenerateShareSlug(drawID, cfg.DrawSlugSalt)
		slug = &s
		shareSlug = s
	}

	_, err := conn.Exec(`
		INSERT INTO draw (id, title, description, creator_name, algorithm, winner_count, status, share_slug, created_at)
		VALUES ($1, 'Test Draw', 'A test draw', 'TestUser', $2, $3, $4, $5, $6)
	`, drawID, cfg.Algorithm.String(), count, status, slug, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test draw: %v", err)
	}

	return drawID, adminKey, shareSlug
}

// CommitTestDraw records the digest of seed under the draw's algorithm as
// its seed commitment, as PublishDraw would.
func CommitTestDraw(t *testing.T, conn *sql.DB, drawID, seed string) string {
	t.Helper()

	var name string
	if err := conn.QueryRow("SELECT algorithm FROM draw WHERE id = $1", drawID).Scan(&name); err != nil {
		t.Fatalf("Failed to read draw algorithm: %v", err)
	}
	algo, err := draw.ParseAlgorithm(name)
	if err != nil {
		t.Fatalf("Failed to parse algorithm: %v", err)
	}
	commitment, err := algo.Digest(seed)
	if err != nil {
		t.Fatalf("Failed to digest seed: %v", err)
	}

	if _, err := conn.Exec("UPDATE draw SET seed_commitment = $1 WHERE id = $2", commitment, drawID); err != nil {
		t.Fatalf("Failed to commit test draw: %v", err)
	}
	return commitment
}

// AddTestParticipants appends names to a draw in order, bypassing the
// lifecycle checks.
func AddTestParticipants(t *testing.T, conn *sql.DB, drawID string, names ...string) {
	t.Helper()

	var next int
	err := conn.QueryRow(`
		SELECT COALESCE(MAX(position), -1) + 1 FROM draw_participant WHERE draw_id = $1
	`, drawID).Scan(&next)
	if err != nil {
		t.Fatalf("Failed to read next position: %v", err)
	}

	for i, name := range names {
		_, err := conn.Exec(`
			INSERT INTO draw_participant (draw_id, position, name, created_at)
			VALUES ($1, $2, $3, $4)
		`, drawID, next+i, name, time.Now().UTC())
		if err != nil {
			t.Fatalf("Failed to add test participant: %v", err)
		}
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
