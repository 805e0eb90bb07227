// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/hashdraw/auth"
	"github.com/danielhkuo/hashdraw/draw"
	"github.com/danielhkuo/hashdraw/metrics"
	"github.com/danielhkuo/hashdraw/models"
	"github.com/danielhkuo/hashdraw/testutil"
)

func adminRequest(method, path, drawID, adminKey string, body interface{}) *http.Request {
	req := testutil.MakeRequest(method, path, body, map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", drawID)
	return req
}

func TestCreateDraw(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewLifecycleHandler(db, cfg, metrics.New())

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(t *testing.T, resp *models.CreateDrawResponse)
	}{
		{
			name: "valid draw",
			requestBody: models.CreateDrawRequest{
				Title:       "Raffle",
				Description: "Monthly raffle",
				CreatorName: "Alice",
				Count:       3,
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.CreateDrawResponse) {
				if resp.AdminKey != auth.GenerateAdminKey(resp.DrawID, cfg.AdminKeySalt) {
					t.Error("Admin key does not match expected value")
				}

				var status, algorithm string
				var count int
				err := db.QueryRow("SELECT status, algorithm, winner_count FROM draw WHERE id = $1", resp.DrawID).
					Scan(&status, &algorithm, &count)
				if err != nil {
					t.Fatalf("Failed to query draw: %v", err)
				}
				if status != models.StatusDraft || algorithm != "md5" || count != 3 {
					t.Errorf("Unexpected row: status=%s algorithm=%s count=%d", status, algorithm, count)
				}
			},
		},
		{
			name: "explicit algorithm",
			requestBody: models.CreateDrawRequest{
				Title:       "Raffle",
				CreatorName: "Alice",
				Count:       1,
				Algorithm:   "blake3",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.CreateDrawResponse) {
				var algorithm string
				db.QueryRow("SELECT algorithm FROM draw WHERE id = $1", resp.DrawID).Scan(&algorithm)
				if algorithm != "blake3" {
					t.Errorf("Expected blake3, got %s", algorithm)
				}
			},
		},
		{
			name:           "missing title",
			requestBody:    models.CreateDrawRequest{CreatorName: "Alice", Count: 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing creator name",
			requestBody:    models.CreateDrawRequest{Title: "Raffle", Count: 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "zero count",
			requestBody:    models.CreateDrawRequest{Title: "Raffle", CreatorName: "Alice"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown algorithm",
			requestBody:    models.CreateDrawRequest{Title: "Raffle", CreatorName: "Alice", Count: 1, Algorithm: "md4"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.CreateDraw(w, testutil.MakeRequest("POST", "/draws", tt.requestBody, nil))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.checkResponse != nil && w.Code == http.StatusCreated {
				var resp models.CreateDrawResponse
				testutil.AssertJSON(t, w, &resp)
				tt.checkResponse(t, &resp)
			}
		})
	}
}

func TestGetDrawAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewLifecycleHandler(db, cfg, metrics.New())

	drawID, adminKey, _ := testutil.CreateTestDraw(t, db, cfg, models.StatusDraft, 1)
	testutil.AddTestParticipants(t, db, drawID, "Alice", "Bob")

	missingID := "doesnotexist0000"
	tests := []struct {
		name           string
		drawID         string
		adminKey       string
		expectedStatus int
	}{
		{"valid admin key", drawID, adminKey, http.StatusOK},
		{"wrong admin key", drawID, "wrong", http.StatusUnauthorized},
		{"missing admin key", drawID, "", http.StatusUnauthorized},
		{"unknown draw", missingID, auth.GenerateAdminKey(missingID, cfg.AdminKeySalt), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.GetDrawAdmin(w, adminRequest("GET", "/draws/"+tt.drawID+"/admin", tt.drawID, tt.adminKey, nil))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if w.Code != http.StatusOK {
				return
			}
			var resp models.DrawWithParticipants
			testutil.AssertJSON(t, w, &resp)
			if resp.Draw.ID != drawID || len(resp.Participants) != 2 {
				t.Errorf("Unexpected response: %+v", resp)
			}
			if resp.Participants[0].Name != "Alice" || resp.Participants[1].Position != 1 {
				t.Errorf("Participants out of order: %+v", resp.Participants)
			}
		})
	}
}

func TestAddParticipants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	cfg.MaxParticipants = 5
	handler := NewLifecycleHandler(db, cfg, metrics.New())

	draftID, draftKey, _ := testutil.CreateTestDraw(t, db, cfg, models.StatusDraft, 1)
	openID, openKey, _ := testutil.CreateTestDraw(t, db, cfg, models.StatusOpen, 1)

	tests := []struct {
		name           string
		drawID         string
		adminKey       string
		body           models.AddParticipantsRequest
		expectedStatus int
		expectedTotal  int
	}{
		{"names are trimmed", draftID, draftKey, models.AddParticipantsRequest{Names: []string{" Alice", "Bob\t"}}, http.StatusCreated, 2},
		{"inner whitespace", draftID, draftKey, models.AddParticipantsRequest{Names: []string{"Ann Lee"}}, http.StatusBadRequest, 0},
		{"overlong name", draftID, draftKey, models.AddParticipantsRequest{Names: []string{strings.Repeat("x", 129)}}, http.StatusBadRequest, 0},
		{"text is split on whitespace", draftID, draftKey, models.AddParticipantsRequest{Text: "Carol\n\nDave  "}, http.StatusCreated, 4},
		{"duplicates are kept", draftID, draftKey, models.AddParticipantsRequest{Names: []string{"Alice"}}, http.StatusCreated, 5},
		{"ceiling", draftID, draftKey, models.AddParticipantsRequest{Names: []string{"Eve"}}, http.StatusRequestEntityTooLarge, 0},
		{"empty body", draftID, draftKey, models.AddParticipantsRequest{}, http.StatusBadRequest, 0},
		{"blank name", draftID, draftKey, models.AddParticipantsRequest{Names: []string{"ok", " "}}, http.StatusBadRequest, 0},
		{"open draw", openID, openKey, models.AddParticipantsRequest{Names: []string{"Alice"}}, http.StatusConflict, 0},
		{"wrong key", draftID, openKey, models.AddParticipantsRequest{Names: []string{"Alice"}}, http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.AddParticipants(w, adminRequest("POST", "/draws/"+tt.drawID+"/participants", tt.drawID, tt.adminKey, tt.body))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if w.Code == http.StatusCreated {
				var resp models.AddParticipantsResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.Total != tt.expectedTotal {
					t.Errorf("Expected total %d, got %d", tt.expectedTotal, resp.Total)
				}
			}
		})
	}

	participants, err := getParticipants(db, draftID)
	if err != nil {
		t.Fatal(err)
	}
	got := participantNames(participants)
	want := []string{"Alice", "Bob", "Carol", "Dave", "Alice"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestPublishDraw(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewLifecycleHandler(db, cfg, metrics.New())

	// md5("2024-01-01-lottery")
	const commitment = "c74c32183f337e668b9a6bbb02926c03"
	publish := models.PublishDrawRequest{SeedCommitment: commitment, SeedSource: "closing price, 2024-01-01"}

	t.Run("requires a participant", func(t *testing.T) {
		drawID, adminKey, _ := testutil.CreateTestDraw(t, db, cfg, models.StatusDraft, 1)
		w := httptest.NewRecorder()
		handler.PublishDraw(w, adminRequest("POST", "/draws/"+drawID+"/publish", drawID, adminKey, publish))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("publishes once", func(t *testing.T) {
		drawID, adminKey, _ := testutil.CreateTestDraw(t, db, cfg, models.StatusDraft, 1)
		testutil.AddTestParticipants(t, db, drawID, "Alice")

		w := httptest.NewRecorder()
		handler.PublishDraw(w, adminRequest("POST", "/draws/"+drawID+"/publish", drawID, adminKey, publish))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.PublishDrawResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.ShareSlug != auth.GenerateShareSlug(drawID, cfg.DrawSlugSalt) {
			t.Errorf("Unexpected share slug %s", resp.ShareSlug)
		}
		if resp.ShareURL != "http://localhost:3318/draws/"+resp.ShareSlug {
			t.Errorf("Unexpected share URL %s", resp.ShareURL)
		}
		if resp.SeedCommitment != commitment {
			t.Errorf("Expected commitment %s, got %s", commitment, resp.SeedCommitment)
		}

		d, err := getDrawByID(db, drawID)
		if err != nil {
			t.Fatal(err)
		}
		if d.SeedCommitment == nil || *d.SeedCommitment != commitment {
			t.Errorf("Commitment not stored: %+v", d.SeedCommitment)
		}
		if d.SeedSource == nil || *d.SeedSource != publish.SeedSource {
			t.Errorf("Seed source not stored: %+v", d.SeedSource)
		}

		w = httptest.NewRecorder()
		handler.PublishDraw(w, adminRequest("POST", "/draws/"+drawID+"/publish", drawID, adminKey, publish))
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("rejects bad commitments", func(t *testing.T) {
		drawID, adminKey, _ := testutil.CreateTestDraw(t, db, cfg, models.StatusDraft, 1)
		testutil.AddTestParticipants(t, db, drawID, "Alice")

		for _, body := range []interface{}{
			nil,
			models.PublishDrawRequest{},
			models.PublishDrawRequest{SeedCommitment: "2024-01-01-lottery"},
			models.PublishDrawRequest{SeedCommitment: commitment[:16]},
			models.PublishDrawRequest{SeedCommitment: commitment + commitment},
			models.PublishDrawRequest{SeedCommitment: commitment, SeedSource: strings.Repeat("s", 501)},
		} {
			w := httptest.NewRecorder()
			handler.PublishDraw(w, adminRequest("POST", "/draws/"+drawID+"/publish", drawID, adminKey, body))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		}

		d, err := getDrawByID(db, drawID)
		if err != nil {
			t.Fatal(err)
		}
		if d.Status != models.StatusDraft {
			t.Errorf("Expected draw to stay in draft, got %s", d.Status)
		}
	})

	t.Run("uppercase commitment is normalized", func(t *testing.T) {
		drawID, adminKey, _ := testutil.CreateTestDraw(t, db, cfg, models.StatusDraft, 1)
		testutil.AddTestParticipants(t, db, drawID, "Alice")

		w := httptest.NewRecorder()
		handler.PublishDraw(w, adminRequest("POST", "/draws/"+drawID+"/publish", drawID, adminKey,
			models.PublishDrawRequest{SeedCommitment: strings.ToUpper(commitment)}))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.PublishDrawResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.SeedCommitment != commitment {
			t.Errorf("Expected commitment %s, got %s", commitment, resp.SeedCommitment)
		}
	})
}

func TestCloseDraw(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	m := metrics.New()
	handler := NewLifecycleHandler(db, cfg, m)

	participants := []string{"Alice", "Bob", "Carol"}
	ref := expectedWinners(t, draw.MD5, "2024-01-01-lottery", participants, 2)

	drawID, adminKey, _ := testutil.CreateTestDraw(t, db, cfg, models.StatusOpen, 2)
	testutil.AddTestParticipants(t, db, drawID, participants...)
	testutil.CommitTestDraw(t, db, drawID, "2024-01-01-lottery")

	t.Run("blank seed", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.CloseDraw(w, adminRequest("POST", "/draws/"+drawID+"/close", drawID, adminKey, models.CloseDrawRequest{Seed: " \t"}))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("draft draw", func(t *testing.T) {
		draftID, draftKey, _ := testutil.CreateTestDraw(t, db, cfg, models.StatusDraft, 1)
		w := httptest.NewRecorder()
		handler.CloseDraw(w, adminRequest("POST", "/draws/"+draftID+"/close", draftID, draftKey, models.CloseDrawRequest{Seed: "s"}))
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("seed must match the commitment", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.CloseDraw(w, adminRequest("POST", "/draws/"+drawID+"/close", drawID, adminKey, models.CloseDrawRequest{Seed: "2024-01-02-lottery"}))
		testutil.AssertStatus(t, w, http.StatusConflict)

		d, err := getDrawByID(db, drawID)
		if err != nil {
			t.Fatal(err)
		}
		if d.Status != models.StatusOpen || d.Seed != nil || d.FinalSnapshotID != nil {
			t.Errorf("Mismatched seed changed the draw: %+v", d)
		}
	})

	t.Run("uncommitted draw cannot close", func(t *testing.T) {
		bareID, bareKey, _ := testutil.CreateTestDraw(t, db, cfg, models.StatusOpen, 1)
		testutil.AddTestParticipants(t, db, bareID, "Alice")
		w := httptest.NewRecorder()
		handler.CloseDraw(w, adminRequest("POST", "/draws/"+bareID+"/close", bareID, bareKey, models.CloseDrawRequest{Seed: "s"}))
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("closes and freezes the result", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.CloseDraw(w, adminRequest("POST", "/draws/"+drawID+"/close", drawID, adminKey, models.CloseDrawRequest{Seed: "2024-01-01-lottery"}))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.CloseDrawResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Snapshot.SeedDigest != ref.SeedDigest || resp.Snapshot.InputsHash != ref.InputsHash {
			t.Error("Snapshot does not match the reference draw")
		}
		if len(resp.Snapshot.Winners) != 2 || resp.Snapshot.TotalRanked != 3 {
			t.Errorf("Unexpected snapshot: %+v", resp.Snapshot)
		}
		for i, e := range resp.Snapshot.Winners {
			if e != ref.Winners[i] {
				t.Errorf("Winner %d: expected %+v, got %+v", i, ref.Winners[i], e)
			}
		}

		d, err := getDrawByID(db, drawID)
		if err != nil {
			t.Fatal(err)
		}
		if d.Status != models.StatusClosed || d.Seed == nil || *d.Seed != "2024-01-01-lottery" {
			t.Errorf("Draw not closed correctly: %+v", d)
		}
		if d.FinalSnapshotID == nil || *d.FinalSnapshotID != resp.Snapshot.ID {
			t.Error("Draw does not reference its snapshot")
		}

		stored, err := getSnapshot(db, resp.Snapshot.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(stored.Ranking) != 3 || stored.Ranking[0] != ref.Ranking[0] {
			t.Errorf("Stored ranking mismatch: %+v", stored.Ranking)
		}
	})

	t.Run("closed draws are immutable", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.CloseDraw(w, adminRequest("POST", "/draws/"+drawID+"/close", drawID, adminKey, models.CloseDrawRequest{Seed: "another"}))
		testutil.AssertStatus(t, w, http.StatusConflict)
	})
}
