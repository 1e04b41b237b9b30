// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/pdiddy/dockmate/pkg/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSession(id string) *types.SessionResult {
	return &types.SessionResult{
		SessionID:  id,
		ReceptorID: "1abc",
		StartedAt:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Pockets: []types.Pocket{
			{Rank: 1, Center: types.Vec3{X: 10, Y: 10, Z: 10}, Score: 0.9},
		},
		Cells: []types.Cell{
			{
				LigandID:     "aspirin",
				PocketRank:   1,
				State:        types.CellSucceeded,
				ArtifactPath: "results/1abc_aspirin_pocket_1_docking.pdbqt",
				BestAffinity: -9.1,
				Result: &types.DockingResult{
					ReceptorID: "1abc",
					LigandID:   "aspirin",
					Poses: []types.Pose{
						{Mode: 1, Affinity: -9.1, RMSDLB: 0, RMSDUB: 0},
						{Mode: 2, Affinity: -8.5, RMSDLB: 2.1, RMSDUB: 4.2},
					},
				},
			},
			{
				LigandID:   "broken",
				PocketRank: 1,
				State:      types.CellFailed,
				Reason:     "preparation failed: obabel exit status 1",
			},
		},
	}
}

func TestRecordAndListSessions(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.RecordSession(ctx, sampleSession("s1")); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	later := sampleSession("s2")
	later.StartedAt = later.StartedAt.Add(time.Hour)
	if err := s.RecordSession(ctx, later); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}

	// Newest first.
	if sessions[0].SessionID != "s2" {
		t.Errorf("sessions[0] = %s, want s2", sessions[0].SessionID)
	}
	if sessions[0].Succeeded != 1 || sessions[0].Failed != 1 {
		t.Errorf("counts = %d/%d, want 1/1", sessions[0].Succeeded, sessions[0].Failed)
	}
	if !sessions[1].StartedAt.Equal(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("started_at round-trip = %v", sessions[1].StartedAt)
	}
}

func TestRecordSessionIsIdempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.RecordSession(ctx, sampleSession("s1")); err != nil {
		t.Fatalf("first RecordSession: %v", err)
	}
	if err := s.RecordSession(ctx, sampleSession("s1")); err != nil {
		t.Fatalf("second RecordSession: %v", err)
	}

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}

	poses, err := s.BestPoses(ctx, QueryOptions{})
	if err != nil {
		t.Fatalf("BestPoses: %v", err)
	}
	if len(poses) != 2 {
		t.Errorf("got %d poses after re-record, want 2", len(poses))
	}
}

func TestBestPoses(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := sampleSession("s1")
	if err := s.RecordSession(ctx, first); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	second := sampleSession("s2")
	second.ReceptorID = "2xyz"
	second.Cells[0].LigandID = "caffeine"
	second.Cells[0].Result.LigandID = "caffeine"
	second.Cells[0].Result.Poses = []types.Pose{{Mode: 1, Affinity: -11.3}}
	if err := s.RecordSession(ctx, second); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	tests := []struct {
		name       string
		opts       QueryOptions
		wantCount  int
		wantFirst  float64
		wantLigand string
	}{
		{"all, best first", QueryOptions{}, 3, -11.3, "caffeine"},
		{"receptor filter", QueryOptions{ReceptorID: "1abc"}, 2, -9.1, "aspirin"},
		{"ligand filter", QueryOptions{LigandID: "aspirin"}, 2, -9.1, "aspirin"},
		{"limit", QueryOptions{MaxResults: 1}, 1, -11.3, "caffeine"},
		{"no match", QueryOptions{LigandID: "nonexistent"}, 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poses, err := s.BestPoses(ctx, tt.opts)
			if err != nil {
				t.Fatalf("BestPoses: %v", err)
			}
			if len(poses) != tt.wantCount {
				t.Fatalf("got %d poses, want %d", len(poses), tt.wantCount)
			}
			if tt.wantCount == 0 {
				return
			}
			if poses[0].Affinity != tt.wantFirst {
				t.Errorf("best affinity = %v, want %v", poses[0].Affinity, tt.wantFirst)
			}
			if poses[0].LigandID != tt.wantLigand {
				t.Errorf("best ligand = %s, want %s", poses[0].LigandID, tt.wantLigand)
			}
			if poses[0].Artifact == "" {
				t.Error("artifact path missing")
			}
		})
	}
}

func TestFailedCellsCarryNoPoses(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.RecordSession(ctx, sampleSession("s1")); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	poses, err := s.BestPoses(ctx, QueryOptions{LigandID: "broken"})
	if err != nil {
		t.Fatalf("BestPoses: %v", err)
	}
	if len(poses) != 0 {
		t.Errorf("failed cell produced %d poses", len(poses))
	}
}
