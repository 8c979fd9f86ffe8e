package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"manga_bot/internal/model"
)

func TestMatch(t *testing.T) {
	subs := []model.Subscription{
		{ID: 1, UserID: "100", Title: "one piece"},
		{ID: 2, UserID: "200", Title: "Berserk"},
		{ID: 3, UserID: "300", Title: "piece"},
	}

	tests := []struct {
		name    string
		manga   string
		wantIDs []int64
	}{
		{
			name:    "exact title",
			manga:   "Berserk",
			wantIDs: []int64{2},
		},
		{
			name:    "case insensitive",
			manga:   "ONE PIECE",
			wantIDs: []int64{1, 3},
		},
		{
			name:    "subscription title inside a longer name",
			manga:   "One Piece Special Edition",
			wantIDs: []int64{1, 3},
		},
		{
			name:    "no match",
			manga:   "Naruto",
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.manga, subs)

			var ids []int64
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("Match mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchNoSubscriptions(t *testing.T) {
	if got := Match("One Piece", nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestMatchEmptyTitleNeverMatches(t *testing.T) {
	subs := []model.Subscription{{ID: 1, UserID: "100", Title: ""}}
	if got := Match("One Piece", subs); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
