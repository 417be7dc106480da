package neural

import (
	"testing"

	"github.com/conquestlab/landgrab/pkg/conquest"
)

func encodeFixture() (*conquest.State, *conquest.Map) {
	st := conquest.NewState()
	st.Status = conquest.StatusActive
	st.Countries = conquest.StandardMap().InitialCountries()
	st.Players = []conquest.Player{
		{Name: "alice", Money: conquest.StartingMoney},
		{Name: "bob", Money: conquest.StartingMoney, Vulnerable: true},
	}

	iberia := st.Countries[1]
	iberia.Owner = "alice"
	iberia.Troops = 5
	st.Countries[1] = iberia

	anatolia := st.Countries[7]
	anatolia.Owner = "bob"
	anatolia.Troops = 3
	st.Countries[7] = anatolia

	return st, conquest.StandardMap()
}

func TestEncodeBoardShape(t *testing.T) {
	st, m := encodeFixture()
	board := EncodeBoard(st, m, "alice")
	if len(board) != NumAreas*NumFeatures {
		t.Fatalf("expected %d features, got %d", NumAreas*NumFeatures, len(board))
	}
}

func TestEncodeBoardOwnTerritory(t *testing.T) {
	st, m := encodeFixture()
	board := EncodeBoard(st, m, "alice")

	// Iberia is ID 1, row 0.
	row := board[0:NumFeatures]
	if row[FeatOwnSelf] != 1 || row[FeatOwnEnemy] != 0 || row[FeatUnowned] != 0 {
		t.Errorf("expected own-territory flags 1/0/0, got %v/%v/%v",
			row[FeatOwnSelf], row[FeatOwnEnemy], row[FeatUnowned])
	}
	if row[FeatTroops] != 0.25 {
		t.Errorf("expected 5 troops to scale to 0.25, got %v", row[FeatTroops])
	}
	if row[FeatWorth] != 1.0 {
		t.Errorf("expected Europe worth 1.0, got %v", row[FeatWorth])
	}
	if row[FeatVulnerable] != 0 {
		t.Errorf("alice is not vulnerable, got %v", row[FeatVulnerable])
	}
}

func TestEncodeBoardEnemyTerritory(t *testing.T) {
	st, m := encodeFixture()
	board := EncodeBoard(st, m, "alice")

	// Anatolia is ID 7, row 6.
	row := board[6*NumFeatures : 7*NumFeatures]
	if row[FeatOwnSelf] != 0 || row[FeatOwnEnemy] != 1 || row[FeatUnowned] != 0 {
		t.Errorf("expected enemy flags 0/1/0, got %v/%v/%v",
			row[FeatOwnSelf], row[FeatOwnEnemy], row[FeatUnowned])
	}
	if row[FeatTroops] != 0.15 {
		t.Errorf("expected 3 troops to scale to 0.15, got %v", row[FeatTroops])
	}
	if row[FeatVulnerable] != 1 {
		t.Error("bob declared peace, his territory should flag vulnerable")
	}
}

func TestEncodeBoardUnownedTerritory(t *testing.T) {
	st, m := encodeFixture()
	board := EncodeBoard(st, m, "alice")

	// Maghreb is ID 13, row 12, unowned African territory.
	row := board[12*NumFeatures : 13*NumFeatures]
	if row[FeatUnowned] != 1 || row[FeatOwnSelf] != 0 || row[FeatOwnEnemy] != 0 {
		t.Errorf("expected unowned flags, got self=%v enemy=%v unowned=%v",
			row[FeatOwnSelf], row[FeatOwnEnemy], row[FeatUnowned])
	}
	if row[FeatTroops] != 0 {
		t.Errorf("expected no troops, got %v", row[FeatTroops])
	}
	if row[FeatWorth] != 0.2 {
		t.Errorf("expected Africa worth 0.2, got %v", row[FeatWorth])
	}
}

func TestEncodeBoardPerspectiveFlips(t *testing.T) {
	st, m := encodeFixture()
	board := EncodeBoard(st, m, "bob")

	if board[0*NumFeatures+FeatOwnEnemy] != 1 {
		t.Error("from bob's view Iberia is enemy territory")
	}
	if board[6*NumFeatures+FeatOwnSelf] != 1 {
		t.Error("from bob's view Anatolia is his own")
	}
}

func TestBuildAdjacencyMatrix(t *testing.T) {
	adj := BuildAdjacencyMatrix(conquest.StandardMap())
	if len(adj) != NumAreas*NumAreas {
		t.Fatalf("expected %d entries, got %d", NumAreas*NumAreas, len(adj))
	}

	for i := 0; i < NumAreas; i++ {
		if adj[i*NumAreas+i] != 1 {
			t.Errorf("missing self-loop at row %d", i)
		}
	}

	// Iberia (1) borders Gaul (2) but not Nippon (12).
	if adj[0*NumAreas+1] != 1 {
		t.Error("expected Iberia adjacent to Gaul")
	}
	if adj[0*NumAreas+11] != 0 {
		t.Error("Iberia and Nippon must not be adjacent")
	}

	for r := 0; r < NumAreas; r++ {
		for c := 0; c < NumAreas; c++ {
			if adj[r*NumAreas+c] != adj[c*NumAreas+r] {
				t.Fatalf("matrix not symmetric at (%d,%d)", r, c)
			}
		}
	}
}
