package cluster

import (
	"reflect"
	"testing"

	"github.com/PentesterFlow/harspec/internal/capture"
)

func exchange(index int, method, path string) *capture.Exchange {
	return &capture.Exchange{
		Index:  index,
		Method: method,
		Scheme: "https",
		Host:   "api.example.com",
		Path:   path,
	}
}

func templatePaths(templates []*Template) []string {
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, t.Method+" "+t.Path)
	}
	return out
}

// =============================================================================
// Clustering Tests
// =============================================================================

func TestCluster_NumericIDs(t *testing.T) {
	templates := Cluster([]*capture.Exchange{
		exchange(0, "GET", "/items/1"),
		exchange(1, "GET", "/items/2"),
	})

	if len(templates) != 1 {
		t.Fatalf("got %d templates %v, want 1", len(templates), templatePaths(templates))
	}
	tpl := templates[0]
	if tpl.Path != "/items/{itemId}" {
		t.Errorf("Path = %q, want /items/{itemId}", tpl.Path)
	}
	if len(tpl.Exchanges) != 2 {
		t.Errorf("Exchanges = %d, want 2", len(tpl.Exchanges))
	}
}

func TestCluster_SingletonID(t *testing.T) {
	templates := Cluster([]*capture.Exchange{
		exchange(0, "GET", "/orders/550e8400-e29b-41d4-a716-446655440000"),
	})

	if len(templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(templates))
	}
	if templates[0].Path != "/orders/{orderId}" {
		t.Errorf("Path = %q, want /orders/{orderId}", templates[0].Path)
	}
}

func TestCluster_NonIDVariation(t *testing.T) {
	// alice and bob do not look like identifiers; the position still
	// generalizes because it is the only one that varies.
	templates := Cluster([]*capture.Exchange{
		exchange(0, "GET", "/users/alice/profile"),
		exchange(1, "GET", "/users/bob/profile"),
	})

	if len(templates) != 1 {
		t.Fatalf("got %d templates %v, want 1", len(templates), templatePaths(templates))
	}
	if templates[0].Path != "/users/{userId}/profile" {
		t.Errorf("Path = %q, want /users/{userId}/profile", templates[0].Path)
	}
}

func TestCluster_TooDifferentStaySeparate(t *testing.T) {
	templates := Cluster([]*capture.Exchange{
		exchange(0, "GET", "/items/search"),
		exchange(1, "GET", "/users/export"),
	})

	want := []string{"GET /items/search", "GET /users/export"}
	if got := templatePaths(templates); !reflect.DeepEqual(got, want) {
		t.Errorf("templates = %v, want %v", got, want)
	}
}

func TestCluster_MethodsSeparate(t *testing.T) {
	templates := Cluster([]*capture.Exchange{
		exchange(0, "GET", "/items"),
		exchange(1, "POST", "/items"),
	})

	want := []string{"GET /items", "POST /items"}
	if got := templatePaths(templates); !reflect.DeepEqual(got, want) {
		t.Errorf("templates = %v, want %v", got, want)
	}
}

func TestCluster_MixedShapes(t *testing.T) {
	templates := Cluster([]*capture.Exchange{
		exchange(0, "GET", "/items"),
		exchange(1, "GET", "/items/1"),
		exchange(2, "GET", "/items/2"),
		exchange(3, "GET", "/items/1/reviews"),
		exchange(4, "POST", "/items"),
	})

	want := []string{
		"GET /items",
		"POST /items",
		"GET /items/{itemId}",
		"GET /items/{itemId}/reviews",
	}
	if got := templatePaths(templates); !reflect.DeepEqual(got, want) {
		t.Errorf("templates = %v, want %v", got, want)
	}
}

func TestCluster_VariationAtDifferentPositions(t *testing.T) {
	// Each path carries an id-like segment at a different position. Merging
	// them would surrender two literal segments that nothing observed
	// varying, so they stay separate templates.
	templates := Cluster([]*capture.Exchange{
		exchange(0, "GET", "/users/123/posts"),
		exchange(1, "GET", "/users/settings/456"),
	})

	want := []string{"GET /users/settings/{settingId}", "GET /users/{userId}/posts"}
	if got := templatePaths(templates); !reflect.DeepEqual(got, want) {
		t.Errorf("templates = %v, want %v", got, want)
	}
}

func TestCluster_IDAbsorbsSiblingLiteral(t *testing.T) {
	// A placeholder facing one literal is a single disagreement, so the
	// literal folds into the placeholder group.
	templates := Cluster([]*capture.Exchange{
		exchange(0, "GET", "/items/5"),
		exchange(1, "GET", "/items/create"),
	})

	if len(templates) != 1 {
		t.Fatalf("got %d templates %v, want 1", len(templates), templatePaths(templates))
	}
	if templates[0].Path != "/items/{itemId}" {
		t.Errorf("Path = %q, want /items/{itemId}", templates[0].Path)
	}
}

func TestCluster_Idempotent(t *testing.T) {
	templates := Cluster([]*capture.Exchange{
		exchange(0, "GET", "/items"),
		exchange(1, "GET", "/items/1"),
		exchange(2, "GET", "/items/2"),
		exchange(3, "GET", "/items/create"),
		exchange(4, "GET", "/users/alice/profile"),
		exchange(5, "GET", "/users/bob/profile"),
		exchange(6, "POST", "/items"),
		exchange(7, "GET", "/orders/550e8400-e29b-41d4-a716-446655440000"),
	})

	// Re-clustering the members of any template reproduces that template.
	for _, tpl := range templates {
		again := Cluster(tpl.Exchanges)
		if len(again) != 1 {
			t.Fatalf("re-clustering %s %s split into %v",
				tpl.Method, tpl.Path, templatePaths(again))
		}
		if again[0].Method != tpl.Method || again[0].Path != tpl.Path {
			t.Errorf("re-clustering changed %s %s to %s %s",
				tpl.Method, tpl.Path, again[0].Method, again[0].Path)
		}
	}

	// Re-clustering the full flattened set reproduces the template set.
	var flat []*capture.Exchange
	for _, tpl := range templates {
		flat = append(flat, tpl.Exchanges...)
	}
	if got := templatePaths(Cluster(flat)); !reflect.DeepEqual(got, templatePaths(templates)) {
		t.Errorf("re-clustering produced %v, want %v", got, templatePaths(templates))
	}
}

func TestCluster_RootPath(t *testing.T) {
	templates := Cluster([]*capture.Exchange{
		exchange(0, "GET", "/"),
	})

	if len(templates) != 1 || templates[0].Path != "/" {
		t.Fatalf("got %v, want single / template", templatePaths(templates))
	}
}

func TestCluster_ExchangesKeepCaptureOrder(t *testing.T) {
	templates := Cluster([]*capture.Exchange{
		exchange(3, "GET", "/items/7"),
		exchange(1, "GET", "/items/8"),
		exchange(2, "GET", "/items/9"),
	})

	if len(templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(templates))
	}
	var indexes []int
	for _, ex := range templates[0].Exchanges {
		indexes = append(indexes, ex.Index)
	}
	if !reflect.DeepEqual(indexes, []int{1, 2, 3}) {
		t.Errorf("exchange indexes = %v, want [1 2 3]", indexes)
	}
}

func TestCluster_Deterministic(t *testing.T) {
	exchanges := []*capture.Exchange{
		exchange(0, "GET", "/a/1"),
		exchange(1, "GET", "/b/2"),
		exchange(2, "GET", "/a/3"),
		exchange(3, "POST", "/a"),
	}

	first := templatePaths(Cluster(exchanges))
	for i := 0; i < 5; i++ {
		if got := templatePaths(Cluster(exchanges)); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, first run produced %v", i, got, first)
		}
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestLooksLikeID(t *testing.T) {
	tests := []struct {
		seg  string
		want bool
	}{
		{"42", true},
		{"0", true},
		{"550e8400-e29b-41d4-a716-446655440000", true},
		{"deadbeefcafe", true},
		{"abc123", false}, // short mixed token, not hex long enough
		{"items", false},
		{"search", false},
		{"v2", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.seg, func(t *testing.T) {
			if got := LooksLikeID(tt.seg); got != tt.want {
				t.Errorf("LooksLikeID(%q) = %v, want %v", tt.seg, got, tt.want)
			}
		})
	}
}

func TestParamName_Derivation(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plural literal", "/items/5", "/items/{itemId}"},
		{"ies plural", "/companies/5", "/companies/{companyId}"},
		{"no preceding literal", "/12345678", "/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			templates := Cluster([]*capture.Exchange{exchange(0, "GET", tt.path)})
			if len(templates) != 1 {
				t.Fatalf("got %d templates, want 1", len(templates))
			}
			if templates[0].Path != tt.want {
				t.Errorf("Path = %q, want %q", templates[0].Path, tt.want)
			}
		})
	}
}
