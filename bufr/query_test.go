package bufr

import "testing"

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
		check   func(t *testing.T, q Query)
	}{
		{
			name: "flat leaf with wildcard subset",
			str:  "*/CLAT",
			check: func(t *testing.T, q Query) {
				if !q.IsAnySubset {
					t.Errorf("expected wildcard subset")
				}
				if len(q.Path) != 1 || q.Path[0].Name != "CLAT" {
					t.Errorf("unexpected path %v", q.Path)
				}
			},
		},
		{
			name: "named subset with nested path",
			str:  "NC002001/TMPSQ/TMDB",
			check: func(t *testing.T, q Query) {
				if q.IsAnySubset {
					t.Errorf("expected specific subset")
				}
				if q.Subset.Name != "NC002001" {
					t.Errorf("subset = %q", q.Subset.Name)
				}
				if len(q.Path) != 2 {
					t.Fatalf("path length = %d", len(q.Path))
				}
				if q.Path[0].Name != "TMPSQ" || q.Path[1].Name != "TMDB" {
					t.Errorf("unexpected path %v", q.Path)
				}
			},
		},
		{
			name: "index selector on the last component",
			str:  "*/ROSEQ/HEIT[2]",
			check: func(t *testing.T, q Query) {
				last := q.Path[len(q.Path)-1]
				if last.Name != "HEIT" || last.Index != 2 {
					t.Errorf("last component = %+v", last)
				}
			},
		},
		{
			name: "ANY keyword subset",
			str:  "ANY/PRLC",
			check: func(t *testing.T, q Query) {
				if !q.IsAnySubset {
					t.Errorf("ANY should select every subset")
				}
			},
		},
		{name: "missing leaf", str: "NC002001", wantErr: true},
		{name: "empty subset", str: "/TMDB", wantErr: true},
		{name: "empty component", str: "*//TMDB", wantErr: true},
		{name: "zero index", str: "*/TMDB[0]", wantErr: true},
		{name: "negative index", str: "*/TMDB[-1]", wantErr: true},
		{name: "unterminated index", str: "*/TMDB[2", wantErr: true},
		{name: "index on inner component", str: "*/SEQ[1]/TMDB", wantErr: true},
		{name: "bare index", str: "*/[2]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuery(tt.str)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseQuery(%q) succeeded, want error", tt.str)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuery(%q): %v", tt.str, err)
			}
			if q.Str != tt.str {
				t.Errorf("Str = %q, want %q", q.Str, tt.str)
			}
			if tt.check != nil {
				tt.check(t, q)
			}
		})
	}
}

func TestQuerySetOrderAndAlternatives(t *testing.T) {
	qs := NewQuerySet()
	if err := qs.AddStrings("latitude", "*/CLATH", "*/CLAT"); err != nil {
		t.Fatal(err)
	}
	if err := qs.AddStrings("temperature", "*/TMDB"); err != nil {
		t.Fatal(err)
	}
	if err := qs.AddStrings("latitude", "*/CLAT1"); err != nil {
		t.Fatal(err)
	}

	names := qs.Names()
	if len(names) != 2 || names[0] != "latitude" || names[1] != "temperature" {
		t.Fatalf("names = %v", names)
	}
	if qs.Size() != 2 {
		t.Errorf("Size = %d", qs.Size())
	}
	if got := len(qs.QueriesFor("latitude")); got != 3 {
		t.Errorf("latitude alternatives = %d, want 3", got)
	}
}

func TestQuerySetAddStringsRejectsBadQuery(t *testing.T) {
	qs := NewQuerySet()
	if err := qs.AddStrings("broken", "nopath"); err == nil {
		t.Fatal("expected parse error")
	}
}
