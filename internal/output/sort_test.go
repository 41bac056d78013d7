package output

import (
	"reflect"
	"testing"
)

type row struct {
	ID         string  `json:"id"`
	Ca         int     `json:"ca"`
	Centrality float64 `json:"centrality"`
	Files      uint32  `json:"files,omitempty"`
	InCycle    bool    `json:"inCycle"`
	internal   int
}

func ids(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestMultiFieldSort(t *testing.T) {
	tests := []struct {
		name     string
		criteria []SortCriteria
		want     []string
	}{
		{"int descending", []SortCriteria{{Field: "Ca", Descending: true}, {Field: "ID"}}, []string{"b", "a", "c", "d"}},
		{"float ascending", []SortCriteria{{Field: "Centrality"}}, []string{"d", "a", "c", "b"}},
		{"uint descending", []SortCriteria{{Field: "Files", Descending: true}}, []string{"c", "a", "b", "d"}},
		{"bool then id", []SortCriteria{{Field: "InCycle", Descending: true}, {Field: "ID"}}, []string{"b", "c", "a", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []row{
				{ID: "a", Ca: 1, Centrality: 0.2, Files: 5},
				{ID: "b", Ca: 3, Centrality: 0.5, Files: 2, InCycle: true},
				{ID: "c", Ca: 1, Centrality: 0.3, Files: 9, InCycle: true},
				{ID: "d", Ca: 0, Centrality: 0.1, Files: 1},
			}
			if err := MultiFieldSort(&rows, tt.criteria); err != nil {
				t.Fatalf("MultiFieldSort() error = %v", err)
			}
			if got := ids(rows); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMultiFieldSort_Errors(t *testing.T) {
	rows := []row{{ID: "a"}}
	value := 3

	tests := []struct {
		name     string
		slice    interface{}
		criteria []SortCriteria
	}{
		{"not a pointer", rows, []SortCriteria{{Field: "ID"}}},
		{"not a slice", &rows[0], []SortCriteria{{Field: "ID"}}},
		{"not structs", &[]int{value}, []SortCriteria{{Field: "ID"}}},
		{"empty criteria", &rows, nil},
		{"unknown field", &rows, []SortCriteria{{Field: "Nope"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := MultiFieldSort(tt.slice, tt.criteria); err == nil {
				t.Error("MultiFieldSort() should fail")
			}
		})
	}
}

func TestMultiFieldSort_PointerElements(t *testing.T) {
	rows := []*row{{ID: "b", Ca: 1}, {ID: "a", Ca: 2}}
	if err := MultiFieldSort(&rows, []SortCriteria{{Field: "Ca", Descending: true}}); err != nil {
		t.Fatalf("MultiFieldSort() error = %v", err)
	}
	if rows[0].ID != "a" {
		t.Errorf("first = %s, want a", rows[0].ID)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		a, b interface{}
		want int
	}{
		{nil, nil, 0},
		{nil, 1, -1},
		{1, nil, 1},
		{3, 5, -1},
		{int64(150), int64(100), 1},
		{uint32(5), uint32(5), 0},
		{0.25, 0.5, -1},
		{"core", "app", 1},
		{false, true, -1},
	}
	for _, tt := range tests {
		if got := compareValues(tt.a, tt.b); got != tt.want {
			t.Errorf("compareValues(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseSortCriteria(t *testing.T) {
	got, err := ParseSortCriteria("ca:desc, ID ,centrality:asc", row{})
	if err != nil {
		t.Fatalf("ParseSortCriteria() error = %v", err)
	}
	want := []SortCriteria{
		{Field: "Ca", Descending: true},
		{Field: "ID"},
		{Field: "Centrality"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseSortCriteria() = %+v, want %+v", got, want)
	}

	if _, err := ParseSortCriteria("files:desc", &row{}); err != nil {
		t.Errorf("pointer sample should work: %v", err)
	}

	for _, bad := range []string{"", "internal", "ca:sideways", "missing"} {
		if _, err := ParseSortCriteria(bad, row{}); err == nil {
			t.Errorf("ParseSortCriteria(%q) should fail", bad)
		}
	}
	if _, err := ParseSortCriteria("id", 3); err == nil {
		t.Error("non-struct sample should fail")
	}
}
