package shopping

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/mmynk/foodgram/internal/models"
)

type fakeSource struct {
	lines map[int64][]models.IngredientLine
	err   error
	calls int
}

func (f *fakeSource) CartIngredientLines(_ context.Context, userID int64) ([]models.IngredientLine, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.lines[userID], nil
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		lines []models.IngredientLine
		want  []AggregatedLine
	}{
		{
			name: "two recipes share flour",
			lines: []models.IngredientLine{
				{Name: "flour", MeasurementUnit: "g", Amount: 200},
				{Name: "egg", MeasurementUnit: "pcs", Amount: 2},
				{Name: "flour", MeasurementUnit: "g", Amount: 100},
				{Name: "milk", MeasurementUnit: "l", Amount: 1},
			},
			want: []AggregatedLine{
				{Name: "egg", MeasurementUnit: "pcs", Total: 2},
				{Name: "flour", MeasurementUnit: "g", Total: 300},
				{Name: "milk", MeasurementUnit: "l", Total: 1},
			},
		},
		{
			name: "different units never merge",
			lines: []models.IngredientLine{
				{Name: "flour", MeasurementUnit: "kg", Amount: 1},
				{Name: "flour", MeasurementUnit: "g", Amount: 500},
			},
			want: []AggregatedLine{
				{Name: "flour", MeasurementUnit: "g", Total: 500},
				{Name: "flour", MeasurementUnit: "kg", Total: 1},
			},
		},
		{
			name: "names are case-sensitive",
			lines: []models.IngredientLine{
				{Name: "Sugar", MeasurementUnit: "g", Amount: 10},
				{Name: "sugar", MeasurementUnit: "g", Amount: 20},
			},
			want: []AggregatedLine{
				{Name: "Sugar", MeasurementUnit: "g", Total: 10},
				{Name: "sugar", MeasurementUnit: "g", Total: 20},
			},
		},
		{
			name:  "no lines",
			lines: nil,
			want:  []AggregatedLine{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.lines)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d lines, got %d: %+v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestAggregateLargeTotals(t *testing.T) {
	lines := make([]models.IngredientLine, 0, 300000)
	for i := 0; i < 300000; i++ {
		lines = append(lines, models.IngredientLine{Name: "water", MeasurementUnit: "ml", Amount: 10000})
	}
	got := Aggregate(lines)
	if len(got) != 1 || got[0].Total != 3000000000 {
		t.Errorf("expected a single line totalling 3000000000, got %+v", got)
	}
}

func TestRender(t *testing.T) {
	got := Render(DefaultHeader, []AggregatedLine{
		{Name: "egg", MeasurementUnit: "pcs", Total: 2},
		{Name: "flour", MeasurementUnit: "g", Total: 300},
	})
	want := "Shopping list:\negg - 2, pcs\nflour - 300, g\n"
	if string(got) != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBuild(t *testing.T) {
	source := &fakeSource{lines: map[int64][]models.IngredientLine{
		1: {
			{Name: "flour", MeasurementUnit: "g", Amount: 200},
			{Name: "egg", MeasurementUnit: "pcs", Amount: 2},
			{Name: "flour", MeasurementUnit: "g", Amount: 100},
			{Name: "milk", MeasurementUnit: "l", Amount: 1},
		},
	}}

	var observed int
	agg := NewAggregator(source, WithObserver(func(n int) { observed = n }))

	t.Run("cart with recipes", func(t *testing.T) {
		report, err := agg.Build(context.Background(), 1)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		want := "Shopping list:\negg - 2, pcs\nflour - 300, g\nmilk - 1, l\n"
		if string(report.Body) != want {
			t.Errorf("expected %q, got %q", want, report.Body)
		}
		if report.Filename != "shopping_list.txt" {
			t.Errorf("unexpected filename %q", report.Filename)
		}
		if report.ContentType != ContentType {
			t.Errorf("unexpected content type %q", report.ContentType)
		}
		if observed != 3 {
			t.Errorf("expected observer to see 3 lines, got %d", observed)
		}
	})

	t.Run("empty cart yields header only", func(t *testing.T) {
		report, err := agg.Build(context.Background(), 2)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if string(report.Body) != "Shopping list:\n" {
			t.Errorf("expected header only, got %q", report.Body)
		}
		if len(report.Lines) != 0 {
			t.Errorf("expected no lines, got %d", len(report.Lines))
		}
	})

	t.Run("repeated builds are byte-identical", func(t *testing.T) {
		first, err := agg.Build(context.Background(), 1)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		second, err := agg.Build(context.Background(), 1)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if !bytes.Equal(first.Body, second.Body) {
			t.Errorf("reports differ:\n%q\n%q", first.Body, second.Body)
		}
	})
}

func TestBuildCustomHeader(t *testing.T) {
	agg := NewAggregator(&fakeSource{}, WithHeader("To buy:"))
	report, err := agg.Build(context.Background(), 7)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if string(report.Body) != "To buy:\n" {
		t.Errorf("unexpected body %q", report.Body)
	}
}

func TestBuildSourceError(t *testing.T) {
	boom := errors.New("connection reset")
	agg := NewAggregator(&fakeSource{err: boom})
	if _, err := agg.Build(context.Background(), 1); !errors.Is(err, boom) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}
