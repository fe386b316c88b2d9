package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/identify"
	"github.com/docforge/docforge/internal/model"
	"github.com/docforge/docforge/internal/normalize"
	"github.com/docforge/docforge/internal/resolve"
)

func intPtr(i int) *int { return &i }

func newTestProcessor() *Processor {
	return NewProcessor(nil, normalize.New(nil), resolve.New(nil), identify.New(0, 0, nil))
}

func shipmentTemplate() *model.Template {
	return &model.Template{
		Name: "shipments",
		Fields: map[string]model.ExtractionRule{
			"rows": {
				ExtractionType: model.TypeTable,
				Location: model.Location{
					TableIndex:    intPtr(0),
					ColumnMapping: map[string]int{"brand": 0, "cases": 2},
				},
			},
			"first_vendor": {
				ExtractionType: model.TypeTable,
				Location: model.Location{
					TableIndex:     intPtr(0),
					SearchStrategy: model.SearchHeaderMatch,
					HeaderName:     "Vendor",
				},
			},
		},
	}
}

const shipmentCSV = "Brand,Vendor,Cases\nAcme,North Co,120\nZenith,South Co,88\n"

func TestProcessDocumentCSV(t *testing.T) {
	p := newTestProcessor()

	ext, err := p.ProcessDocument([]byte(shipmentCSV), "shipments.csv", shipmentTemplate(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ext.Tables != nil {
		t.Error("no signatures given, assignment should be absent")
	}
	if len(ext.Result.Records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(ext.Result.Records), ext.Result.Records)
	}
	if ext.Result.Records[0]["brand"] != "Acme" || ext.Result.Records[1]["cases"] != "88" {
		t.Fatalf("records wrong: %+v", ext.Result.Records)
	}
	if ext.Result.Values["first_vendor"] != "North Co" {
		t.Fatalf("first_vendor = %v", ext.Result.Values["first_vendor"])
	}
}

func TestProcessDocumentWithSignatures(t *testing.T) {
	p := newTestProcessor()
	signatures := map[string]identify.Signature{
		"shipments": {HeaderTokens: []string{"Brand", "Vendor"}},
	}

	ext, err := p.ProcessDocument([]byte(shipmentCSV), "shipments.csv", shipmentTemplate(), signatures)
	if err != nil {
		t.Fatal(err)
	}
	if ext.Tables == nil || ext.Tables.TableEntity[0] != "shipments" {
		t.Fatalf("table not routed to entity: %+v", ext.Tables)
	}
}

func TestProcessDocumentNormalizeFailure(t *testing.T) {
	p := newTestProcessor()
	_, err := p.ProcessDocument([]byte("x"), "scan.unknown", shipmentTemplate(), nil)
	if !errors.Is(err, common.ErrNormalization) {
		t.Fatalf("err = %v, want normalization error", err)
	}
}

func TestQueueProcessesAllJobs(t *testing.T) {
	q := NewQueue(newTestProcessor(), nil, WithWorkers(2), WithQueueSize(4))

	var (
		mu      sync.Mutex
		results int
		wg      sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		job := Job{
			Filename: "shipments.csv",
			Raw:      []byte(shipmentCSV),
			Template: shipmentTemplate(),
			Done: func(ext *Extraction, err error) {
				defer wg.Done()
				if err != nil {
					t.Errorf("job failed: %v", err)
					return
				}
				mu.Lock()
				results++
				mu.Unlock()
			},
		}
		if err := q.Enqueue(context.Background(), job); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	q.Shutdown(context.Background())

	if results != 5 {
		t.Fatalf("processed %d jobs, want 5", results)
	}
}

func TestEnqueueAfterShutdownErrors(t *testing.T) {
	q := NewQueue(newTestProcessor(), nil, WithWorkers(1))
	q.Shutdown(context.Background())

	called := false
	err := q.Enqueue(context.Background(), Job{
		Filename: "shipments.csv",
		Raw:      []byte(shipmentCSV),
		Template: shipmentTemplate(),
		Done:     func(*Extraction, error) { called = true },
	})
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
	if called {
		t.Fatal("Done must not fire for a rejected job")
	}
}
