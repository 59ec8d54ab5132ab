package metrics

import (
	"testing"
	"time"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpRetrieve, 10*time.Millisecond)
	c.RecordTiming(OpRetrieve, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap.Retrieve == nil {
		t.Fatal("no retrieve snapshot")
	}
	if snap.Retrieve.Count != 2 {
		t.Errorf("count = %d, want 2", snap.Retrieve.Count)
	}
	if snap.Retrieve.MinTimeMs != 10 || snap.Retrieve.MaxTimeMs != 30 {
		t.Errorf("min/max = %d/%d, want 10/30", snap.Retrieve.MinTimeMs, snap.Retrieve.MaxTimeMs)
	}
	if snap.Retrieve.AvgTimeMs != 20 {
		t.Errorf("avg = %v, want 20", snap.Retrieve.AvgTimeMs)
	}
	if snap.Retrieve.TotalTokens != nil {
		t.Error("timing-only op has token stats")
	}
}

func TestRecordModelUsage(t *testing.T) {
	c := NewCollector()
	c.RecordModelUsage(OpGenerate, 100*time.Millisecond, 50)
	c.RecordModelUsage(OpGenerate, 200*time.Millisecond, 150)

	snap := c.Snapshot()
	if snap.Generate == nil {
		t.Fatal("no generate snapshot")
	}
	if *snap.Generate.TotalTokens != 200 {
		t.Errorf("total tokens = %d, want 200", *snap.Generate.TotalTokens)
	}
	if *snap.Generate.MinTokens != 50 || *snap.Generate.MaxTokens != 150 {
		t.Errorf("min/max tokens = %d/%d", *snap.Generate.MinTokens, *snap.Generate.MaxTokens)
	}
	if *snap.Generate.AvgTokens != 100 {
		t.Errorf("avg tokens = %v, want 100", *snap.Generate.AvgTokens)
	}
}

func TestSnapshotEmptyOps(t *testing.T) {
	snap := NewCollector().Snapshot()
	if snap.Classify != nil || snap.Generate != nil || snap.Ingest != nil {
		t.Error("empty collector produced operation snapshots")
	}
}
