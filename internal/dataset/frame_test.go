package dataset_test

import (
	"path/filepath"
	"strings"
	"testing"

	"genrecast/internal/dataset"
)

const sampleCSV = "\ufefftrack_id,danceability,energy,loudness,speechiness,acousticness,instrumentalness,liveness,valence,tempo,key,mode,time_signature,track_genre\n" +
	"a,0.7,0.8,-5.0,0.1,0.2,0.0,0.15,0.6,120.0,5,1,4,rock\n" +
	"b,0.3,0.2,-20.5,0.05,0.9,0.8,0.1,0.2,80.0,0.0,0,3.0,classical\n"

func TestDecodeFrameAndRecords(t *testing.T) {
	frame, err := dataset.DecodeFrame(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if frame.Header[0] != "track_id" {
		t.Fatalf("expected byte order mark stripped, got %q", frame.Header[0])
	}
	if frame.Len() != 2 {
		t.Fatalf("Len = %d", frame.Len())
	}

	records, err := frame.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	first := records[0]
	if first.Genre != "rock" || first.Danceability != 0.7 || first.Loudness != -5.0 || first.Key != 5 || first.TimeSignature != 4 {
		t.Fatalf("unexpected first record: %+v", first)
	}
	second := records[1]
	if second.Key != 0 || second.TimeSignature != 3 || second.Genre != "classical" {
		t.Fatalf("expected integral floats accepted, got %+v", second)
	}
}

func TestRecordsMissingColumn(t *testing.T) {
	frame, err := dataset.DecodeFrame(strings.NewReader("danceability,energy\n0.1,0.2\n"))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	_, err = frame.Records()
	if err == nil || !strings.Contains(err.Error(), "missing column") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestRecordsBadValueNamesLine(t *testing.T) {
	bad := strings.Replace(sampleCSV, "120.0", "fast", 1)
	frame, err := dataset.DecodeFrame(strings.NewReader(bad))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	_, err = frame.Records()
	if err == nil || !strings.Contains(err.Error(), "line 2") || !strings.Contains(err.Error(), "tempo") {
		t.Fatalf("expected error naming line and column, got %v", err)
	}
}

func TestRecordsRejectsFractionalKey(t *testing.T) {
	bad := strings.Replace(sampleCSV, ",5,1,4,", ",5.5,1,4,", 1)
	frame, err := dataset.DecodeFrame(strings.NewReader(bad))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if _, err := frame.Records(); err == nil {
		t.Fatal("expected error for fractional key")
	}
}

func TestDecodeFrameEmpty(t *testing.T) {
	if _, err := dataset.DecodeFrame(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestWriteAndReadFrameRoundTrip(t *testing.T) {
	frame, err := dataset.DecodeFrame(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	subset := frame.Subset([]int{1})
	path := filepath.Join(t.TempDir(), "nested", "split.csv")
	if err := dataset.WriteFrame(path, subset); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	loaded, err := dataset.ReadFrame(path)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if len(loaded.Header) != len(frame.Header) {
		t.Fatalf("expected all columns preserved, got %v", loaded.Header)
	}
	if loaded.Len() != 1 || loaded.Rows[0][0] != "b" {
		t.Fatalf("unexpected rows: %v", loaded.Rows)
	}
}

func TestReadFrameMissingFile(t *testing.T) {
	if _, err := dataset.ReadFrame(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
