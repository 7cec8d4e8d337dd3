package stage

import "testing"

func TestHealthConstructors(t *testing.T) {
	ok := Healthy("ingestion")
	if !ok.Ready || ok.Name != "ingestion" || ok.Detail != "" {
		t.Fatalf("unexpected healthy record: %+v", ok)
	}
	bad := Unhealthy("training", "missing matrix")
	if bad.Ready || bad.Detail != "missing matrix" {
		t.Fatalf("unexpected unhealthy record: %+v", bad)
	}
}
