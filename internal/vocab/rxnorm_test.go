package vocab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"medminer/internal/config"
	pkghttp "medminer/pkg/http"
)

func testHTTPClient(t *testing.T) *pkghttp.Client {
	t.Helper()
	client, err := pkghttp.NewClient(config.CircuitBreakerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestResolveIdentifiersKeepsOnlyTopRank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/approximateTerm.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("term") != "Aspirin" {
			t.Errorf("term = %q", r.URL.Query().Get("term"))
		}
		w.Write([]byte(`{"approximateGroup":{"candidate":[
			{"rxcui":"1191","rank":"1","source":"RXNORM"},
			{"rxcui":"1191","rank":"1","source":"MTHSPL"},
			{"rxcui":"2244","rank":"1","source":"RXNORM"},
			{"rxcui":"9999","rank":"2","source":"RXNORM"}
		]}}`))
	}))
	defer srv.Close()

	client := NewRxNormClient(srv.URL, testHTTPClient(t), nil)
	got, err := client.ResolveIdentifiers(context.Background(), []string{"Aspirin"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	want := map[string][]string{
		"1191": {"RXNORM", "MTHSPL"},
		"2244": {"RXNORM"},
	}
	if !reflect.DeepEqual(got["Aspirin"], want) {
		t.Errorf("Aspirin = %v, want %v", got["Aspirin"], want)
	}
}

func TestResolveIdentifiersDegradesToEmptyEntryOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewRxNormClient(srv.URL, testHTTPClient(t), nil)
	got, err := client.ResolveIdentifiers(context.Background(), []string{"Aspirin"})
	if err != nil {
		t.Fatalf("a per-name failure must not fail the batch: %v", err)
	}

	entry, ok := got["Aspirin"]
	if !ok || entry == nil {
		t.Fatalf("entry = %v, want an empty non-nil map", entry)
	}
	if len(entry) != 0 {
		t.Errorf("entry = %v, want empty", entry)
	}
}

func TestResolveIdentifiersNoTopRankCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"approximateGroup":{"candidate":[
			{"rxcui":"9999","rank":"3","source":"RXNORM"}
		]}}`))
	}))
	defer srv.Close()

	client := NewRxNormClient(srv.URL, testHTTPClient(t), nil)
	got, err := client.ResolveIdentifiers(context.Background(), []string{"Unobtainium"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got["Unobtainium"]) != 0 {
		t.Errorf("entry = %v, want empty", got["Unobtainium"])
	}
}

func TestResolveClassificationMatchesSystemCaseInsensitive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rxclass/class/byRxcui.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"rxclassDrugInfoList":{"rxclassDrugInfo":[
			{"relaSource":"MEDRT","rxclassMinConceptItem":{"classId":"X1","className":"wrong","classType":"MOA"}},
			{"relaSource":"ATCPROD","rxclassMinConceptItem":{"classId":"B01AC06","className":"acetylsalicylic acid","classType":"ATC1-4"}},
			{"relaSource":"ATC","rxclassMinConceptItem":{"classId":"LATER","className":"later","classType":"ATC1-4"}}
		]}}`))
	}))
	defer srv.Close()

	client := NewRxNormClient(srv.URL, testHTTPClient(t), nil)
	got, err := client.ResolveClassification(context.Background(), []string{"1191"}, "atc")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	want := DrugClass{ClassID: "B01AC06", ClassName: "acetylsalicylic acid", ClassType: "ATC1-4"}
	if got["1191"] != want {
		t.Errorf("class = %+v, want %+v", got["1191"], want)
	}
}

func TestResolveClassificationNoMatchYieldsEmptyRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rxclassDrugInfoList":{"rxclassDrugInfo":[
			{"relaSource":"MEDRT","rxclassMinConceptItem":{"classId":"X1","className":"wrong","classType":"MOA"}}
		]}}`))
	}))
	defer srv.Close()

	client := NewRxNormClient(srv.URL, testHTTPClient(t), nil)
	got, err := client.ResolveClassification(context.Background(), []string{"1191"}, "VA")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got["1191"] != (DrugClass{}) {
		t.Errorf("class = %+v, want the zero record", got["1191"])
	}
}
