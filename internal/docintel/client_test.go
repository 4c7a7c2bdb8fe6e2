package docintel

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestAnalyzePollsUntilSucceeded(t *testing.T) {
	var polls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodPost:
			if r.URL.Path != "/documentintelligence/documentModels/prebuilt-layout:analyze" {
				t.Errorf("path = %s", r.URL.Path)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/pdf" {
				t.Errorf("content-type = %s", ct)
			}
			w.Header().Set("Operation-Location", srv.URL+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
		case http.MethodGet:
			if polls.Add(1) < 2 {
				_, _ = io.WriteString(w, `{"status":"running"}`)
				return
			}
			_, _ = io.WriteString(w, `{"status":"succeeded","analyzeResult":{
				"content":"x",
				"pages":[{"pageNumber":1,"width":8.5,"height":11,"unit":"inch","lines":[{"content":"Our Ref: 1"},{"content":"QA APPROVED"}]}],
				"figures":[{"id":"1.1","boundingRegions":[{"pageNumber":1,"polygon":[1,2,3,2,3,4,1,4]}]}]}}`)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL + "/", APIKey: "key", PollInterval: 5 * time.Millisecond}, nil)
	res, err := c.Analyze(context.Background(), []byte("%PDF-1.7"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if polls.Load() != 2 {
		t.Errorf("polls = %d, want 2", polls.Load())
	}
	if len(res.Figures) != 1 || res.Figures[0].BoundingRegions[0].PageNumber != 1 {
		t.Errorf("figures = %+v", res.Figures)
	}
	if got := res.Text(); got != "Our Ref: 1\nQA APPROVED" {
		t.Errorf("Text() = %q", got)
	}
	if res.Page(1) == nil || res.Page(2) != nil {
		t.Error("Page lookup mismatch")
	}
}

func TestAnalyzeFailed(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srv.URL+"/op")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = io.WriteString(w, `{"status":"failed","error":{"code":"InvalidContent","message":"corrupt"}}`)
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, APIKey: "k", PollInterval: time.Millisecond}, nil)
	if _, err := c.Analyze(context.Background(), nil); !errors.Is(err, ErrAnalyzeFailed) {
		t.Errorf("err = %v, want ErrAnalyzeFailed", err)
	}
}

func TestAnalyzeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, APIKey: "bad"}, nil)
	if _, err := c.Analyze(context.Background(), nil); err == nil {
		t.Error("expected error for 401")
	}
}

func TestBounds(t *testing.T) {
	br := BoundingRegion{Polygon: []float64{1.5, 2, 3, 2.2, 3.1, 4, 1.4, 3.9}}
	minX, minY, maxX, maxY, ok := br.Bounds()
	if !ok || minX != 1.4 || minY != 2 || maxX != 3.1 || maxY != 4 {
		t.Errorf("Bounds = %v %v %v %v %v", minX, minY, maxX, maxY, ok)
	}
	if _, _, _, _, ok := (BoundingRegion{Polygon: []float64{1}}).Bounds(); ok {
		t.Error("short polygon should not be ok")
	}
}
