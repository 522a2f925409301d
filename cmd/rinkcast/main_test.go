package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/rinkcast/internal/config"
	"github.com/okian/rinkcast/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.New()
	cfg.Addr = "127.0.0.1:0"
	cfg.DBPath = filepath.Join(t.TempDir(), "rinkcast.db")
	cfg.WorkerCount = 2
	cfg.QueueSize = 16
	return cfg
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a started service behind the full mux", t, func() {
		ctx := context.Background()
		svc := newService(testConfig(t), logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		mux := newMux(ctx, svc)

		serve := func(method, path, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, path, strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		convey.Convey("Then docs, OpenAPI document and metrics are served", func() {
			convey.So(serve("GET", "/docs/", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(serve("GET", "/api-docs", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(serve("GET", "/openapi.yaml", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(serve("GET", "/healthz", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(serve("GET", "/stats", "").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then a reconcile round-trips through storage", func() {
			w := serve("POST", "/v1/reconcile", `{"team_id":"TOR","players":[{"player_id":"a","toi_es_seconds":10}],"targets":{"toi_es_seconds":61.4}}`)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"toi_es_seconds":61`)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a configuration with an ephemeral port", t, func() {
		cfg := testConfig(t)
		ctx, cancel := context.WithCancel(context.Background())

		convey.Convey("When the context is cancelled", func() {
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg, logger.Get()) }()
			time.Sleep(100 * time.Millisecond)
			cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})
	})
}
