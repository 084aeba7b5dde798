package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/integrable/stardust/pkg/identity"
	"github.com/integrable/stardust/pkg/metrics"
	"github.com/integrable/stardust/pkg/storage"
)

// newRouter builds the route table.
//
// All storage routes require authentication; mutating routes additionally
// require the writer capability. The version endpoint is public, and
// /metrics is registered only when the metrics registry is initialized.
func newRouter(store *storage.Orchestrator, verifier *identity.TokenVerifier, version string, maxUploadBytes int64) *http.ServeMux {
	h := &handler{store: store, maxUploadBytes: maxUploadBytes}
	auth := newAuthMiddleware(verifier)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/info/version", versionHandler(version))

	mux.Handle("POST /api/v1/storage/file", auth.require(requireWriter(h.uploadFile)))
	mux.Handle("GET /api/v1/storage/file/{id}", auth.require(h.downloadFile))
	mux.Handle("GET /api/v1/storage/file/{id}/description", auth.require(h.getFileDescription))
	mux.Handle("PUT /api/v1/storage/file/{id}", auth.require(requireWriter(h.updateFile)))
	mux.Handle("PUT /api/v1/storage/file/{id}/description", auth.require(requireWriter(h.updateFileDescription)))
	mux.Handle("DELETE /api/v1/storage/file/{id}", auth.require(requireWriter(h.deleteFile)))

	mux.Handle("GET /api/v1/storage/group/{groupId}", auth.require(h.getGroup))
	mux.Handle("POST /api/v1/storage/group/{groupId}", auth.require(requireWriter(h.createGroup)))
	mux.Handle("DELETE /api/v1/storage/group/{groupId}", auth.require(requireWriter(h.deleteGroup)))

	if metrics.IsEnabled() {
		mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	}

	return mux
}
