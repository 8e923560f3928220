package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
)

func wikiAttr(wiki string) attribute.KeyValue    { return attribute.String("wiki", wiki) }
func operationAttr(op string) attribute.KeyValue { return attribute.String("operation", op) }

// promHTTPHandler returns the standard Prometheus exposition-format
// handler. The otel Prometheus exporter registers its collector against
// the default registry, so promhttp.Handler() (which reads that same
// registry) is sufficient — no custom registry plumbing needed.
func promHTTPHandler() http.Handler {
	return promhttp.Handler()
}
