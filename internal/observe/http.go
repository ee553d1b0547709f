package observe

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler 提供 /healthz 与 /metrics
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "ok")
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// StartHTTP 启动一个最简 HTTP 服务，阻塞直到出错
func StartHTTP(addr string) error {
	return http.ListenAndServe(addr, Handler())
}
