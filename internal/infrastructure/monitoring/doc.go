/*
Package monitoring provides Prometheus metrics for the workspace backend.

# Overview

Collectors cover the HTTP surface, window lifecycle, workspace export and
import, remote notebook server calls, the notebook library, and WebSocket
fanout. A mutex-guarded snapshot mirrors the headline numbers for the JSON
stats endpoint so handlers never scrape the registry.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	metrics.SetWindowsActive(store.Count())
	metrics.IncExports()

	timer := monitoring.NewTimer(metrics, "execute")
	// ... call the remote server ...
	timer.Stop("ok")

# Exposition

The standard Prometheus endpoint is wired in the server package:

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
