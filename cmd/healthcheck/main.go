// Package main is a minimal HTTP health check binary for the container
// HEALTHCHECK instruction. It exits 0 when the /health endpoint returns
// HTTP 200, and 1 otherwise. Compile with CGO_ENABLED=0 for a fully static
// binary.
package main

import (
	"net/http"
	"os"
)

func main() {
	addr := os.Getenv("READYAPP_HEALTHCHECK_URL")
	if addr == "" {
		addr = "http://localhost:80/health"
	}
	resp, err := http.Get(addr)
	if err != nil {
		os.Exit(1)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
