package web

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	g "maragu.dev/gomponents"

	"mlm-landing/internal/observability"
)

// boundary replaces the response with the static failure page when the
// wrapped handler panics before writing. Nothing is retried.
func boundary(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &boundaryWriter{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			ref := uuid.NewString()
			logger.Printf("ERROR: panic serving %s %s (ref %s): %v\n%s", r.Method, r.URL.Path, ref, rec, debug.Stack())
			observability.RecordBoundaryFailure("panic")
			if rw.wrote || rw.hijacked {
				return
			}
			writeFailure(w, ref)
		}()
		next.ServeHTTP(rw, r)
	})
}

// render writes node as a complete page, or the failure page if rendering fails.
func render(w http.ResponseWriter, logger *log.Logger, node g.Node) {
	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		ref := uuid.NewString()
		logger.Printf("ERROR: render page (ref %s): %v", ref, err)
		observability.RecordBoundaryFailure("render")
		writeFailure(w, ref)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func writeFailure(w http.ResponseWriter, ref string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if err := renderFailure(ref).Render(w); err != nil {
		fmt.Fprint(w, FailureMessage)
	}
}

// boundaryWriter records whether the response has started.
type boundaryWriter struct {
	http.ResponseWriter
	wrote    bool
	hijacked bool
}

func (w *boundaryWriter) WriteHeader(code int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *boundaryWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

// Hijack lets the live channel upgrade through the boundary.
func (w *boundaryWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.hijacked = true
	return h.Hijack()
}

func (w *boundaryWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
