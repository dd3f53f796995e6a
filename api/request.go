package api

import (
	"text2phenotype.com/qde/metrics"
	"text2phenotype.com/qde/qualification"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

const (
	TidHeader  = "X-Tid"
	defaultTid = "api"
	// maxBodySize bounds a single note blob.
	maxBodySize = 8 << 20
)

type Request struct {
	Service *qualification.Service
}

// Routes mounts the analysis endpoint, health check and metrics exposition.
func (req *Request) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", req.ProcessData)
	mux.HandleFunc("/healthz", req.Health)
	mux.Handle("/metrics", metrics.Handler())
	return metrics.Middleware(mux)
}

// ProcessData accepts either a JSON qualification request or the raw note
// text as the body.
func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	tid := r.Header.Get(TidHeader)
	logger := makeRequestLogger(r, tid)

	if r.Method != http.MethodPost {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	msg, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		logger.Err(err).Int("status", status).Msg("Could not read request body")
		http.Error(w, "", status)
		return
	}

	var request qualification.Request
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(msg, &request); err != nil {
			logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not decode request body")
			http.Error(w, "", http.StatusBadRequest)
			return
		}
	} else {
		request.Text = string(msg)
	}
	if request.Tid == "" {
		request.Tid = tid
	}
	if request.Tid == "" {
		request.Tid = defaultTid
	}

	logger.Info().Str("tid", request.Tid).Msg("Starting analysis for request from API")
	resp := req.Service.Analyze(r.Context(), request)
	body, err := json.Marshal(resp)
	if err != nil {
		logger.Err(err).Int("status", http.StatusInternalServerError).Msg("Could not encode response")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(body)
	logger.Info().Int("status", http.StatusOK).Str("result", string(resp.Final.Status)).Msg("Finished processing request")
}

type health struct {
	Status            string `json:"status"`
	VocabularyVersion string `json:"vocabulary_version"`
}

func (req *Request) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	body, _ := json.Marshal(health{Status: "ok", VocabularyVersion: req.Service.VocabularyVersion()})
	_, _ = w.Write(body)
}
