package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/nicolagi/notes/storage"
	log "github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-Id"

// A handler computes the status code and body of the response. It may set
// response headers on w, but must not write to it.
type handler func(w http.ResponseWriter, r *http.Request, logger *log.Entry) (status int, body []byte)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /notes/{note_name}", s.wrap("get", s.getNote))
	mux.Handle("PUT /notes/{note_name}", s.wrap("put", s.putNote))
	mux.Handle("DELETE /notes/{note_name}", s.wrap("delete", s.deleteNote))
	mux.Handle("GET /notes", s.wrap("list", s.listNotes))
	mux.Handle("POST /write", s.wrap("create", s.createNote))
	mux.Handle("GET /docs", s.wrap("docs", serveDocsYAML))
	mux.Handle("GET /docs/openapi.json", s.wrap("docs", serveDocsJSON))
	return mux
}

func (s *Server) wrap(op string, h handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		logger := log.WithFields(log.Fields{
			"op":         op,
			"request_id": id,
			"remote":     r.RemoteAddr,
		})
		status, body := func() (int, []byte) {
			if !s.limiter.Allow() {
				logger.Warn("Rate limited")
				return http.StatusTooManyRequests, []byte("Too Many Requests")
			}
			return h(w, r, logger)
		}()
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		w.WriteHeader(status)
		if body != nil {
			if _, err := w.Write(body); err != nil {
				logger.WithField("err", err).Error("Failed writing response")
			}
		}
	})
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request, logger *log.Entry) (int, []byte) {
	name := r.PathValue("note_name")
	logger = logger.WithField("note", name)
	content, err := s.opts.store.Get(name)
	if err != nil {
		return failure(logger, err)
	}
	logger.Debug("Success")
	w.Header().Set("Content-Type", "application/octet-stream")
	return http.StatusOK, content
}

func (s *Server) putNote(w http.ResponseWriter, r *http.Request, logger *log.Entry) (int, []byte) {
	name := r.PathValue("note_name")
	logger = logger.WithField("note", name)
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.maxNoteSize))
	if err != nil {
		return bodyFailure(logger, err)
	}
	if err := s.opts.store.Put(name, content); err != nil {
		return failure(logger, err)
	}
	logger.Debug("Success")
	return http.StatusOK, []byte("Updated")
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request, logger *log.Entry) (int, []byte) {
	name := r.PathValue("note_name")
	logger = logger.WithField("note", name)
	if err := s.opts.store.Delete(name); err != nil {
		return failure(logger, err)
	}
	logger.Debug("Success")
	return http.StatusOK, []byte("Deleted")
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request, logger *log.Entry) (int, []byte) {
	pattern := r.URL.Query().Get("match")
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		logger.WithField("match", pattern).Warn("Bad pattern")
		return http.StatusBadRequest, []byte(fmt.Sprintf("%q: not a valid pattern", pattern))
	}
	notes, err := s.opts.store.List()
	if err != nil {
		return failure(logger, err)
	}
	if pattern != "" {
		matching := notes[:0]
		for _, n := range notes {
			if ok, _ := doublestar.Match(pattern, n.Name); ok {
				matching = append(matching, n)
			}
		}
		notes = matching
	}
	body, err := json.Marshal(notes)
	if err != nil {
		return failure(logger, err)
	}
	logger.WithField("count", len(notes)).Debug("Success")
	w.Header().Set("Content-Type", "application/json")
	return http.StatusOK, body
}

// createNote accepts both multipart and URL-encoded forms.
func (s *Server) createNote(w http.ResponseWriter, r *http.Request, logger *log.Entry) (int, []byte) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.maxNoteSize)
	if err := r.ParseMultipartForm(s.opts.maxNoteSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return bodyFailure(logger, err)
	}
	names, content := r.PostForm["note_name"], r.PostForm["note"]
	if len(names) == 0 || len(content) == 0 {
		logger.Warn("Missing note_name or note")
		return http.StatusBadRequest, []byte("Bad request")
	}
	logger = logger.WithField("note", names[0])
	if err := s.opts.store.Create(names[0], []byte(content[0])); err != nil {
		return failure(logger, err)
	}
	logger.Debug("Success")
	return http.StatusCreated, []byte("Created")
}

// failure maps errors from the store to responses.
func failure(logger *log.Entry, err error) (int, []byte) {
	logger = logger.WithField("err", err)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Debug("Not found")
		return http.StatusNotFound, []byte("Not found")
	case errors.Is(err, storage.ErrInvalidName), errors.Is(err, storage.ErrAlreadyExists):
		logger.Warn("Bad request")
		return http.StatusBadRequest, []byte("Bad request")
	default:
		logger.Error()
		return http.StatusInternalServerError, []byte("Internal Server Error")
	}
}

func bodyFailure(logger *log.Entry, err error) (int, []byte) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		logger.WithField("limit", tooLarge.Limit).Warn("Request body too large")
		return http.StatusRequestEntityTooLarge, []byte("Request Entity Too Large")
	}
	logger.WithField("err", err).Warn("Could not read request body")
	return http.StatusBadRequest, []byte("Bad request")
}
