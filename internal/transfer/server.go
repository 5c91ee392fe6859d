package transfer

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/chunkstore/internal/chunker"
	"github.com/jaywantadh/chunkstore/internal/metadata"
	"github.com/jaywantadh/chunkstore/internal/storage"
)

// Server exposes a storage.Storage over HTTP under /chunk.
type Server struct {
	store   storage.Storage
	records *metadata.RecordStore
	nodeID  string
	log     logrus.FieldLogger
	mw      []func(http.Handler) http.Handler
	metrics *serverMetrics
}

type ServerOption func(*Server)

// WithRecords enables the write record index and the /record endpoint.
func WithRecords(records *metadata.RecordStore) ServerOption {
	return func(s *Server) {
		s.records = records
	}
}

func WithNodeID(id string) ServerOption {
	return func(s *Server) {
		s.nodeID = id
	}
}

// WithMiddleware appends middleware run after the request ID is assigned.
func WithMiddleware(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(s *Server) {
		s.mw = append(s.mw, mw...)
	}
}

// NewServer creates a chunk store server over store.
func NewServer(store storage.Storage, log logrus.FieldLogger, opts ...ServerOption) *Server {
	s := &Server{store: store, log: log, metrics: newServerMetrics()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the HTTP handler of the store.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.mw...)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteErrorResponse(w, http.StatusNotFound, "no such resource")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get(HealthPath, s.handleHealth)
	r.Method(http.MethodGet, MetricsPath, promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	r.Get(RecordPath, s.handleRecords)
	r.Get(ChunkPath, s.handleList)
	r.Get(ChunkPath+"/{address}", s.handleGet)
	r.Put(ChunkPath+"/{address}", s.handlePut)
	r.Delete(ChunkPath+"/{address}", s.handleDelete)
	r.Get(ChunkPath+"/{address}/record", s.handleRecord)

	return r
}

func (s *Server) requestLog(r *http.Request) logrus.FieldLogger {
	return s.log.WithField("request_id", middleware.GetReqID(r.Context()))
}

// address parses the {address} URL parameter, answering 400 when malformed.
func (s *Server) address(w http.ResponseWriter, r *http.Request) (chunker.Address, bool) {
	addr, err := chunker.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return addr, false
	}
	return addr, true
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, http.StatusOK, HealthResponse{Status: "ok", NodeID: s.nodeID})
}

// handleList handles GET /chunk
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	addrs, err := s.store.List(r.Context())
	if err != nil {
		s.requestLog(r).WithError(err).Error("failed to list chunks")
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to list chunks")
		return
	}
	if addrs == nil {
		addrs = []chunker.Address{}
	}
	WriteJSONResponse(w, http.StatusOK, addrs)
}

// handleGet handles GET /chunk/{address}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.address(w, r)
	if !ok {
		return
	}
	log := s.requestLog(r).WithField("address", addr.Short())

	c, err := s.store.Get(r.Context(), addr)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.metrics.observe("get", resultNotFound)
		WriteErrorResponse(w, http.StatusNotFound, storage.ErrNotFound.Error())
		return
	case errors.Is(err, storage.ErrCorrupt):
		s.metrics.observe("get", resultCorrupt)
		log.WithError(err).Error("corrupt chunk")
		WriteErrorResponse(w, http.StatusInternalServerError, storage.ErrCorrupt.Error())
		return
	case err != nil:
		s.metrics.observe("get", resultError)
		log.WithError(err).Error("failed to load chunk")
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to load chunk")
		return
	}

	s.metrics.observe("get", resultHit)
	w.Header().Set("Content-Type", ContentTypeRaw)
	w.Header().Set("Content-Length", strconv.Itoa(chunker.ChunkSize))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(c[:]); err != nil {
		log.WithError(err).Warn("failed to write chunk")
	}
}

// handlePut handles PUT /chunk/{address}. The body must be exactly one chunk
// whose content hashes to the address.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.address(w, r)
	if !ok {
		return
	}
	log := s.requestLog(r).WithField("address", addr.Short())

	data, err := io.ReadAll(io.LimitReader(r.Body, chunker.ChunkSize+1))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "failed to read body")
		return
	}

	c, err := chunker.FromBytes(data)
	if err != nil {
		s.metrics.observe("put", resultInvalid)
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if !chunker.Verify(addr, c) {
		s.metrics.observe("put", resultInvalid)
		WriteErrorResponse(w, http.StatusBadRequest, "content does not match address")
		return
	}

	created, err := s.store.Put(r.Context(), addr, c)
	if err != nil {
		s.metrics.observe("put", resultError)
		log.WithError(err).Error("failed to store chunk")
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to store chunk")
		return
	}

	if s.records != nil {
		if _, err := s.records.Touch(addr, chunker.ChunkSize); err != nil {
			log.WithError(err).Warn("failed to update chunk record")
		}
	}

	if !created {
		s.metrics.observe("put", resultExists)
		log.Debug("chunk already stored")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.metrics.observe("put", resultCreated)
	s.metrics.stored.Add(chunker.ChunkSize)
	log.Info("chunk stored")
	w.Header().Set("Location", ChunkPath+"/"+addr.String())
	w.WriteHeader(http.StatusCreated)
}

// handleDelete handles DELETE /chunk/{address}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.address(w, r)
	if !ok {
		return
	}
	log := s.requestLog(r).WithField("address", addr.Short())

	err := s.store.Delete(r.Context(), addr)
	if errors.Is(err, storage.ErrNotFound) {
		s.metrics.observe("delete", resultNotFound)
		WriteErrorResponse(w, http.StatusNotFound, storage.ErrNotFound.Error())
		return
	}
	if err != nil {
		s.metrics.observe("delete", resultError)
		log.WithError(err).Error("failed to delete chunk")
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to delete chunk")
		return
	}

	if s.records != nil {
		if err := s.records.Delete(addr); err != nil {
			log.WithError(err).Warn("failed to drop chunk record")
		}
	}

	s.metrics.observe("delete", resultDeleted)
	log.Info("chunk deleted")
	w.WriteHeader(http.StatusNoContent)
}

// handleRecord handles GET /chunk/{address}/record
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.address(w, r)
	if !ok {
		return
	}
	if s.records == nil {
		WriteErrorResponse(w, http.StatusNotFound, "record index disabled")
		return
	}

	rec, err := s.records.Get(addr)
	if errors.Is(err, metadata.ErrRecordNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, metadata.ErrRecordNotFound.Error())
		return
	}
	if err != nil {
		s.requestLog(r).WithError(err).Error("failed to load chunk record")
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to load chunk record")
		return
	}
	WriteJSONResponse(w, http.StatusOK, rec)
}

// handleRecords handles GET /record
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		WriteErrorResponse(w, http.StatusNotFound, "record index disabled")
		return
	}

	records, err := s.records.List()
	if err != nil {
		s.requestLog(r).WithError(err).Error("failed to list chunk records")
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to list chunk records")
		return
	}
	if records == nil {
		records = []metadata.ChunkRecord{}
	}
	WriteJSONResponse(w, http.StatusOK, records)
}
