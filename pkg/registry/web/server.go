package web

import (
	"errors"
	"net/http"

	"github.com/mr-tron/base58"
	"github.com/oschwald/maxminddb-golang"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/hash-registry/pkg/netutil"
	"github.com/code-payments/hash-registry/pkg/rate"
	"github.com/code-payments/hash-registry/pkg/registry"
)

const (
	v1PathPrefix               = "/v1"
	v1AddHashToBlockchainPath  = v1PathPrefix + "/addHashToBlockchain"
	v1GetDocumentHashPath      = v1PathPrefix + "/getDocumentHash"
	contentTypeHeaderName      = "content-type"
	jsonContentTypeHeaderValue = "application/json"
)

var errRateLimited = errors.New("rate limited")

type Server struct {
	log     *logrus.Entry
	service *registry.Service
	limiter rate.Limiter
	geoDb   *maxminddb.Reader
}

// NewServer returns the HTTP front end for the registry service. geoDb is
// optional, and only used to annotate logs with the caller's location.
func NewServer(service *registry.Service, limiter rate.Limiter, geoDb *maxminddb.Reader) *Server {
	return &Server{
		log:     logrus.StandardLogger().WithField("type", "registry/web"),
		service: service,
		limiter: limiter,
		geoDb:   geoDb,
	}
}

func (s *Server) addHashToBlockchainHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			ctx := r.Context()

			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			if statusCode, err := s.checkRateLimit(log, r); err != nil {
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			model, err := newAddHashRequestFromHttpContext(r)
			if err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}
			log = log.WithFields(logrus.Fields{
				"hospital_id": model.hospitalId,
				"report_id":   model.reportId,
			})

			address, err := s.service.AddDocumentHash(ctx, model.hospitalId, model.reportId, model.documentHash)
			if err != nil {
				log.WithError(err).Warn("failure adding document hash")
				statusCode, err := HandleServiceErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			respBody := NewGenericApiSuccessResponseBody()
			respBody["address"] = base58.Encode(address)
			return http.StatusOK, respBody
		}()

		w.Header().Set(contentTypeHeaderName, jsonContentTypeHeaderValue)
		w.WriteHeader(statusCode)
		if _, err := w.Write([]byte(body.ToString())); err != nil {
			log.WithError(err).Info("failed to write body")
		}
	}
}

func (s *Server) getDocumentHashHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			ctx := r.Context()

			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			if statusCode, err := s.checkRateLimit(log, r); err != nil {
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			model, err := newGetDocumentHashRequestFromHttpContext(r)
			if err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}
			log = log.WithFields(logrus.Fields{
				"hospital_id": model.hospitalId,
				"report_id":   model.reportId,
			})

			documentHash, err := s.service.GetDocumentHash(ctx, model.hospitalId, model.reportId)
			if err != nil && err != registry.ErrRecordNotFound {
				log.WithError(err).Warn("failure getting document hash")
				statusCode, err := HandleServiceErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			// Unknown records keep the response shape, with an empty hash
			var respBody GenericApiResponseBody
			statusCode := http.StatusOK
			if err == registry.ErrRecordNotFound {
				statusCode, _ = HandleServiceErrorInWebContext(err)
				respBody = NewGenericApiFailureResponseBody(err)
			} else {
				respBody = NewGenericApiSuccessResponseBody()
			}
			respBody["hospitalId"] = model.hospitalId
			respBody["reportId"] = model.reportId
			respBody["documentHash"] = documentHash
			return statusCode, respBody
		}()

		w.Header().Set(contentTypeHeaderName, jsonContentTypeHeaderValue)
		w.WriteHeader(statusCode)
		if _, err := w.Write([]byte(body.ToString())); err != nil {
			log.WithError(err).Info("failed to write body")
		}
	}
}

func (s *Server) checkRateLimit(log *logrus.Entry, r *http.Request) (int, error) {
	clientIP := netutil.GetClientIP(r)

	allowed, err := s.limiter.Allow(clientIP)
	if err != nil {
		log.WithError(err).Warn("failure checking rate limit")
		return http.StatusInternalServerError, errors.New("internal server error")
	}
	if allowed {
		return http.StatusOK, nil
	}

	log = log.WithField("client_ip", clientIP)
	if metadata, err := netutil.GetIpMetadata(s.geoDb, clientIP); err == nil && len(metadata.Country) > 0 {
		log = log.WithField("client_country", metadata.Country)
	}
	log.Info("request rate limited")

	return http.StatusTooManyRequests, errRateLimited
}

func (s *Server) GetHandlers() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		v1AddHashToBlockchainPath: s.addHashToBlockchainHandler(v1AddHashToBlockchainPath),
		v1GetDocumentHashPath:     s.getDocumentHashHandler(v1GetDocumentHashPath),
	}
}
