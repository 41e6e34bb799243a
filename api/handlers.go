package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// ScrapeRequest is the body of POST /scrape. A missing page_limit means the
// configured default; an explicit null means no limit. Unknown fields are ignored.
type ScrapeRequest struct {
	PageLimit *int   `json:"page_limit"`
	Proxy     string `json:"proxy"`
}

// ScrapeResponse is returned when a scrape session completes.
type ScrapeResponse struct {
	Message         string `json:"message"`
	ProductsScraped int    `json:"products_scraped"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Shop scraper is running"})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeScrapeRequest(r.Body)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pageLimit := 0
	if req.PageLimit != nil {
		pageLimit = *req.PageLimit
		if pageLimit < 1 || pageLimit > s.config.MaxPageLimit {
			s.respondWithError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("page_limit must be between 1 and %d", s.config.MaxPageLimit))
			return
		}
	}

	// A client disconnect must not abandon a half-written session.
	ctx := context.WithoutCancel(r.Context())
	result, err := s.runner.Run(ctx, pageLimit, req.Proxy)
	if err != nil {
		s.logger.Error("scrape failed", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Scraping failed")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ScrapeResponse{
		Message:         "Scraping completed",
		ProductsScraped: result.Processed,
	})
}

func (s *Server) decodeScrapeRequest(body io.Reader) (ScrapeRequest, error) {
	var req ScrapeRequest
	if limit := s.config.DefaultPageLimit; limit > 0 {
		req.PageLimit = &limit
	}

	if err := json.NewDecoder(body).Decode(&req); err != nil {
		// An empty body takes every default.
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return ScrapeRequest{}, err
	}
	return req, nil
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
