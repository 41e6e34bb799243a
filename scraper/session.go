package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	ctxDestination = "destination"
	ctxSaveError   = "save_error"
)

// session owns the image collector shared by all downloads of one Run.
type session struct {
	scraper   *Scraper
	images    *colly.Collector
	transport http.RoundTripper
}

func (s *Scraper) openSession() *session {
	rt := s.roundTripper
	if rt == nil {
		rt = newTransport(s.cfg, nil)
	}

	images := newCollector(s.cfg, colly.MaxBodySize(0))
	images.WithTransport(rt)
	images.OnResponse(func(r *colly.Response) {
		if r.StatusCode != http.StatusOK {
			r.Ctx.Put(ctxSaveError, ErrDownload{URL: r.Request.URL.String(), StatusCode: r.StatusCode})
			return
		}
		if err := r.Save(r.Ctx.Get(ctxDestination)); err != nil {
			r.Ctx.Put(ctxSaveError, fmt.Errorf("save image: %w", err))
		}
	})

	return &session{scraper: s, images: images, transport: rt}
}

// download writes imageURL to dest. It blocks until the body is on disk.
func (ss *session) download(ctx context.Context, imageURL, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	reqCtx := colly.NewContext()
	reqCtx.Put(ctxDestination, dest)

	metrics := ss.scraper.Metrics
	metrics.IncRequest("image")
	start := time.Now()
	err := ss.images.Request(http.MethodGet, imageURL, nil, reqCtx, nil)
	metrics.ObserveDuration("image", time.Since(start))
	if err != nil {
		return fmt.Errorf("download %s: %w", imageURL, classifyError(err))
	}
	if saveErr, ok := reqCtx.GetAny(ctxSaveError).(error); ok {
		return saveErr
	}
	return nil
}

// Close releases idle connections held by the image transport.
func (ss *session) Close() {
	if t, ok := ss.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}
