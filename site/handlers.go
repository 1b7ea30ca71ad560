package site

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"leomaster/models"
	"leomaster/storage"
)

// pageParam parses the 1-based "page" query value. A missing value is
// page 1; anything that is not a positive integer is rejected.
func pageParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// pageRef builds the path-relative reference to page n of path. Page 1
// carries no query, the way the listing API links back to it.
func pageRef(path string, n int) *string {
	ref := path
	if n > 1 {
		ref = fmt.Sprintf("%s?page=%d", path, n)
	}
	return &ref
}

func (s *Server) query(group string, page int) storage.Query {
	return storage.Query{
		Group:    storage.Group(group),
		Page:     page,
		PageSize: s.opts.PageSize,
		Now:      s.now(),
	}
}

// listPage runs q and writes the error response itself when it fails.
func (s *Server) listPage(w http.ResponseWriter, r *http.Request, q storage.Query) (storage.Result, bool) {
	res, err := s.store.List(r.Context(), q)
	if errors.Is(err, storage.ErrPageOutOfRange) {
		notFound(w, "invalid_page", "Invalid page.")
		return res, false
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("group", string(q.Group)).Msg("list failed")
		internalError(w, "storage error")
		return res, false
	}
	return res, true
}

// handleAPI serves one page of a group in the paginated listing format.
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(r)
	if !ok {
		notFound(w, "invalid_page", "Invalid page.")
		return
	}

	q := s.query(r.PathValue("group"), page)
	res, ok := s.listPage(w, r, q)
	if !ok {
		return
	}

	body := models.Page{Count: res.Count, Results: res.Items}
	if body.Results == nil {
		body.Results = []models.Masterclass{}
	}
	if res.HasNext(q) {
		body.Next = pageRef(r.URL.Path, page+1)
	}
	if page > 1 {
		body.Previous = pageRef(r.URL.Path, page-1)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) renderItems(items []models.Masterclass) ([]template.HTML, error) {
	out := make([]template.HTML, 0, len(items))
	for _, mc := range items {
		html, err := s.renderer.ItemHTML(mc)
		if err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}

func fragmentsPath(group string) string {
	return "/masterclasses/" + group + "/fragments"
}

// handleGallery serves the gallery page with its first page of cards.
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	group := r.PathValue("group")
	if !storage.Group(group).Named() {
		http.NotFound(w, r)
		return
	}

	q := s.query(group, 1)
	res, err := s.store.List(r.Context(), q)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("group", group).Msg("list failed")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	items, err := s.renderItems(res.Items)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render failed")
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	data := s.pageData(group)
	data.Items = items
	if res.HasNext(q) {
		data.Next = *pageRef(fragmentsPath(group), 2)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Page(w, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render failed")
	}
}

type fragmentsResponse struct {
	Next *string `json:"next"`
	HTML string  `json:"html"`
}

// handleFragments serves rendered grid items for the page script.
func (s *Server) handleFragments(w http.ResponseWriter, r *http.Request) {
	group := r.PathValue("group")
	if !storage.Group(group).Named() {
		notFound(w, "unknown_group", "Unknown group.")
		return
	}
	page, ok := pageParam(r)
	if !ok {
		notFound(w, "invalid_page", "Invalid page.")
		return
	}

	q := s.query(group, page)
	res, ok := s.listPage(w, r, q)
	if !ok {
		return
	}

	var b strings.Builder
	if err := s.renderer.Items(&b, res.Items); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render failed")
		internalError(w, "render error")
		return
	}

	resp := fragmentsResponse{HTML: b.String()}
	if res.HasNext(q) {
		resp.Next = pageRef(fragmentsPath(group), page+1)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCalendar serves every masterclass of a group as an iCalendar feed.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	group, ok := strings.CutSuffix(r.PathValue("file"), ".ics")
	if !ok || !storage.Group(group).Named() {
		http.NotFound(w, r)
		return
	}

	var all []models.Masterclass
	for page := 1; ; page++ {
		q := s.query(group, page)
		res, err := s.store.List(r.Context(), q)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("group", group).Msg("list failed")
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		all = append(all, res.Items...)
		if !res.HasNext(q) {
			break
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	galleryURL := strings.TrimSuffix(s.opts.SiteURL, "/") + "/masterclasses/" + group + "/"
	if err := storage.WriteCalendar(w, GroupTitle(group), galleryURL, all); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("calendar failed")
	}
}
