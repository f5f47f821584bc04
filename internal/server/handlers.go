package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/porticus-lab/invoice-pdf/auth"
	"github.com/porticus-lab/invoice-pdf/batch"
)

type indexPage struct {
	Email      string
	Credential string
	Result     *batch.Result
	Archive    bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	res := s.result(id.Email)
	page := indexPage{
		Email:      id.Email,
		Credential: s.cfg.DefaultCredential,
		Result:     res,
		Archive:    res != nil && len(res.Succeeded()) > 0,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, page); err != nil {
		s.log.Error("rendering index", "error", err)
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	if err := r.ParseMultipartForm(s.cfg.MaxUpload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("reading upload: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	docs, err := uploadedDocuments(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	credential := strings.TrimSpace(r.FormValue("credential"))
	if credential == "" {
		credential = s.cfg.DefaultCredential
	}

	// The previous result is dropped before the run starts.
	s.setResult(id.Email, nil)

	s.run.Lock()
	res := s.cfg.Runner.Run(r.Context(), docs, credential, nil)
	s.run.Unlock()

	s.setResult(id.Email, res)
	s.log.Info("batch served", "email", id.Email, "batch", res.ID, "documents", res.Len(), "succeeded", len(res.Succeeded()))

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func uploadedDocuments(r *http.Request) ([]batch.Document, error) {
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		return nil, errors.New("no files uploaded")
	}
	docs := make([]batch.Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
		}
		docs = append(docs, batch.Document{
			Name:        fh.Filename,
			Data:        data,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}
	return docs, nil
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	res := s.result(id.Email)
	if res == nil {
		res = &batch.Result{Records: []batch.Record{}}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	res := s.result(id.Email)

	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || res == nil {
		writeError(w, http.StatusNotFound, errors.New("no such document"))
		return
	}
	rec, ok := res.Record(i)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no such document"))
		return
	}
	if !rec.OK() {
		writeError(w, http.StatusConflict, fmt.Errorf("%s was not converted: %s", rec.Original, rec.Reason))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(rec.Output.Len()))
	w.Header().Set("Content-Disposition", attachment(rec.Filename))
	if _, err := rec.Output.WriteTo(w); err != nil {
		s.log.Debug("download interrupted", "error", err)
	}
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	res := s.result(id.Email)
	if res == nil {
		writeError(w, http.StatusNotFound, batch.ErrNothingToArchive)
		return
	}

	var buf bytes.Buffer
	if err := res.WriteArchive(&buf); err != nil {
		if errors.Is(err, batch.ErrNothingToArchive) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		s.log.Error("building archive", "batch", res.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", attachment("invoices-"+res.Started.Format("20060102-150405")+".zip"))
	buf.WriteTo(w)
}

// attachment formats a Content-Disposition header; non-ASCII names are
// encoded per RFC 2231.
func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
