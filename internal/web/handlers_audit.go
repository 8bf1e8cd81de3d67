package web

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/JonMunkholm/ledgeraudit/internal/audit"
	"github.com/JonMunkholm/ledgeraudit/internal/core"
	"github.com/JonMunkholm/ledgeraudit/internal/logging"
)

// Response headers set on workbook downloads.
const (
	HeaderRunID = "X-Audit-Run-ID"
	HeaderStats = "X-Audit-Stats"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxFormMemory is how much of a multipart upload is kept in memory
// before spilling to disk.
const maxFormMemory = 8 << 20

// procedureResponse is the JSON form of a catalogue entry.
type procedureResponse struct {
	Key       string `json:"key"`
	Sheet     string `json:"sheet"`
	Display   string `json:"display,omitempty"`
	Flag      string `json:"flag,omitempty"`
	Filtered  bool   `json:"filtered"`
	Objective string `json:"objective"`
	Method    string `json:"method"`
}

// statResponse is one entry of the ordered statistics.
type statResponse struct {
	Key       string `json:"key"`
	Procedure string `json:"procedure"`
	Count     int    `json:"count"`
}

// auditResponse is the body of POST /api/audit/stats.
type auditResponse struct {
	RunID     string         `json:"run_id"`
	Format    string         `json:"format"`
	Rows      int            `json:"rows"`
	Flagged   int            `json:"flagged"`
	Tolerance string         `json:"tolerance"`
	Stats     []statResponse `json:"stats"`
}

func toStats(stats audit.Stats) []statResponse {
	out := make([]statResponse, len(stats))
	for i, st := range stats {
		out[i] = statResponse{Key: st.Key, Procedure: st.Procedure, Count: st.Count}
	}
	return out
}

// handleHealth reports liveness and run slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"runs":   s.service.LimiterStatus(),
	})
}

// handleProcedures lists the procedure catalogue in report order.
func (s *Server) handleProcedures(w http.ResponseWriter, r *http.Request) {
	procs := s.service.Procedures()
	out := make([]procedureResponse, len(procs))
	for i, p := range procs {
		out[i] = procedureResponse{
			Key:       p.Key,
			Sheet:     p.Sheet,
			Display:   p.Display,
			Filtered:  p.Filtered,
			Objective: p.Objective,
			Method:    p.Method,
		}
		if p.Filtered {
			out[i].Flag = p.Flag.Column()
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAudit runs an audit on the uploaded ledger and streams back the
// workbook. The ordered counts travel in the X-Audit-Stats header.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	s.runUpload(w, r, func(res *core.Result) {
		f, err := os.Open(res.OutputPath)
		if err != nil {
			respondError(w, r, err)
			return
		}
		defer f.Close()

		stats, err := json.Marshal(toStats(res.Stats))
		if err != nil {
			respondError(w, r, err)
			return
		}

		h := w.Header()
		h.Set("Content-Type", xlsxContentType)
		h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.cfg.Report.OutputName))
		h.Set(HeaderRunID, res.RunID)
		h.Set(HeaderStats, asciiJSON(stats))
		if info, err := f.Stat(); err == nil {
			h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		}
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, f); err != nil {
			logging.FromContext(r.Context()).Warn("send report failed", "run_id", res.RunID, "error", err)
		}
	})
}

// handleAuditStats runs an audit and returns only the counts.
func (s *Server) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	s.runUpload(w, r, func(res *core.Result) {
		w.Header().Set(HeaderRunID, res.RunID)
		writeJSON(w, http.StatusOK, auditResponse{
			RunID:     res.RunID,
			Format:    res.Format,
			Rows:      res.Rows,
			Flagged:   res.Flagged,
			Tolerance: res.Tolerance,
			Stats:     toStats(res.Stats),
		})
	})
}

// runUpload stores the multipart "file" in a private temp directory, runs
// the audit with the "tolerance" field and hands the result to done. The
// directory is removed when done returns.
func (s *Server) runUpload(w http.ResponseWriter, r *http.Request, done func(*core.Result)) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		respondError(w, r, formError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, formError(err))
		return
	}
	defer file.Close()

	name := uploadName(header)
	req := core.Request{
		InputPath:  name,
		OutputPath: "report.xlsx",
		Tolerance:  r.FormValue("tolerance"),
	}
	if err := s.service.CheckRequest(req); err != nil {
		respondError(w, r, err)
		return
	}

	workDir, err := os.MkdirTemp(s.cfg.Upload.TempDir, "audit-*")
	if err != nil {
		respondError(w, r, fmt.Errorf("create work directory: %w", err))
		return
	}
	defer os.RemoveAll(workDir)

	req.InputPath = filepath.Join(workDir, name)
	req.OutputPath = filepath.Join(workDir, req.OutputPath)
	if err := saveUpload(file, req.InputPath); err != nil {
		respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "filename", header.Filename, "size", header.Size).Debug("upload stored")

	res, err := s.service.Run(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	done(res)
}

// uploadName keeps only the extension of the client file name, which
// selects the decoder.
func uploadName(h *multipart.FileHeader) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(h.Filename)))
	return "ledger" + ext
}

func saveUpload(src multipart.File, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("store upload: %w", err)
	}
	return dst.Close()
}

// asciiJSON escapes non-ASCII runes so the JSON fits in a header value.
func asciiJSON(data []byte) string {
	var b strings.Builder
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r < utf8.RuneSelf {
			b.WriteRune(r)
			continue
		}
		if r > 0xFFFF {
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, r1, r2)
			continue
		}
		fmt.Fprintf(&b, `\u%04x`, r)
	}
	return b.String()
}
