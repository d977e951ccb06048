package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/export"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) month(r *http.Request) (string, error) {
	return ParseMonthParam(r.URL.Query(), s.now().In(s.loc))
}

func (s *Server) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	month, err := s.month(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	snaps, err := s.deps.Attendance.List(r.Context(), month)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if snaps == nil {
		snaps = []core.Snapshot{}
	}
	NewJSONResponse().Data(snaps).Write(w)
}

func (s *Server) handleSubmitAttendance(w http.ResponseWriter, r *http.Request) {
	var p snapshotPayload
	if err := s.decoder.DecodeJSON(w, r, &p); err != nil {
		writeError(w, r, applog.OpAppend, err)
		return
	}
	saved, err := s.deps.Attendance.Submit(r.Context(), p.toCore())
	if err != nil {
		writeError(w, r, applog.OpAppend, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(saved).Write(w)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	month, err := s.month(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	reports, err := s.deps.Reports.ClassReports(r.Context(), month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	if reports == nil {
		reports = []core.ClassReport{}
	}
	NewJSONResponse().Data(reports).Write(w)
}

func (s *Server) handleReportsExcel(w http.ResponseWriter, r *http.Request) {
	month, err := s.month(r)
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	reports, err := s.deps.Reports.ClassReports(r.Context(), month)
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	var buf bytes.Buffer
	if err := export.ClassReportsXLSX(&buf, month, reports); err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	NewJSONResponse().
		Attachment(fmt.Sprintf("chamada-%s.xlsx", month), xlsxContentType, buf.Bytes()).
		Write(w)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Reports.Statistics(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	if stats == nil {
		stats = []core.StudentStatistics{}
	}
	NewJSONResponse().Data(stats).Write(w)
}

func (s *Server) handleStatisticsExcel(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Reports.Statistics(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	var buf bytes.Buffer
	if err := export.StatisticsXLSX(&buf, stats); err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	NewJSONResponse().
		Attachment("estatisticas.xlsx", xlsxContentType, buf.Bytes()).
		Write(w)
}

func (s *Server) handleListExclusions(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Exclusions.List(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if list == nil {
		list = []core.Exclusion{}
	}
	NewJSONResponse().Data(list).Write(w)
}

func (s *Server) handleAddExclusion(w http.ResponseWriter, r *http.Request) {
	var p exclusionPayload
	if err := s.decoder.DecodeJSON(w, r, &p); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	added, err := s.deps.Exclusions.Add(r.Context(), p.toCore())
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(added).Write(w)
}

func (s *Server) handleDeleteExclusion(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		BadRequestError("id obrigatório").Write(w)
		return
	}
	if err := s.deps.Exclusions.Delete(r.Context(), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleGetCalendar(w http.ResponseWriter, r *http.Request) {
	cs, err := s.deps.Calendar.Get(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Data(cs).Write(w)
}

func (s *Server) handleSaveCalendar(w http.ResponseWriter, r *http.Request) {
	var p calendarPayload
	if err := s.decoder.DecodeJSON(w, r, &p); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	saved, err := s.deps.Calendar.Save(r.Context(), p.toCore())
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Data(saved).Write(w)
}

// importResult summarises a grid import.
type importResult struct {
	Imported  int             `json:"imported"`
	Snapshots []core.Snapshot `json:"snapshots"`
}

func (s *Server) handleImportGrid(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	month := strings.TrimSpace(query.Get("month"))
	if month == "" {
		UnprocessableEntityError("parâmetro month obrigatório (AAAA-MM)").Write(w)
		return
	}
	body, err := s.decoder.UploadBody(w, r)
	if err != nil {
		writeError(w, r, applog.OpImport, err)
		return
	}
	defer body.Close()

	snaps, err := s.deps.Import.ImportGrid(r.Context(), body, services.GridImport{
		Month:  month,
		Source: sanitizeInput(query.Get("source")),
		UTF8:   ParseBoolParam(query, "utf8"),
	})
	if err != nil {
		writeError(w, r, applog.OpImport, err)
		return
	}
	slog.InfoContext(r.Context(), "Attendance grid imported",
		applog.FieldMonth, month,
		applog.FieldCount, len(snaps))
	if snaps == nil {
		snaps = []core.Snapshot{}
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Data(importResult{Imported: len(snaps), Snapshots: snaps}).
		Write(w)
}

func (s *Server) handleImportRoster(w http.ResponseWriter, r *http.Request) {
	body, err := s.decoder.UploadBody(w, r)
	if err != nil {
		writeError(w, r, applog.OpImport, err)
		return
	}
	defer body.Close()

	res, err := s.deps.Import.ImportRoster(r.Context(), body)
	if err != nil {
		writeError(w, r, applog.OpImport, err)
		return
	}
	NewJSONResponse().Data(res).Write(w)
}
