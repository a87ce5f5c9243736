package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/Leganyst/roster-platform/internal/roster"
	"github.com/Leganyst/roster-platform/internal/service"
)

// errBadBody помечает нечитаемое тело запроса, чтобы writeError
// отдал 400, а не 500.
var errBadBody = errors.New("malformed request body")

// Server — HTTP-обвязка над сервисами расписания и справочника.
// Вся доменная логика живёт в сервисах, здесь только JSON
// туда-обратно и перевод сервисных ошибок в коды ответов.
type Server struct {
	roster    *service.RosterService
	directory *service.DirectoryService
	mux       *http.ServeMux
}

func NewServer(rosterSvc *service.RosterService, directorySvc *service.DirectoryService) *Server {
	s := &Server{
		roster:    rosterSvc,
		directory: directorySvc,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler отдаёт корневой http.Handler для http.Server.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/roster/generate", s.handleGenerate)
	s.mux.HandleFunc("GET /api/roster", s.handleCurrent)
	s.mux.HandleFunc("POST /api/roster/reset", s.handleReset)
	s.mux.HandleFunc("PUT /api/roster/cell", s.handleEditCell)
	s.mux.HandleFunc("POST /api/roster/move", s.handleMoveCell)
	s.mux.HandleFunc("GET /api/roster/fairness", s.handleFairness)
	s.mux.HandleFunc("GET /api/rosters", s.handleListRosters)
	s.mux.HandleFunc("GET /api/events", s.handleListEvents)

	s.mux.HandleFunc("GET /api/rules", s.handleGetRules)
	s.mux.HandleFunc("PUT /api/rules", s.handlePutRules)

	s.mux.HandleFunc("GET /api/therapists", s.handleListTherapists)
	s.mux.HandleFunc("POST /api/therapists", s.handleCreateTherapist)
	s.mux.HandleFunc("PUT /api/therapists/{id}", s.handleUpdateTherapist)

	s.mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	s.mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	s.mux.HandleFunc("PUT /api/rooms/{id}", s.handleUpdateRoom)
	s.mux.HandleFunc("PUT /api/rooms/{id}/window", s.handleSetRoomWindow)
}

// weekRequest — тело запросов, где неделя опциональна.
// Пустая строка означает неделю по умолчанию (текущую или последнюю
// сохранённую, смотря по операции).
type weekRequest struct {
	Week string `json:"week"`
}

type cellEditRequest struct {
	Week        string          `json:"week"`
	Cell        service.CellRef `json:"cell"`
	TherapistID string          `json:"therapistId"`
}

type cellMoveRequest struct {
	Week string          `json:"week"`
	From service.CellRef `json:"from"`
	To   service.CellRef `json:"to"`
}

type therapistPayload struct {
	DisplayName string `json:"displayName"`
	Position    string `json:"position"`
	Active      bool   `json:"active"`
}

type roomPayload struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
	Active    bool   `json:"active"`
}

type windowPayload struct {
	Window roster.RoomTimeWindow `json:"window"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req weekRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := s.roster.Generate(r.Context(), req.Week)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	view, err := s.roster.Current(r.Context(), r.URL.Query().Get("week"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req weekRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := s.roster.Reset(r.Context(), req.Week)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleEditCell ставит терапевта в ячейку или очищает её.
// Пустой therapistId очищает ячейку.
func (s *Server) handleEditCell(w http.ResponseWriter, r *http.Request) {
	var req cellEditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := s.roster.EditCell(r.Context(), req.Week, req.Cell, req.TherapistID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleMoveCell(w http.ResponseWriter, r *http.Request) {
	var req cellMoveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := s.roster.MoveCell(r.Context(), req.Week, req.From, req.To)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleFairness(w http.ResponseWriter, r *http.Request) {
	loads, err := s.roster.Fairness(r.Context(), r.URL.Query().Get("week"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loads)
}

func (s *Server) handleListRosters(w http.ResponseWriter, r *http.Request) {
	page, err := s.roster.ListRosters(r.Context(), queryInt(r, "page"), queryInt(r, "pageSize"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	page, err := s.roster.ListEvents(r.Context(), queryInt(r, "page"), queryInt(r, "pageSize"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	blob, err := s.roster.Rules(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blob)
}

// handlePutRules заменяет правила доступности целиком и возвращает
// сохранённый набор уже после нормализации.
func (s *Server) handlePutRules(w http.ResponseWriter, r *http.Request) {
	var blob roster.RulesBlob
	if err := decodeJSON(r, &blob); err != nil {
		writeError(w, err)
		return
	}
	if err := s.roster.SaveRules(r.Context(), blob); err != nil {
		writeError(w, err)
		return
	}
	saved, err := s.roster.Rules(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleListTherapists(w http.ResponseWriter, r *http.Request) {
	views, err := s.directory.ListTherapists(r.Context(), queryBool(r, "includeInactive"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateTherapist(w http.ResponseWriter, r *http.Request) {
	var req therapistPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := s.directory.CreateTherapist(r.Context(), req.DisplayName, req.Position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// handleUpdateTherapist заменяет карточку целиком: опущенный active
// читается как false и деактивирует терапевта.
func (s *Server) handleUpdateTherapist(w http.ResponseWriter, r *http.Request) {
	var req therapistPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := s.directory.UpdateTherapist(r.Context(), r.PathValue("id"), req.DisplayName, req.Position, req.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	views, err := s.directory.ListRooms(r.Context(), queryBool(r, "includeInactive"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := s.directory.CreateRoom(r.Context(), req.Name, req.SortOrder)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := s.directory.UpdateRoom(r.Context(), r.PathValue("id"), req.Name, req.SortOrder, req.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSetRoomWindow задаёт временное окно кабинета. Пустой список
// (или пустое тело) снимает ограничение.
func (s *Server) handleSetRoomWindow(w http.ResponseWriter, r *http.Request) {
	var req windowPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := s.directory.SetRoomWindow(r.Context(), r.PathValue("id"), req.Window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// decodeJSON читает JSON-тело запроса. Пустое тело допустимо:
// все поля остаются нулевыми.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: %v", errBadBody, err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError переводит сервисную ошибку в код ответа. Неожиданные
// ошибки логируются и наружу уходят без деталей.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadBody),
		errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrInvalidWeek),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, roster.ErrCellOutsideCalendar):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrTherapistNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrRosterNotFound):
		status = http.StatusNotFound
	case errors.Is(err, roster.ErrRoomClosed),
		errors.Is(err, roster.ErrSourceEmpty):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("api: internal error: %v", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}
