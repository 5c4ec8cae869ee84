// Package handlers exposes the audit workflow over the JSON API.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"optia/internal/config"
	"optia/internal/events"
	"optia/internal/export"
	"optia/internal/lifecycle"
	"optia/internal/model"
	"optia/internal/parser"
	"optia/internal/sampling"
	"optia/internal/store"
)

// Handlers wires the API endpoints to their collaborators. All references
// are injected at construction; nothing is reached through globals.
type Handlers struct {
	cfg      *config.AppConfig
	mapper   *parser.Mapper
	engine   *sampling.Engine
	tracker  *lifecycle.Tracker
	store    *store.Store
	bus      *events.Bus
	exporter *export.Exporter
	logger   *zap.Logger

	// Mapping of the most recent ingestion, immutable until the next one.
	mappingMu sync.RWMutex
	mapping   parser.ColumnMapping
}

// New creates the handler set.
func New(cfg *config.AppConfig, mapper *parser.Mapper, engine *sampling.Engine,
	tracker *lifecycle.Tracker, st *store.Store, bus *events.Bus,
	exporter *export.Exporter, logger *zap.Logger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		mapper:   mapper,
		engine:   engine,
		tracker:  tracker,
		store:    st,
		bus:      bus,
		exporter: exporter,
		logger:   logger,
	}
}

// Response is the uniform API envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{Code: code, Message: message})
}

// Error codes per failure class: 1xxx input shape, 2xxx eligibility and
// references, 3xxx persistence, 4xxx backup.
const (
	codeBadRequest       = 1001
	codeInputShape       = 1002
	codeConfirmRequired  = 1003
	codeInsufficientPool = 2001
	codeSlotOutOfRange   = 2002
	codeEmptyPool        = 2003
	codeNoActiveControl  = 2004
	codeUnknownControl   = 2005
	codePersistence      = 3001
	codeBadBackup        = 4001
)

// RegisterRoutes mounts all endpoints on the API group.
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/dossiers/upload", h.UploadDossiers)
	api.GET("/dossiers", h.ListDossiers)
	api.GET("/mapping", h.GetMapping)

	api.GET("/controls", h.ListControls)
	api.GET("/controls/active", h.ActiveControl)
	api.POST("/controls/select/:code", h.SelectControl)
	api.POST("/controls/replace", h.ReplaceDossier)
	api.POST("/controls/regenerate", h.RegenerateSample)

	api.POST("/lifecycle/start", h.StartControl)
	api.POST("/lifecycle/suspend", h.SuspendControl)
	api.POST("/lifecycle/complete", h.CompleteControl)
	api.GET("/lifecycle/status", h.DossierStatus)
	api.POST("/lifecycle/clean", h.CleanSuspended)
	api.GET("/lifecycle/history", h.History)
	api.GET("/lifecycle/suspended", h.ListSuspended)

	api.GET("/backup/export", h.ExportBackup)
	api.POST("/backup/import", h.ImportBackup)

	api.GET("/reports/control/:code", h.ControlReport)
	api.GET("/reports/history", h.HistoryReport)

	api.GET("/events/recent", h.RecentEvents)
}

// ==================== Ingestion ====================

// UploadDossiers ingests an uploaded spreadsheet: header inference, record
// construction, record-set replacement. Input-shape failures abort without
// touching the previously loaded set.
func (h *Handlers) UploadDossiers(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, codeBadRequest, "fichier manquant")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		errorResponse(c, codeBadRequest, "fichier illisible")
		return
	}
	defer f.Close()

	wb, err := parser.OpenWorkbook(f)
	if err != nil {
		errorResponse(c, codeInputShape, "fichier illisible: "+err.Error())
		return
	}
	defer wb.Close()

	sheet, err := wb.FirstSheet()
	if err != nil {
		errorResponse(c, codeInputShape, "classeur vide")
		return
	}
	headers, err := wb.HeaderRow(sheet)
	if err != nil {
		errorResponse(c, codeInputShape, "ligne d'en-tête absente")
		return
	}
	rows, err := wb.DataRows(sheet)
	if err != nil {
		errorResponse(c, codeInputShape, "aucune ligne de données")
		return
	}

	mapping := h.mapper.Infer(headers)
	if mapping.Column(parser.KeyClient) < 0 {
		errorResponse(c, codeInputShape, "colonne client introuvable")
		return
	}

	records := parser.Build(rows, mapping)
	h.engine.SetRecords(records)

	h.mappingMu.Lock()
	h.mapping = mapping
	h.mappingMu.Unlock()

	h.logger.Info("dossiers processed",
		zap.String("file", fileHeader.Filename),
		zap.String("fileID", wb.FileID()),
		zap.Int("rows", len(rows)),
		zap.Int("records", len(records)))

	h.bus.Publish(events.Event{
		Kind: events.KindDataProcessed,
		Counts: map[string]int{
			"rows":    len(rows),
			"records": len(records),
			"dropped": len(rows) - len(records),
		},
		Message: fileHeader.Filename,
	})

	success(c, gin.H{
		"fileID":      wb.FileID(),
		"mapping":     mapping,
		"recordCount": len(records),
		"droppedRows": len(rows) - len(records),
	})
}

// ListDossiers returns the current record set.
func (h *Handlers) ListDossiers(c *gin.Context) {
	success(c, h.engine.Records())
}

// GetMapping returns the column mapping of the last ingestion.
func (h *Handlers) GetMapping(c *gin.Context) {
	h.mappingMu.RLock()
	mapping := h.mapping
	h.mappingMu.RUnlock()
	success(c, mapping)
}

// ==================== Sampling ====================

// ListControls returns the control-type catalogue with the current eligible
// count per type.
func (h *Handlers) ListControls(c *gin.Context) {
	type controlView struct {
		*model.ControlDefinition
		EligibleCount int `json:"eligibleCount"`
	}
	out := make([]controlView, 0)
	for _, def := range model.Definitions() {
		out = append(out, controlView{
			ControlDefinition: def,
			EligibleCount:     len(h.engine.ComputeEligible(def)),
		})
	}
	success(c, out)
}

// ActiveControl returns the live control run, if any.
func (h *Handlers) ActiveControl(c *gin.Context) {
	active := h.engine.Active()
	if active == nil {
		success(c, nil)
		return
	}
	success(c, gin.H{
		"control":        active,
		"availableCount": len(h.engine.Available()),
	})
}

// SelectControl launches a control run for the given type.
func (h *Handlers) SelectControl(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))

	active, err := h.engine.SelectControlType(code)
	if err != nil {
		errorResponse(c, samplingErrorCode(err), err.Error())
		return
	}

	available := h.engine.Available()
	h.logger.Info("control launched",
		zap.String("control", code),
		zap.Int("selected", len(active.Selected)),
		zap.Int("available", len(available)))

	h.bus.Publish(events.Event{
		Kind:        events.KindControlLaunched,
		ControlType: code,
		Counts: map[string]int{
			"selected":  len(active.Selected),
			"available": len(available),
		},
	})

	success(c, gin.H{
		"control":        active,
		"availableCount": len(available),
	})
}

// ReplaceDossier swaps one sample slot against the available pool.
func (h *Handlers) ReplaceDossier(c *gin.Context) {
	var req struct {
		Slot *int `json:"slot"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Slot == nil {
		errorResponse(c, codeBadRequest, "paramètre slot manquant")
		return
	}

	incoming, err := h.engine.ReplaceDossier(*req.Slot)
	if err != nil {
		errorResponse(c, samplingErrorCode(err), err.Error())
		return
	}

	success(c, gin.H{
		"slot":           *req.Slot,
		"dossier":        incoming,
		"availableCount": len(h.engine.Available()),
	})
}

// RegenerateSample redraws the full sample. Irreversible, so an explicit
// confirmation is required in the request body.
func (h *Handlers) RegenerateSample(c *gin.Context) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
		errorResponse(c, codeConfirmRequired, "confirmation requise")
		return
	}

	active, err := h.engine.RegenerateSample()
	if err != nil {
		errorResponse(c, samplingErrorCode(err), err.Error())
		return
	}

	success(c, gin.H{
		"control":        active,
		"availableCount": len(h.engine.Available()),
	})
}

func samplingErrorCode(err error) int {
	switch {
	case errors.Is(err, sampling.ErrInsufficientPool):
		return codeInsufficientPool
	case errors.Is(err, sampling.ErrSlotOutOfRange):
		return codeSlotOutOfRange
	case errors.Is(err, sampling.ErrEmptyPool):
		return codeEmptyPool
	case errors.Is(err, sampling.ErrNoActiveControl):
		return codeNoActiveControl
	case errors.Is(err, sampling.ErrUnknownControl):
		return codeUnknownControl
	default:
		return codeBadRequest
	}
}

// ==================== Lifecycle ====================

// StartControl notifies collaborators that the review of one dossier began.
func (h *Handlers) StartControl(c *gin.Context) {
	var req struct {
		DossierKey  string `json:"dossierKey"`
		ControlType string `json:"controlType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.DossierKey == "" || req.ControlType == "" {
		errorResponse(c, codeBadRequest, "dossierKey et controlType requis")
		return
	}

	h.bus.Publish(events.Event{
		Kind:        events.KindControlStarted,
		ControlType: req.ControlType,
		DossierKey:  req.DossierKey,
	})
	success(c, nil)
}

// SuspendControl upserts a suspended entry for later resumption.
func (h *Handlers) SuspendControl(c *gin.Context) {
	var entry model.SuspendedControl
	if err := c.ShouldBindJSON(&entry); err != nil || entry.DossierKey == "" || entry.ControlType == "" {
		errorResponse(c, codeBadRequest, "dossierKey et controlType requis")
		return
	}

	if err := h.tracker.SaveSuspended(entry); err != nil {
		h.logger.Error("save suspended control", zap.Error(err))
		errorResponse(c, codePersistence, "échec de l'enregistrement, réessayez")
		return
	}

	h.bus.Publish(events.Event{
		Kind:        events.KindControlSuspended,
		ControlType: entry.ControlType,
		DossierKey:  entry.DossierKey,
		Message:     entry.Reason,
	})
	success(c, nil)
}

// CompleteControl records a completed control: history entry, controlled
// marker, suspended-entry removal, completion event. Closes the active run
// once every selected dossier is controlled.
func (h *Handlers) CompleteControl(c *gin.Context) {
	var entry model.CompletedControl
	if err := c.ShouldBindJSON(&entry); err != nil || entry.DossierKey == "" || entry.ControlType == "" {
		errorResponse(c, codeBadRequest, "dossierKey et controlType requis")
		return
	}

	if err := h.tracker.Complete(entry); err != nil {
		h.logger.Error("complete control", zap.Error(err))
		errorResponse(c, codePersistence, "échec de l'enregistrement, réessayez")
		return
	}
	if err := h.tracker.RemoveSuspended(entry.DossierKey, entry.ControlType); err != nil {
		h.logger.Error("remove suspended entry", zap.Error(err))
	}

	h.bus.Publish(events.Event{
		Kind:        events.KindControlCompleted,
		ControlType: entry.ControlType,
		DossierKey:  entry.DossierKey,
		Counts:      map[string]int{"anomalies": entry.CountAnomalies()},
	})

	h.closeRunIfDone(entry.ControlType)
	success(c, nil)
}

// closeRunIfDone marks the active run completed when every selected dossier
// has been controlled for its control type.
func (h *Handlers) closeRunIfDone(controlType string) {
	active := h.engine.Active()
	if active == nil || active.Code != controlType {
		return
	}
	for i := range active.Selected {
		if h.tracker.Status(active.Selected[i].Key(), controlType) != model.StatusControlled {
			return
		}
	}
	h.engine.CompleteActive()
}

// DossierStatus reports the audit state for one (dossier key, control type).
func (h *Handlers) DossierStatus(c *gin.Context) {
	key := c.Query("key")
	controlType := c.Query("type")
	if key == "" || controlType == "" {
		errorResponse(c, codeBadRequest, "key et type requis")
		return
	}

	status := h.tracker.Status(key, controlType)
	out := gin.H{"status": status}
	if status == model.StatusSuspended {
		if entry, ok := h.tracker.Suspended(key, controlType); ok {
			out["suspended"] = entry
		}
	}
	success(c, out)
}

// CleanSuspended removes suspended entries older than the day threshold.
func (h *Handlers) CleanSuspended(c *gin.Context) {
	var req struct {
		Days int `json:"days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, codeBadRequest, "paramètres invalides")
		return
	}
	if req.Days <= 0 {
		req.Days = h.cfg.Retention.SuspendedDays
	}

	removed, err := h.tracker.CleanOldSuspended(req.Days)
	if err != nil {
		h.logger.Error("clean suspended controls", zap.Error(err))
		errorResponse(c, codePersistence, "échec du nettoyage, réessayez")
		return
	}
	success(c, gin.H{"removed": removed, "days": req.Days})
}

// History returns the completed-control history.
func (h *Handlers) History(c *gin.Context) {
	success(c, h.tracker.History())
}

// ListSuspended returns the full suspended set.
func (h *Handlers) ListSuspended(c *gin.Context) {
	success(c, h.tracker.SuspendedControls())
}

// ==================== Backup ====================

// ExportBackup serializes the three persisted namespaces as one document.
func (h *Handlers) ExportBackup(c *gin.Context) {
	backup, err := h.store.Export()
	if err != nil {
		h.logger.Error("export backup", zap.Error(err))
		errorResponse(c, codePersistence, "échec de l'export, réessayez")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="optia-backup.json"`)
	c.JSON(http.StatusOK, backup)
}

// ImportBackup replaces the full persisted state with the given document.
// All-or-nothing, behind an explicit confirmation.
func (h *Handlers) ImportBackup(c *gin.Context) {
	var req struct {
		Confirm bool          `json:"confirm"`
		Backup  *store.Backup `json:"backup"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Backup == nil {
		errorResponse(c, codeBadRequest, "document de sauvegarde manquant")
		return
	}
	if !req.Confirm {
		errorResponse(c, codeConfirmRequired, "confirmation requise")
		return
	}

	if err := h.store.Import(req.Backup); err != nil {
		if errors.Is(err, store.ErrBadBackup) {
			errorResponse(c, codeBadBackup, err.Error())
			return
		}
		h.logger.Error("import backup", zap.Error(err))
		errorResponse(c, codePersistence, "échec de l'import, réessayez")
		return
	}
	if err := h.tracker.Reload(); err != nil {
		h.logger.Error("reload tracker after import", zap.Error(err))
		errorResponse(c, codePersistence, "état importé mais rechargement incomplet")
		return
	}

	success(c, gin.H{
		"controles":          len(req.Backup.Controles),
		"suspendedControls":  len(req.Backup.SuspendedControls),
		"controlledDossiers": len(req.Backup.ControlledDossiers),
	})
}

// ==================== Reports ====================

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ControlReport streams the per-control audit report.
func (h *Handlers) ControlReport(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	def := model.DefinitionByCode(code)
	if def == nil {
		errorResponse(c, codeUnknownControl, "type de contrôle inconnu: "+code)
		return
	}

	f, err := h.exporter.ControlReport(def, h.tracker.History())
	if err != nil {
		h.logger.Error("build control report", zap.Error(err))
		errorResponse(c, codePersistence, "échec de la génération du rapport")
		return
	}
	h.streamWorkbook(c, f, "rapport-"+strings.ToLower(code)+".xlsx")
}

// HistoryReport streams the full-history audit report.
func (h *Handlers) HistoryReport(c *gin.Context) {
	f, err := h.exporter.HistoryReport(h.tracker.History())
	if err != nil {
		h.logger.Error("build history report", zap.Error(err))
		errorResponse(c, codePersistence, "échec de la génération du rapport")
		return
	}
	h.streamWorkbook(c, f, "rapport-historique.xlsx")
}

func (h *Handlers) streamWorkbook(c *gin.Context, f *excelize.File, filename string) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		h.logger.Error("serialize report", zap.Error(err))
		errorResponse(c, codePersistence, "échec de la génération du rapport")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ==================== Events ====================

// RecentEvents returns the bounded replay of recent notification events.
func (h *Handlers) RecentEvents(c *gin.Context) {
	success(c, h.bus.Recent())
}
