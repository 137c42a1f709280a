package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelier-ai/atelier-backend/internal/archive"
	"github.com/atelier-ai/atelier-backend/internal/auth"
	"github.com/atelier-ai/atelier-backend/internal/export"
	"github.com/atelier-ai/atelier-backend/internal/studio/generate"
	"github.com/atelier-ai/atelier-backend/internal/studio/refine"
	"github.com/atelier-ai/atelier-backend/internal/studio/session"
)

type Handler struct {
	sessions *session.Manager
	genSvc   *generate.Service
	refSvc   *refine.Service
	repo     *archive.Repo
}

func NewHandler(sessions *session.Manager, genSvc *generate.Service, refSvc *refine.Service, repo *archive.Repo) *Handler {
	return &Handler{sessions: sessions, genSvc: genSvc, refSvc: refSvc, repo: repo}
}

func (h *Handler) createSession(c *gin.Context) {
	s := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"ok": true, "session": s.State()})
}

func (h *Handler) getSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": s.State()})
}

func (h *Handler) completeBriefing(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req BriefingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	brief := archive.BriefingData{
		Typology:           req.Typology,
		Location:           req.Location,
		ContextDetails:     req.ContextDetails,
		VisionPrompt:       req.VisionPrompt,
		InspirationImages:  req.InspirationImages,
		MassingImage:       req.MassingImage,
		AreaSqm:            req.AreaSqm,
		Floors:             req.Floors,
		PreferredMaterials: req.PreferredMaterials,
		MoodIntensity:      req.MoodIntensity,
	}

	if err := s.CompleteBriefing(c.Request.Context(), brief); err != nil {
		h.fail(c, err)
		return
	}

	// When auth middleware resolved a user, the fresh project records them
	// as its owner.
	if uid := auth.UserDBID(c); uid != "" {
		if _, err := h.repo.Upsert(c.Request.Context(), s.ProjectID(), archive.ProjectPatch{Owner: &uid}); err != nil {
			h.fail(c, err)
			return
		}
	}

	// The research step runs immediately on the fresh brief; a gateway
	// failure falls back to the default payload inside the service.
	research, err := h.genSvc.Research(c.Request.Context(), s)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "research": research, "session": s.State()})
}

func (h *Handler) generateProposals(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	opts, err := h.genSvc.Proposals(c.Request.Context(), s)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "options": opts, "session": s.State()})
}

func (h *Handler) synthesize(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req SynthesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	opts, err := h.genSvc.Synthesize(c.Request.Context(), s, req.Guidance)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "options": opts, "session": s.State()})
}

func (h *Handler) selectOption(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if err := s.SelectOption(req.OptionID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": s.State()})
}

func (h *Handler) refine(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	v, err := h.refSvc.Apply(c.Request.Context(), s, req.Instruction)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": v, "session": s.State()})
}

func (h *Handler) restore(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	v, err := s.RestoreVersion(req.VersionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": v, "session": s.State()})
}

func (h *Handler) finalize(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req FinalizeRequest
	_ = c.ShouldBindJSON(&req)

	image := req.Image
	if image == "" {
		current, err := s.CurrentImage()
		if err != nil {
			h.fail(c, err)
			return
		}
		image = current
	}

	if err := s.FinalizeRefinement(c.Request.Context(), image); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": s.State()})
}

func (h *Handler) angles(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	images, err := h.genSvc.Angles(c.Request.Context(), s)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "images": images})
}

func (h *Handler) exportDossier(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	doc := export.Build(dossierInput(s, h.repo.Get(s.ProjectID())))
	c.JSON(http.StatusOK, gin.H{"ok": true, "document": doc})
}

func (h *Handler) newProject(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	s.StartNewProject()
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": s.State()})
}

func (h *Handler) loadProject(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	p := h.repo.Get(c.Param("project_id"))
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}

	s.LoadProject(*p)
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": s.State()})
}

func (h *Handler) listProjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": h.repo.List()})
}

func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "session not found"})
		return nil, false
	}
	return s, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, session.ErrWrongStage),
		errors.Is(err, session.ErrNoSelection):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, session.ErrOptionNotFound),
		errors.Is(err, session.ErrVersionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, refine.ErrGenerationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}

// dossierInput maps live session state plus the archived project into the
// export input. Only non-initial turns reach the evolution page.
func dossierInput(s *session.Session, p *archive.Project) export.Input {
	in := export.Input{
		Title:     "Concept Dossier",
		MainImage: s.FinalImage(),
	}
	if b := s.Brief(); b != nil {
		in.Typology = b.Typology
		in.Location = b.Location
		in.Title = in.Typology + " in " + in.Location
	}
	if r := s.Research(); r != nil {
		in.Materials = r.Materials
		in.Lighting = r.Lighting
		in.Vernacular = r.Vernacular
	}
	for _, t := range s.Turns() {
		in.Turns = append(in.Turns, export.Turn{Role: t.Role, Text: t.Text, Image: t.Image})
	}
	if p != nil {
		if in.Title == "Concept Dossier" && p.Name != "" {
			in.Title = p.Name
		}
		for _, img := range p.Images {
			if img.Kind == archive.KindAngle {
				in.AngleImages = append(in.AngleImages, img.Payload)
			}
		}
	}
	return in
}
